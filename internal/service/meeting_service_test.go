package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/signal-server/internal/cache"
	"github.com/meetsync/signal-server/internal/domain"
)

func TestCreateMeeting_WithClientCode(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := NewMeetingService(repo, nil, time.Minute)

	resp, err := svc.CreateMeeting(context.Background(), "user-a", &domain.CreateMeetingRequest{MeetingID: "TEAM-SYNC"})
	require.NoError(t, err)

	assert.Equal(t, "TEAM-SYNC", resp.MeetingID)
	assert.Equal(t, "user-a", resp.HostID)
	assert.True(t, resp.IsActive)
	require.NotNil(t, resp.StartedAt)
	assert.NotNil(t, repo.get("TEAM-SYNC"))
}

func TestCreateMeeting_GeneratesCode(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := NewMeetingService(repo, nil, time.Minute)

	resp, err := svc.CreateMeeting(context.Background(), "user-a", &domain.CreateMeetingRequest{})
	require.NoError(t, err)

	require.Len(t, resp.MeetingID, meetingCodeLength)
	for _, r := range resp.MeetingID {
		assert.Contains(t, meetingCodeCharset, string(r))
	}
}

func TestCreateMeeting_DuplicateCode(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := NewMeetingService(repo, nil, time.Minute)

	_, err := svc.CreateMeeting(context.Background(), "user-a", &domain.CreateMeetingRequest{MeetingID: "TEAM-SYNC"})
	require.NoError(t, err)

	_, err = svc.CreateMeeting(context.Background(), "user-b", &domain.CreateMeetingRequest{MeetingID: "TEAM-SYNC"})
	assert.ErrorIs(t, err, ErrMeetingExists)
}

func TestGetMeeting_WithoutCache(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := NewMeetingService(repo, nil, time.Minute)

	_, err := svc.CreateMeeting(context.Background(), "user-a", &domain.CreateMeetingRequest{MeetingID: "TEAM-SYNC"})
	require.NoError(t, err)

	resp, err := svc.GetMeeting(context.Background(), "TEAM-SYNC")
	require.NoError(t, err)
	assert.Equal(t, "TEAM-SYNC", resp.MeetingID)

	_, err = svc.GetMeeting(context.Background(), "NO-SUCH")
	assert.ErrorIs(t, err, ErrMeetingNotFound)
}

func TestGetMeeting_PopulatesCache(t *testing.T) {
	repo := newFakeMeetingRepo()
	meetingCache := newFakeMeetingCache()
	svc := NewMeetingService(repo, meetingCache, time.Minute)

	_, err := svc.CreateMeeting(context.Background(), "user-a", &domain.CreateMeetingRequest{MeetingID: "TEAM-SYNC"})
	require.NoError(t, err)

	_, err = svc.GetMeeting(context.Background(), "TEAM-SYNC")
	require.NoError(t, err)
	reads := repo.findCount()

	// Second read is served from cache
	resp, err := svc.GetMeeting(context.Background(), "TEAM-SYNC")
	require.NoError(t, err)
	assert.Equal(t, "TEAM-SYNC", resp.MeetingID)
	assert.Equal(t, reads, repo.findCount())
}

func TestGetMeeting_CachesNegativeLookups(t *testing.T) {
	repo := newFakeMeetingRepo()
	meetingCache := newFakeMeetingCache()
	svc := NewMeetingService(repo, meetingCache, time.Minute)

	_, err := svc.GetMeeting(context.Background(), "NO-SUCH")
	assert.ErrorIs(t, err, ErrMeetingNotFound)
	reads := repo.findCount()

	_, err = svc.GetMeeting(context.Background(), "NO-SUCH")
	assert.ErrorIs(t, err, ErrMeetingNotFound)
	assert.Equal(t, reads, repo.findCount())
}

func TestGetMeeting_ServesCachedValue(t *testing.T) {
	repo := newFakeMeetingRepo()
	meetingCache := newFakeMeetingCache()
	svc := NewMeetingService(repo, meetingCache, time.Minute)

	cached := &domain.MeetingResponse{MeetingID: "TEAM-SYNC", HostID: "user-z", IsActive: true}
	require.NoError(t, meetingCache.Set(context.Background(), meetingCache.BuildKey("TEAM-SYNC"),
		&cache.MeetingCacheResult{Found: true, Meeting: cached}, time.Minute))

	resp, err := svc.GetMeeting(context.Background(), "TEAM-SYNC")
	require.NoError(t, err)
	assert.Equal(t, "user-z", resp.HostID)
	assert.Equal(t, 0, repo.findCount())
}
