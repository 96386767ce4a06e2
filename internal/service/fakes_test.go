package service

import (
	"context"
	"sync"
	"time"

	"github.com/meetsync/signal-server/internal/cache"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/repository"
)

// fakeMeetingRepo is an in-memory MeetingRepository. Records are cloned on
// the way in and out so tests never share state with the store.
type fakeMeetingRepo struct {
	mu       sync.Mutex
	meetings map[string]*domain.Meeting
	finds    int
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[string]*domain.Meeting)}
}

func cloneMeeting(m *domain.Meeting) *domain.Meeting {
	clone := *m
	clone.Participants = append([]domain.Participant(nil), m.Participants...)
	return &clone
}

func (r *fakeMeetingRepo) FindByMeetingID(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	meeting, ok := r.meetings[meetingID]
	if !ok {
		return nil, repository.ErrMeetingNotFound
	}
	return cloneMeeting(meeting), nil
}

func (r *fakeMeetingRepo) Create(ctx context.Context, meeting *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[meeting.MeetingID]; ok {
		return repository.ErrMeetingExists
	}
	r.meetings[meeting.MeetingID] = cloneMeeting(meeting)
	return nil
}

func (r *fakeMeetingRepo) Save(ctx context.Context, meeting *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[meeting.MeetingID]; !ok {
		return repository.ErrMeetingNotFound
	}
	r.meetings[meeting.MeetingID] = cloneMeeting(meeting)
	return nil
}

func (r *fakeMeetingRepo) get(meetingID string) *domain.Meeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	meeting, ok := r.meetings[meetingID]
	if !ok {
		return nil
	}
	return cloneMeeting(meeting)
}

func (r *fakeMeetingRepo) findCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finds
}

// fakeMeetingCache is an in-memory MeetingCache.
type fakeMeetingCache struct {
	mu      sync.Mutex
	entries map[string]*cache.MeetingCacheResult
}

func newFakeMeetingCache() *fakeMeetingCache {
	return &fakeMeetingCache{entries: make(map[string]*cache.MeetingCacheResult)}
}

func (c *fakeMeetingCache) BuildKey(meetingID string) string {
	return "test:meeting:" + meetingID
}

func (c *fakeMeetingCache) Get(ctx context.Context, key string) (*cache.MeetingCacheResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return result, nil
}

func (c *fakeMeetingCache) Set(ctx context.Context, key string, result *cache.MeetingCacheResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
	return nil
}

func (c *fakeMeetingCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *fakeMeetingCache) Close() error { return nil }
