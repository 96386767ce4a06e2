package service

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meetsync/signal-server/internal/audit"
	"github.com/meetsync/signal-server/internal/cache"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/repository"
	"github.com/meetsync/signal-server/pkg/log"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrMeetingExists   = errors.New("meeting already exists")
)

const meetingCodeLength = 8
const meetingCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type meetingServiceImpl struct {
	repo     repository.MeetingRepository
	cache    cache.MeetingCache // optional
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewMeetingService creates the REST meeting service. meetingCache may be
// nil to disable caching.
func NewMeetingService(repo repository.MeetingRepository, meetingCache cache.MeetingCache, cacheTTL time.Duration) MeetingService {
	return &meetingServiceImpl{
		repo:     repo,
		cache:    meetingCache,
		cacheTTL: cacheTTL,
	}
}

// CreateMeeting registers a meeting code ahead of the first join. The code
// is client-supplied or generated.
func (s *meetingServiceImpl) CreateMeeting(ctx context.Context, hostID string, req *domain.CreateMeetingRequest) (*domain.MeetingResponse, error) {
	code := req.MeetingID
	if code == "" {
		var err error
		code, err = generateMeetingCode()
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	meeting := &domain.Meeting{
		MeetingID: code,
		HostID:    hostID,
		StartedAt: &now,
		IsActive:  true,
	}

	if err := s.repo.Create(ctx, meeting); err != nil {
		if errors.Is(err, repository.ErrMeetingExists) {
			return nil, ErrMeetingExists
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.cache.BuildKey(code)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str(log.FieldMeetingID, code).Msg("failed to invalidate meeting cache")
		}
	}

	audit.Log(ctx, audit.ActionCreateMeeting, hostID, code, "meeting created")
	resp := meeting.ToResponse()
	return &resp, nil
}

// GetMeeting looks a meeting up by code, via cache, coalescing concurrent
// misses for the same code into one database read.
func (s *meetingServiceImpl) GetMeeting(ctx context.Context, meetingID string) (*domain.MeetingResponse, error) {
	if s.cache == nil {
		return s.lookup(ctx, meetingID)
	}

	key := s.cache.BuildKey(meetingID)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		if !cached.Found {
			return nil, ErrMeetingNotFound
		}
		return cached.Meeting, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Ctx(ctx).Warn().Err(err).Str(log.FieldMeetingID, meetingID).Msg("meeting cache read failed")
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		resp, err := s.lookup(ctx, meetingID)
		if errors.Is(err, ErrMeetingNotFound) {
			s.cacheSet(ctx, key, &cache.MeetingCacheResult{Found: false})
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, key, &cache.MeetingCacheResult{Found: true, Meeting: resp})
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.MeetingResponse), nil
}

func (s *meetingServiceImpl) lookup(ctx context.Context, meetingID string) (*domain.MeetingResponse, error) {
	meeting, err := s.repo.FindByMeetingID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	resp := meeting.ToResponse()
	return &resp, nil
}

func (s *meetingServiceImpl) cacheSet(ctx context.Context, key string, result *cache.MeetingCacheResult) {
	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("meeting cache write failed")
	}
}

func generateMeetingCode() (string, error) {
	buf := make([]byte, meetingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = meetingCodeCharset[int(b)%len(meetingCodeCharset)]
	}
	return string(buf), nil
}
