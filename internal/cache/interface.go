package cache

import (
	"context"
	"errors"
	"time"

	"github.com/meetsync/signal-server/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// MeetingCacheResult is the cached value for a meeting lookup. Found=false
// caches a negative lookup so repeated requests for dead codes skip the
// database.
type MeetingCacheResult struct {
	Found   bool                    `json:"found"`
	Meeting *domain.MeetingResponse `json:"meeting,omitempty"`
}

// MeetingCache caches REST meeting lookups.
type MeetingCache interface {
	BuildKey(meetingID string) string
	Get(ctx context.Context, key string) (*MeetingCacheResult, error)
	Set(ctx context.Context, key string, result *MeetingCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
