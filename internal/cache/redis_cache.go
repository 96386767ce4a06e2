package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisMeetingCache implements MeetingCache on Redis.
type RedisMeetingCache struct {
	client *redis.Client
	prefix string
}

// NewRedisMeetingCache connects to Redis and returns a meeting cache.
func NewRedisMeetingCache(cfg RedisConfig, prefix string) (*RedisMeetingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMeetingCache{
		client: client,
		prefix: prefix,
	}, nil
}

// BuildKey builds the cache key for a meeting code.
func (c *RedisMeetingCache) BuildKey(meetingID string) string {
	return fmt.Sprintf("%s:meeting:%s", c.prefix, meetingID)
}

// Get reads a cached lookup result.
func (c *RedisMeetingCache) Get(ctx context.Context, key string) (*MeetingCacheResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result MeetingCacheResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &result, nil
}

// Set stores a lookup result with a TTL.
func (c *RedisMeetingCache) Set(ctx context.Context, key string, result *MeetingCacheResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

// Delete removes cached entries.
func (c *RedisMeetingCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (c *RedisMeetingCache) Close() error {
	return c.client.Close()
}
