package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitStore counts requests per key in fixed windows shared by every
// process that talks to the same Redis.
type RateLimitStore struct {
	client *redis.Client
	action string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimitStore creates a store allowing limit requests per window.
func NewRateLimitStore(c *Client, action string, limit int, window time.Duration) *RateLimitStore {
	return &RateLimitStore{
		client: c.client,
		action: action,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow increments the counter for identifier in the current window and
// reports whether the request is within the limit.
func (s *RateLimitStore) Allow(ctx context.Context, identifier string) (bool, error) {
	if identifier == "" {
		return false, ErrKeyEmpty
	}

	windowStart := s.now().Truncate(s.window)
	key := RateLimitKey(identifier, s.action, windowStart)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: rate limit increment failed: %w", err)
	}

	return incr.Val() <= int64(s.limit), nil
}
