package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitKey(t *testing.T) {
	window := time.Unix(1700000000, 0)
	assert.Equal(t, "ratelimit:10.0.0.1:api:1700000000", RateLimitKey("10.0.0.1", "api", window))
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 4, opts.PoolSize)

	cfg.URL = "redis://:secret@cache.internal:6380/2"
	opts, err = cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	cfg.URL = "http://nope"
	_, err = cfg.Options()
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestRateLimitStore_Allow(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	client, err := NewClient(Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRateLimitStore(client, "test", 3, time.Minute)
	fixed := time.Now()
	store.now = func() time.Time { return fixed }

	ctx := context.Background()
	id := uuid.NewString()

	for i := 0; i < 3; i++ {
		ok, err := store.Allow(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, err := store.Allow(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// Next window starts a fresh counter.
	store.now = func() time.Time { return fixed.Add(time.Minute) }
	ok, err = store.Allow(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.Allow(ctx, "")
	assert.ErrorIs(t, err, ErrKeyEmpty)
}
