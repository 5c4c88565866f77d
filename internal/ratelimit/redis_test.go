package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisWindow(t *testing.T, limit int, window time.Duration) (*RedisWindow, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rw := NewRedisWindow(client, "heyreach", limit, window)
	rw.now = clock.Now
	return rw, clock
}

func TestRedisWindow_CeilingThenReject(t *testing.T) {
	rw, clock := newTestRedisWindow(t, DefaultLimit, DefaultWindow)
	ctx := context.Background()

	for i := 0; i < 300; i++ {
		require.NoError(t, rw.Allow(ctx), "call %d", i+1)
		clock.Advance(10 * time.Millisecond)
	}

	err := rw.Allow(ctx)
	wait, ok := IsLimited(err)
	require.True(t, ok, "expected limit error, got %v", err)
	assert.Equal(t, 57*time.Second, wait)

	n, err := rw.InWindow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), n)
}

func TestRedisWindow_SharedAcrossInstances(t *testing.T) {
	a, clock := newTestRedisWindow(t, 3, time.Minute)
	b := NewRedisWindow(a.redis, "heyreach", 3, time.Minute)
	b.now = clock.Now
	ctx := context.Background()

	require.NoError(t, a.Allow(ctx))
	require.NoError(t, b.Allow(ctx))
	require.NoError(t, a.Allow(ctx))

	_, ok := IsLimited(b.Allow(ctx))
	assert.True(t, ok)

	clock.Advance(time.Minute)
	assert.NoError(t, b.Allow(ctx))
}

func TestRedisWindow_ConnectionError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	rw := NewRedisWindow(client, "heyreach", 1, time.Minute)
	err := rw.Allow(context.Background())
	require.Error(t, err)
	_, limited := IsLimited(err)
	assert.False(t, limited)
}
