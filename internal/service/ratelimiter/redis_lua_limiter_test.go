package ratelimiter

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLuaLimiter(t *testing.T) (*RedisLuaLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLuaLimiter(rdb, nil), mr
}

func TestNewBucketConfigFromPerMinute(t *testing.T) {
	cfg := NewBucketConfigFromPerMinute(60)
	assert.Equal(t, int64(60), cfg.Capacity)
	assert.InDelta(t, 1.0, cfg.RefillRate, 1e-9)

	assert.Equal(t, BucketConfig{}, NewBucketConfigFromPerMinute(0))
}

func TestAllow_NilLimiter_FailOpen(t *testing.T) {
	var limiter *RedisLuaLimiter

	allowed, retryAfter, err := limiter.Allow(context.Background(), "any", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
	assert.Nil(t, NewRedisLuaLimiter(nil, nil))
}

func TestAllow_NoBucketConfig_FailOpen(t *testing.T) {
	limiter, _ := newTestRedisLuaLimiter(t)

	allowed, retryAfter, err := limiter.Allow(context.Background(), "unknown-bucket", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestAllow_RespectsCapacityAndRefills(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestRedisLuaLimiter(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.SetBucketConfig("generator", BucketConfig{Capacity: 3, RefillRate: 1})

	for i := 0; i < 3; i++ {
		allowed, retryAfter, err := limiter.Allow(ctx, "generator", 1)
		require.NoError(t, err)
		assert.True(t, allowed, "call %d", i)
		assert.Zero(t, retryAfter)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "generator", 1)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, retryAfter)

	now = now.Add(2 * time.Second)
	allowed, _, err = limiter.Allow(ctx, "generator", 2)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_BucketsAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestRedisLuaLimiter(t)
	limiter.SetBucketConfig("a", BucketConfig{Capacity: 1, RefillRate: 0.001})
	limiter.SetBucketConfig("b", BucketConfig{Capacity: 1, RefillRate: 0.001})

	ok, _, _ := limiter.Allow(ctx, "a", 1)
	assert.True(t, ok)
	ok, _, _ = limiter.Allow(ctx, "a", 1)
	assert.False(t, ok)
	ok, _, _ = limiter.Allow(ctx, "b", 1)
	assert.True(t, ok)

	assert.True(t, mr.Exists("rate:a"))
	assert.Positive(t, mr.TTL("rate:a"))
}

func TestAllow_RedisDown_FailsOpen(t *testing.T) {
	limiter, mr := newTestRedisLuaLimiter(t)
	limiter.SetBucketConfig("generator", BucketConfig{Capacity: 1, RefillRate: 1})
	mr.Close()

	allowed, _, err := limiter.Allow(context.Background(), "generator", 1)
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestSetBucketConfig_NilSafe(_ *testing.T) {
	var limiter *RedisLuaLimiter
	limiter.SetBucketConfig("key", BucketConfig{Capacity: 1, RefillRate: 1})
}
