package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLimiter(t *testing.T, cfg RateLimitConfig) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRateLimiter(client, cfg), mr
}

func TestRedisRateLimiter_LocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	rl, mr := newTestRedisLimiter(t, RateLimitConfig{MaxAttempts: 3, WindowDuration: 15 * time.Minute, LockoutDuration: 30 * time.Minute})

	for i := 0; i < 2; i++ {
		locked, _, err := rl.RecordFailure(ctx, "10.0.0.1", "ada@example.com")
		require.NoError(t, err)
		assert.False(t, locked)
	}
	assert.Equal(t, 15*time.Minute, mr.TTL(failuresKey("10.0.0.1", "ada@example.com")))

	locked, retryAfter, err := rl.RecordFailure(ctx, "10.0.0.1", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 30*time.Minute, retryAfter)
	assert.False(t, mr.Exists(failuresKey("10.0.0.1", "ada@example.com")))

	allowed, retryAfter, err := rl.Allow(ctx, "10.0.0.1", "ada@example.com")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 30*time.Minute, retryAfter)

	allowed, _, err = rl.Allow(ctx, "10.0.0.2", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)

	mr.FastForward(31 * time.Minute)
	allowed, _, err = rl.Allow(ctx, "10.0.0.1", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	rl, mr := newTestRedisLimiter(t, RateLimitConfig{MaxAttempts: 2, WindowDuration: time.Minute, LockoutDuration: time.Hour})

	locked, _, err := rl.RecordFailure(ctx, "ip", "e")
	require.NoError(t, err)
	assert.False(t, locked)

	mr.FastForward(2 * time.Minute)

	locked, _, err = rl.RecordFailure(ctx, "ip", "e")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRedisRateLimiter_RecordSuccessClears(t *testing.T) {
	ctx := context.Background()
	rl, mr := newTestRedisLimiter(t, RateLimitConfig{MaxAttempts: 1})

	locked, _, err := rl.RecordFailure(ctx, "ip", "e")
	require.NoError(t, err)
	require.True(t, locked)

	require.NoError(t, rl.RecordSuccess(ctx, "ip", "e"))
	assert.False(t, mr.Exists(lockKey("ip", "e")))

	allowed, _, err := rl.Allow(ctx, "ip", "e")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Unavailable(t *testing.T) {
	ctx := context.Background()
	rl, mr := newTestRedisLimiter(t, RateLimitConfig{})
	mr.Close()

	allowed, _, err := rl.Allow(ctx, "ip", "e")
	assert.Error(t, err)
	assert.True(t, allowed)

	_, _, err = rl.RecordFailure(ctx, "ip", "e")
	assert.Error(t, err)
}
