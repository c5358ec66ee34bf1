package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "asowa:login:"

// RedisRateLimiter is a LoginLimiter shared by every API replica.
//
// Failures live in a counter that expires with the window; a lockout is a
// separate key whose TTL is the remaining lockout.
type RedisRateLimiter struct {
	client          redis.UniversalClient
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
}

// NewRedisRateLimiter creates a limiter backed by client.
func NewRedisRateLimiter(client redis.UniversalClient, cfg RateLimitConfig) *RedisRateLimiter {
	cfg = cfg.withDefaults()
	return &RedisRateLimiter{
		client:          client,
		maxAttempts:     cfg.MaxAttempts,
		windowDuration:  cfg.WindowDuration,
		lockoutDuration: cfg.LockoutDuration,
	}
}

func failuresKey(ip, email string) string {
	return redisKeyPrefix + "failures:" + limiterKey(ip, email)
}

func lockKey(ip, email string) string {
	return redisKeyPrefix + "lock:" + limiterKey(ip, email)
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, ip, email string) (bool, time.Duration, error) {
	ttl, err := rl.client.PTTL(ctx, lockKey(ip, email)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return true, 0, fmt.Errorf("failed to read lockout: %w", err)
	}
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

func (rl *RedisRateLimiter) RecordFailure(ctx context.Context, ip, email string) (bool, time.Duration, error) {
	key := failuresKey(ip, email)

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to record login failure: %w", err)
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, key, rl.windowDuration).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set failure window: %w", err)
		}
	}

	if count < int64(rl.maxAttempts) {
		return false, 0, nil
	}

	_, err = rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lockKey(ip, email), count, rl.lockoutDuration)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to lock login: %w", err)
	}
	return true, rl.lockoutDuration, nil
}

func (rl *RedisRateLimiter) RecordSuccess(ctx context.Context, ip, email string) error {
	if err := rl.client.Del(ctx, failuresKey(ip, email), lockKey(ip, email)).Err(); err != nil {
		return fmt.Errorf("failed to clear login failures: %w", err)
	}
	return nil
}
