package entrypoint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asowa/marketplace/internal/config"
)

const redisPingTimeout = 3 * time.Second

// newRedisClient accepts either host:port or a redis:// (rediss://) URL.
func newRedisClient(ctx context.Context, cfg config.Redis) (redis.UniversalClient, error) {
	addr := strings.TrimSpace(cfg.Addr)

	var opts *redis.Options
	if isRedisURL(addr) {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
		if opts.Password == "" {
			opts.Password = cfg.Password
		}
	} else {
		opts = &redis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
