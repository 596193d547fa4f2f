// Package cache connects to Redis, which holds shared token revocations
// across server instances.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	maxConnectAttempts = 5
	retryDelay         = 2 * time.Second
)

// NewRedisClient parses a redis:// URL and pings the server, retrying a
// few times while Redis starts up.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", maxConnectAttempts).
			Msg("redis not reachable")

		if attempt == maxConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	client.Close()
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", maxConnectAttempts, err)
}

// Ping adapts a client to db.DependencyCheck.
func Ping(client redis.Cmdable) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
