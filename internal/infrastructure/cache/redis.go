package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/teamaster/core/internal/infrastructure/config"
	"github.com/teamaster/core/internal/infrastructure/logger"
)

const (
	maxConnectAttempts = 5
	initialRetryDelay  = 500 * time.Millisecond
)

// NewRedisClient connects to Redis, retrying with exponential backoff
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	retryDelay := initialRetryDelay

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetAddr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		})

		err := client.Ping(ctx).Err()
		if err == nil {
			log.Infow("Redis connected", "addr", cfg.GetAddr(), "db", cfg.DB)
			return client, nil
		}
		_ = client.Close()

		log.Warnw("Redis connection failed", "attempt", attempt, "error", err)

		if attempt < maxConnectAttempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("failed to connect to Redis: %w", ctx.Err())
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxConnectAttempts)
}
