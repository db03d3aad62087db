package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/focusvent/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientOptions controls optional client instrumentation
type ClientOptions struct {
	Tracing bool
	Metrics bool
}

// NewRedisClient connects to Redis and verifies the connection with PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, opts ClientOptions, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if opts.Tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Warn("Failed to instrument redis tracing", zap.Error(err))
		}
	}
	if opts.Metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Warn("Failed to instrument redis metrics", zap.Error(err))
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}
