package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// NewRedisClient connects to Redis and pings it once
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// IdempotencyStoreFactory picks the idempotency store backend from config
type IdempotencyStoreFactory struct {
	backend               string
	client                redis.UniversalClient
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether a missing Redis client degrades to the
// in-memory store instead of failing. Default is false.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a factory for the configured backend.
// client may be nil when Redis is disabled.
func NewIdempotencyStoreFactory(cfg config.EventConfig, client redis.UniversalClient, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		backend: cfg.IdempotencyStore,
		client:  client,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the store for the configured backend
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	switch f.backend {
	case config.IdempotencyStoreRedis:
		if f.client != nil {
			f.logger.Info("Using Redis idempotency store")
			return NewRedisIdempotencyStore(f.client, DefaultIdempotencyKeyPrefix), nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("idempotency store %q needs a redis client", f.backend)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; " +
			"duplicates are only filtered per instance")
		return NewInMemoryIdempotencyStore(), nil
	case config.IdempotencyStoreMemory, "":
		f.logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency store %q", f.backend)
	}
}
