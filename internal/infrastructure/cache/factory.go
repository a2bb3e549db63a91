package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends bundles the Redis-or-memory components the server wires into
// the ledger services and the outbox handlers
type Backends struct {
	Idempotency shared.IdempotencyStore
	Cache       appledger.LedgerCache
	Locker      appledger.BatchLocker
	Distributed bool

	client  redis.UniversalClient
	closers []func()
}

// BackendsOption configures NewBackends
type BackendsOption func(*backendsOptions)

type backendsOptions struct {
	logger        *zap.Logger
	allowFallback bool
	pingTimeout   time.Duration
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) BackendsOption {
	return func(o *backendsOptions) { o.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// process memory instead of failing startup. Default true.
func WithInMemoryFallback(allow bool) BackendsOption {
	return func(o *backendsOptions) { o.allowFallback = allow }
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewBackends builds Redis-backed components when cfg.Host is set and
// reachable, otherwise in-memory ones.
func NewBackends(ctx context.Context, cfg config.RedisConfig, opts ...BackendsOption) (*Backends, error) {
	o := backendsOptions{logger: zap.NewNop(), allowFallback: true, pingTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Host == "" {
		o.logger.Info("Redis not configured, using in-memory cache, locks and idempotency")
		return NewInMemoryBackends(), nil
	}

	client, err := NewRedisClient(ctx, cfg, o.pingTimeout)
	if err != nil {
		if !o.allowFallback {
			return nil, err
		}
		o.logger.Warn("Redis unavailable, falling back to in-memory backends; "+
			"locks and idempotency are not shared between instances",
			zap.Error(err),
		)
		return NewInMemoryBackends(), nil
	}

	o.logger.Info("Using Redis for cache, locks and idempotency", zap.String("addr", cfg.Addr()))
	return NewRedisBackends(client), nil
}

// NewRedisBackends builds the distributed components on client
func NewRedisBackends(client redis.UniversalClient) *Backends {
	return &Backends{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Cache:       NewRedisLedgerCache(client, ""),
		Locker:      NewRedisBatchLocker(client),
		Distributed: true,
		client:      client,
	}
}

// NewInMemoryBackends builds the single-instance components
func NewInMemoryBackends() *Backends {
	idem := NewInMemoryIdempotencyStore()
	c := NewInMemoryLedgerCache()
	return &Backends{
		Idempotency: idem,
		Cache:       c,
		Locker:      NewLocalBatchLocker(),
		closers:     []func(){func() { _ = idem.Close() }, c.Close},
	}
}

// Ping checks the Redis connection; in-memory backends are always healthy
func (b *Backends) Ping(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Ping(ctx).Err()
}

// Close releases the Redis client or stops the in-memory sweepers
func (b *Backends) Close() error {
	for _, c := range b.closers {
		c()
	}
	if b.client == nil {
		return nil
	}
	if err := b.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
