package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/redis/go-redis/v9"
)

const defaultLedgerCachePrefix = "lpg:ledger:"

// RedisLedgerCache stores derived ledger reports in Redis, JSON encoded.
// Keys embed a per-tenant generation number; InvalidateTenant bumps the
// generation so every older key becomes unreachable and ages out by TTL.
type RedisLedgerCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLedgerCache creates a cache on an existing client
func NewRedisLedgerCache(client redis.UniversalClient, prefix string) *RedisLedgerCache {
	if prefix == "" {
		prefix = defaultLedgerCachePrefix
	}
	return &RedisLedgerCache{client: client, prefix: prefix}
}

func (c *RedisLedgerCache) generationKey(tenantID uuid.UUID) string {
	return c.prefix + tenantID.String() + ":gen"
}

func (c *RedisLedgerCache) dataKey(ctx context.Context, tenantID uuid.UUID, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey(tenantID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read cache generation: %w", err)
	}
	return fmt.Sprintf("%s%s:%d:%s", c.prefix, tenantID, gen, key), nil
}

// Get decodes the cached value into dest and reports whether it was found
func (c *RedisLedgerCache) Get(ctx context.Context, tenantID uuid.UUID, key string, dest any) (bool, error) {
	k, err := c.dataKey(ctx, tenantID, key)
	if err != nil {
		return false, err
	}
	raw, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under the tenant's current generation
func (c *RedisLedgerCache) Set(ctx context.Context, tenantID uuid.UUID, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	k, err := c.dataKey(ctx, tenantID, key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, k, raw, ttl).Err()
}

// InvalidateTenant moves the tenant to a new generation
func (c *RedisLedgerCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Incr(ctx, c.generationKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("invalidate tenant cache: %w", err)
	}
	return nil
}

// InMemoryLedgerCache is the single-instance ledger cache
type InMemoryLedgerCache struct {
	m *ttlMap
}

// NewInMemoryLedgerCache creates a cache that sweeps expired reports every minute
func NewInMemoryLedgerCache() *InMemoryLedgerCache {
	return &InMemoryLedgerCache{m: newTTLMap(time.Minute)}
}

// Get decodes the cached value into dest and reports whether it was found
func (c *InMemoryLedgerCache) Get(_ context.Context, tenantID uuid.UUID, key string, dest any) (bool, error) {
	raw, ok := c.m.get(tenantID.String() + ":" + key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores a JSON copy of value, so later mutation of value is not visible
func (c *InMemoryLedgerCache) Set(_ context.Context, tenantID uuid.UUID, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	c.m.set(tenantID.String()+":"+key, raw, ttl)
	return nil
}

// InvalidateTenant drops every entry of the tenant
func (c *InMemoryLedgerCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) error {
	c.m.deletePrefix(tenantID.String() + ":")
	return nil
}

// Close stops the sweeper
func (c *InMemoryLedgerCache) Close() {
	c.m.close()
}

var (
	_ appledger.LedgerCache = (*RedisLedgerCache)(nil)
	_ appledger.LedgerCache = (*InMemoryLedgerCache)(nil)
)
