package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/redis/go-redis/v9"
)

// RedisBatchLocker serializes recalculation passes across server instances
type RedisBatchLocker struct {
	client *redislock.Client
	prefix string
}

// NewRedisBatchLocker creates a locker on an existing client
func NewRedisBatchLocker(client redis.UniversalClient) *RedisBatchLocker {
	return &RedisBatchLocker{client: redislock.New(client), prefix: "lpg:lock:"}
}

// TryLock obtains key without retrying. A lock held elsewhere yields
// appledger.ErrLockNotAcquired.
func (l *RedisBatchLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, appledger.ErrLockNotAcquired
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}

// LocalBatchLocker is the single-instance locker. Release only removes the
// lock it obtained, so an expired and re-acquired lock is left alone.
type LocalBatchLocker struct {
	m *ttlMap
}

// NewLocalBatchLocker creates an in-process locker
func NewLocalBatchLocker() *LocalBatchLocker {
	return &LocalBatchLocker{m: newTTLMap(0)}
}

// TryLock obtains key for ttl without waiting
func (l *LocalBatchLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := []byte(uuid.NewString())
	if !l.m.setNX(key, token, ttl) {
		return nil, appledger.ErrLockNotAcquired
	}
	return func(context.Context) error {
		l.m.deleteIf(key, token)
		return nil
	}, nil
}

var (
	_ appledger.BatchLocker = (*RedisBatchLocker)(nil)
	_ appledger.BatchLocker = (*LocalBatchLocker)(nil)
)
