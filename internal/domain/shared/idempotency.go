package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so at-least-once delivery
// from the outbox does not produce duplicate side effects
type IdempotencyStore interface {
	// MarkProcessed returns true when the ID was newly recorded
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Release forgets the ID so a failed delivery can be retried
	Release(ctx context.Context, eventID string) error
	Close() error
}

// IdempotencyConfig configures idempotent event handling
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps processed IDs for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
