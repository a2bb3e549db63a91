package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionScope runs a unit of work in one database transaction. Every
// repository handed to fn shares that transaction; returning an error rolls
// all of it back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to one transaction
type TransactionalRepositories interface {
	Records() ledger.ReceivableRecordRepository
	Sales() ledger.SaleRepository
	CustomerReceivables() ledger.CustomerReceivableRepository
	Drivers() ledger.DriverRepository
	AuditLogs() ledger.AuditLogRepository
	// PublishEvents stores events in the outbox; they are delivered after commit
	PublishEvents(ctx context.Context, events ...shared.DomainEvent) error
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ReceivableNotification is what downstream channels receive when a
// customer or driver balance moves
type ReceivableNotification struct {
	TenantID     uuid.UUID                   `json:"tenant_id"`
	EventType    string                      `json:"event_type"`
	DriverID     uuid.UUID                   `json:"driver_id"`
	DriverName   string                      `json:"driver_name,omitempty"`
	CustomerName string                      `json:"customer_name,omitempty"`
	OldAmount    decimal.Decimal             `json:"old_amount"`
	NewAmount    decimal.Decimal             `json:"new_amount"`
	ChangeBySize map[ledger.CylinderSize]int `json:"change_by_size,omitempty"`
	Reason       string                      `json:"reason"`
	Timestamp    time.Time                   `json:"timestamp"`
}

// Notifier delivers receivable notifications
type Notifier interface {
	Notify(ctx context.Context, n ReceivableNotification) error
}

// LedgerCache is a tenant-partitioned read-through cache for derived
// reports. InvalidateTenant drops everything cached for the tenant.
type LedgerCache interface {
	Get(ctx context.Context, tenantID uuid.UUID, key string, dest any) (bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, key string, value any, ttl time.Duration) error
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

// ErrLockNotAcquired is returned by a BatchLocker when another holder owns the key
var ErrLockNotAcquired = errors.New("lock not acquired")

// BatchLocker serializes bulk passes across processes
type BatchLocker interface {
	// TryLock obtains key for ttl without waiting. The returned func releases it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// LedgerMetrics records business counters
type LedgerMetrics interface {
	PaymentRecorded(method ledger.PaymentMethod, amount decimal.Decimal)
	CylindersReturned(size ledger.CylinderSize, quantity int)
	RecalculationCompleted(scope string, stats RecalculationStats, elapsed time.Duration)
	DriverReconciled(changed bool)
}

// ChangesExporter renders the receivables-changes report
type ChangesExporter interface {
	ExportChanges(rows []ChangeRow) ([]byte, error)
}

// ArchiveStore keeps rendered reports in object storage
type ArchiveStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

type noopMetrics struct{}

func (noopMetrics) PaymentRecorded(ledger.PaymentMethod, decimal.Decimal)            {}
func (noopMetrics) CylindersReturned(ledger.CylinderSize, int)                       {}
func (noopMetrics) RecalculationCompleted(string, RecalculationStats, time.Duration) {}
func (noopMetrics) DriverReconciled(bool)                                            {}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID, string, any) (bool, error)        { return false, nil }
func (noopCache) Set(context.Context, uuid.UUID, string, any, time.Duration) error { return nil }
func (noopCache) InvalidateTenant(context.Context, uuid.UUID) error                { return nil }
