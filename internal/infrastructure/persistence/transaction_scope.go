package persistence

import (
	"context"
	"fmt"

	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements appledger.TransactionScope using GORM
// transactions. Events handed to PublishEvents are written to the outbox in
// the same transaction, so they exist exactly when the ledger change does.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs fn within a database transaction. Any error rolls back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (r *gormTransactionalRepositories) Records() ledger.ReceivableRecordRepository {
	return NewGormReceivableRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sales() ledger.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) CustomerReceivables() ledger.CustomerReceivableRepository {
	return NewGormCustomerReceivableRepository(r.tx)
}

func (r *gormTransactionalRepositories) Drivers() ledger.DriverRepository {
	return NewGormDriverRepository(r.tx)
}

func (r *gormTransactionalRepositories) AuditLogs() ledger.AuditLogRepository {
	return NewGormAuditLogRepository(r.tx)
}

// PublishEvents writes events to the outbox inside the transaction
func (r *gormTransactionalRepositories) PublishEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	if r.outbox == nil {
		return fmt.Errorf("no outbox configured for %d events", len(events))
	}
	return r.outbox.SaveEvents(ctx, r.tx, events...)
}

var (
	_ appledger.TransactionScope          = (*GormTransactionScope)(nil)
	_ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
