package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/event"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_RollsBackEverything(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	driver := seedDriver(t, db, tenantID, "Otieno", ledger.DriverTypeRetail)
	scope := NewGormTransactionScope(db, event.NewOutboxPublisher(event.NewLedgerEventSerializer()))

	cr := openCash(t, tenantID, driver.ID, "Mama Njeri", "500")
	boom := errors.New("audit store unavailable")
	err := scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		require.NoError(t, repos.CustomerReceivables().Save(ctx, cr))
		payment, err := cr.ApplyPayment(ledger.PaymentInput{Amount: decimal.NewFromInt(500), Method: ledger.PaymentMethodCash, At: day1})
		require.NoError(t, err)
		require.NoError(t, repos.CustomerReceivables().Save(ctx, cr))
		require.NoError(t, repos.CustomerReceivables().SavePaymentEvent(ctx, payment))
		require.NoError(t, repos.PublishEvents(ctx, cr.GetDomainEvents()...))
		return boom
	})
	require.ErrorIs(t, err, boom)

	var receivables, payments, outbox int64
	require.NoError(t, db.Model(&models.CustomerReceivableModel{}).Count(&receivables).Error)
	require.NoError(t, db.Model(&models.CustomerPaymentEventModel{}).Count(&payments).Error)
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&outbox).Error)
	assert.Zero(t, receivables)
	assert.Zero(t, payments)
	assert.Zero(t, outbox)
}

func TestGormTransactionScope_PublishEvents(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	driver := seedDriver(t, db, tenantID, "Otieno", ledger.DriverTypeRetail)

	cr := openCash(t, tenantID, driver.ID, "Mama Njeri", "500")
	_, err := cr.ApplyPayment(ledger.PaymentInput{Amount: decimal.NewFromInt(100), Method: ledger.PaymentMethodCash, At: day1})
	require.NoError(t, err)

	t.Run("without an outbox", func(t *testing.T) {
		err := NewGormTransactionScope(db, nil).Execute(ctx, func(repos appledger.TransactionalRepositories) error {
			return repos.PublishEvents(ctx, cr.GetDomainEvents()...)
		})
		assert.ErrorContains(t, err, "no outbox configured")
	})

	t.Run("commits with the transaction", func(t *testing.T) {
		scope := NewGormTransactionScope(db, event.NewOutboxPublisher(event.NewLedgerEventSerializer()))
		require.NoError(t, scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
			return repos.PublishEvents(ctx, cr.GetDomainEvents()...)
		}))

		var rows []models.OutboxEntryModel
		require.NoError(t, db.Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, ledger.EventTypeCustomerPaymentRecorded, rows[0].EventType)
		assert.Equal(t, shared.OutboxStatusPending, rows[0].Status)
	})
}
