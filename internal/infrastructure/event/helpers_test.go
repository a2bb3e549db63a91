package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func paymentEvent(tenantID uuid.UUID) *ledger.CustomerPaymentRecordedEvent {
	receivableID := uuid.New()
	return &ledger.CustomerPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeCustomerPaymentRecorded,
			ledger.AggregateTypeCustomerReceivable, receivableID, tenantID),
		ReceivableID:   receivableID,
		PaymentEventID: uuid.New(),
		DriverID:       uuid.New(),
		CustomerName:   "Mama Njeri Kiosk",
		Amount:         decimal.RequireFromString("500"),
		Method:         ledger.PaymentMethodCash,
		OldAmount:      decimal.RequireFromString("500"),
		NewAmount:      decimal.Zero,
		Status:         ledger.ReceivableStatusPaid,
	}
}

func driverChangedEvent(tenantID uuid.UUID) *ledger.DriverReceivablesChangedEvent {
	driverID := uuid.New()
	return &ledger.DriverReceivablesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeDriverReceivablesChanged,
			ledger.AggregateTypeDriverLedger, driverID, tenantID),
		DriverID:     driverID,
		DriverName:   "Otieno",
		Date:         time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		OldCash:      decimal.RequireFromString("5000"),
		NewCash:      decimal.RequireFromString("4800"),
		OldCylinders: 3,
		NewCylinders: 4,
		ChangeBySize: map[ledger.CylinderSize]int{"12L": 1},
		Reason:       "reconciled",
	}
}

// recordingHandler captures handled events
type recordingHandler struct {
	types []string
	err   error

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) events() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func newOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.OutboxEntryModel{}))
	return db
}
