package bootstrap

import (
	"testing"
	"time"

	"github.com/lpgledger/backend/internal/infrastructure/cache"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/lpgledger/backend/internal/infrastructure/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLedgerSettings(t *testing.T) {
	s := LedgerSettings(config.LedgerConfig{
		CashTolerance:           0.5,
		EmptyCylinderPriceRatio: 0.3,
		DueSoonWindow:           48 * time.Hour,
		BreakdownCacheTTL:       time.Minute,
		RecalculationLockTTL:    2 * time.Minute,
		DefaultRecalculateDays:  14,
	})

	assert.Equal(t, "0.5", s.CashTolerance.String())
	assert.Equal(t, "0.3", s.EmptyPriceRatio.String())
	assert.Equal(t, 48*time.Hour, s.DueSoonWindow)
	assert.Equal(t, time.Minute, s.CacheTTL)
	assert.Equal(t, 2*time.Minute, s.RecalculationLockTTL)
	assert.Equal(t, 14, s.DefaultDays)
}

func TestLedgerDependencies(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	backends := cache.NewInMemoryBackends()
	t.Cleanup(func() { _ = backends.Close() })

	outbox := event.NewOutboxPublisher(event.NewLedgerEventSerializer())
	deps := LedgerDependencies(db, outbox, backends, nil, config.LedgerConfig{DefaultRecalculateDays: 7}, zap.NewNop())

	assert.NotNil(t, deps.TxScope)
	assert.NotNil(t, deps.Records)
	assert.NotNil(t, deps.Sales)
	assert.NotNil(t, deps.Receivables)
	assert.NotNil(t, deps.Drivers)
	assert.NotNil(t, deps.Products)
	assert.NotNil(t, deps.Inventory)
	assert.NotNil(t, deps.AuditLogs)
	assert.NotNil(t, deps.Exporter)
	assert.Same(t, backends.Cache, deps.Cache)
	assert.Same(t, backends.Locker, deps.Locker)
	assert.Nil(t, deps.Metrics)
	assert.Equal(t, 7, deps.Settings.DefaultDays)

	services := NewLedgerServices(deps)
	assert.NotNil(t, services.Ledger)
	assert.NotNil(t, services.Recalculation)
	assert.NotNil(t, services.Sales)
	assert.NotNil(t, services.Breakdown)
	assert.NotNil(t, services.Valuation)
	assert.NotNil(t, services.Reports)
}

func TestLedgerDependencies_WithoutBackends(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	deps := LedgerDependencies(db, nil, nil, nil, config.LedgerConfig{}, zap.NewNop())
	assert.Nil(t, deps.Cache)
	assert.Nil(t, deps.Locker)
}
