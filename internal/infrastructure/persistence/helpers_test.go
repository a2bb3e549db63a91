package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var day1 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.LedgerModels()...))
	return db
}

func seedDriver(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string, driverType ledger.DriverType) *ledger.Driver {
	t.Helper()
	d, err := ledger.NewDriver(tenantID, name, driverType)
	require.NoError(t, err)
	require.NoError(t, NewGormDriverRepository(db).Save(context.Background(), d))
	return d
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, size ledger.CylinderSize, price string) *ledger.Product {
	t.Helper()
	p := &ledger.Product{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "Refill " + string(size),
		Company:   "Pro Gas",
		Size:      size,
		FullPrice: decimal.RequireFromString(price),
		Active:    true,
	}
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func seedRecord(t *testing.T, db *gorm.DB, tenantID, driverID uuid.UUID, date time.Time, cash string, cylinders int) *ledger.ReceivableRecord {
	t.Helper()
	r := ledger.NewReceivableRecord(tenantID, driverID, date)
	r.CashReceivablesChange = decimal.RequireFromString(cash)
	r.CylinderReceivablesChange = cylinders
	r.TotalCashReceivables = r.CashReceivablesChange
	r.TotalCylinderReceivables = cylinders
	require.NoError(t, NewGormReceivableRecordRepository(db).Save(context.Background(), r))
	return r
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
