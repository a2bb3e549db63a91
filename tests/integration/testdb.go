// Package integration runs the ledger against a real PostgreSQL started with
// testcontainers and migrated with golang-migrate.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/migration"
	"github.com/lpgledger/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const postgresImage = "postgres:16-alpine"

// TestDB is a migrated ledger database in its own container
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	t         *testing.T
}

// NewTestDB starts PostgreSQL, applies migrations/ and registers teardown.
// Each caller gets a fresh container so tenants never leak between tests.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase("lpg_ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("ledger-test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	tdb := &TestDB{Container: container, t: t}
	t.Cleanup(tdb.Close)

	tdb.DB, tdb.SqlDB = openLedgerDB(t, dsn)
	migrateLedgerSchema(t, tdb.SqlDB)
	return tdb
}

// Close drops the connection pool and the container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("terminate postgres container: %v", err)
		}
	}
}

func openLedgerDB(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	level := logger.Silent
	if os.Getenv("LPG_TEST_DB_DEBUG") != "" {
		level = logger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(level)})
	require.NoError(t, err, "connect to postgres")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	return db, sqlDB
}

// migrateLedgerSchema runs the checked-in migrations through the same
// Migrator the migrate CLI uses.
func migrateLedgerSchema(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	dir := migrationsDir()
	require.NotEmpty(t, dir, "migrations directory not found")

	m, err := migration.New(sqlDB, dir, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
}

func migrationsDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	for dir := filepath.Dir(file); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

// SeedDriver stores an active driver of the given type
func (tdb *TestDB) SeedDriver(tenantID uuid.UUID, name string, driverType ledger.DriverType) *ledger.Driver {
	tdb.t.Helper()

	driver, err := ledger.NewDriver(tenantID, name, driverType)
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormDriverRepository(tdb.DB).Save(context.Background(), driver))
	return driver
}

// SeedProduct stores an active cylinder product
func (tdb *TestDB) SeedProduct(tenantID uuid.UUID, size ledger.CylinderSize, fullPrice string) *ledger.Product {
	tdb.t.Helper()

	product := &ledger.Product{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      fmt.Sprintf("Gas %s", size),
		Company:   "Test Gas Co",
		Size:      size,
		FullPrice: decimal.RequireFromString(fullPrice),
		Active:    true,
	}
	require.NoError(tdb.t, persistence.NewGormProductRepository(tdb.DB).Save(context.Background(), product))
	return product
}

// CountRows counts the rows of table matching where
func (tdb *TestDB) CountRows(table, where string, args ...any) int64 {
	tdb.t.Helper()

	var n int64
	require.NoError(tdb.t, tdb.DB.Table(table).Where(where, args...).Count(&n).Error)
	return n
}
