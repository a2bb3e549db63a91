package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormReceivableRecordRepository_SaveUpsertsOnDriverDay(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewGormReceivableRecordRepository(db)
	ctx := context.Background()
	tenantID, driverID := uuid.New(), uuid.New()

	first := seedRecord(t, db, tenantID, driverID, day1.Add(9*time.Hour), "100", 2)

	// A second writer builds its own row for the same day.
	second := ledger.NewReceivableRecord(tenantID, driverID, day1.Add(15*time.Hour))
	second.CashReceivablesChange = decimal.NewFromInt(150)
	second.TotalCashReceivables = decimal.NewFromInt(150)
	require.NoError(t, repo.Save(ctx, second))

	assert.Equal(t, first.ID, second.ID, "stored row keeps its id")
	history, err := repo.FindByDriver(ctx, tenantID, driverID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].TotalCashReceivables.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, day1, history[0].Date.UTC())
}

func TestGormReceivableRecordRepository_SaveOnboardingRecord(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewGormReceivableRecordRepository(db)
	ctx := context.Background()
	tenantID, driverID := uuid.New(), uuid.New()

	record, err := ledger.NewOnboardingRecord(tenantID, driverID, day1, decimal.NewFromInt(5000), 3)
	require.NoError(t, err)
	proposedID := record.ID

	require.NoError(t, repo.Save(ctx, record))
	assert.Equal(t, proposedID, record.ID, "a fresh row keeps the domain id")

	stored, err := repo.FindByDriverAndDate(ctx, tenantID, driverID, day1)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)
	assert.True(t, stored.TotalCashReceivables.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, 3, stored.TotalCylinderReceivables)
}

func TestGormReceivableRecordRepository_Queries(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewGormReceivableRecordRepository(db)
	ctx := context.Background()
	tenantID, otherTenant := uuid.New(), uuid.New()
	d1, d2 := uuid.New(), uuid.New()

	seedRecord(t, db, tenantID, d1, day1.AddDate(0, 0, 2), "30", 0)
	seedRecord(t, db, tenantID, d1, day1, "10", 1)
	seedRecord(t, db, tenantID, d1, day1.AddDate(0, 0, 5), "50", 0)
	seedRecord(t, db, tenantID, d2, day1.AddDate(0, 0, 1), "70", 3)
	seedRecord(t, db, otherTenant, d1, day1, "999", 9)

	t.Run("history is ascending and tenant scoped", func(t *testing.T) {
		history, err := repo.FindByDriver(ctx, tenantID, d1)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, day1, history[0].Date.UTC())
		assert.Equal(t, day1.AddDate(0, 0, 5), history[2].Date.UTC())
	})

	t.Run("latest per driver as of a date", func(t *testing.T) {
		latest, err := repo.FindLatestForDrivers(ctx, tenantID, nil, day1.AddDate(0, 0, 3))
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.True(t, latest[d1].TotalCashReceivables.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, 3, latest[d2].TotalCylinderReceivables)

		only, err := repo.FindLatestForDrivers(ctx, tenantID, []uuid.UUID{d2}, day1.AddDate(0, 0, 10))
		require.NoError(t, err)
		assert.Len(t, only, 1)
	})

	t.Run("drivers with recent records", func(t *testing.T) {
		ids, err := repo.DriversWithRecordsSince(ctx, tenantID, day1.AddDate(0, 0, 3))
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{d1}, ids)
	})

	t.Run("tenants", func(t *testing.T) {
		ids, err := repo.ListTenantIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{tenantID, otherTenant}, ids)
	})

	t.Run("paged listing", func(t *testing.T) {
		from := day1.AddDate(0, 0, 1)
		page, total, err := repo.FindAll(ctx, ledger.ReceivableRecordFilter{
			TenantID: tenantID,
			DateFrom: &from,
			Page:     shared.PageRequest{Page: 1, PageSize: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, page, 2)
		assert.Equal(t, day1.AddDate(0, 0, 5), page[0].Date.UTC())
	})
}

func TestGormReceivableRecordRepository_UpdateTotals(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewGormReceivableRecordRepository(db)
	ctx := context.Background()
	tenantID, driverID := uuid.New(), uuid.New()

	r := seedRecord(t, db, tenantID, driverID, day1, "10", 1)
	r.SetTotals(decimal.NewFromInt(40), 4, day1.Add(time.Hour))
	require.NoError(t, repo.UpdateTotals(ctx, r))

	got, err := repo.FindByDriverAndDate(ctx, tenantID, driverID, day1.Add(20*time.Hour))
	require.NoError(t, err)
	assert.True(t, got.TotalCashReceivables.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 4, got.TotalCylinderReceivables)
	assert.True(t, got.CashReceivablesChange.Equal(decimal.NewFromInt(10)), "deltas untouched")
	require.NotNil(t, got.CalculatedAt)

	r.TenantID = uuid.New()
	assert.ErrorIs(t, repo.UpdateTotals(ctx, r), shared.ErrNotFound)

	_, err = repo.FindByDriverAndDate(ctx, tenantID, driverID, day1.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
