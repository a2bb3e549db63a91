package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newValuationFixture() *ledgerFixture {
	f := newLedgerFixture()
	day := ledger.CalendarDay(testNow)
	d1, d2 := f.retailDriver("Ade"), f.retailDriver("Bola")
	cheap := &ledger.Product{ID: uuid.New(), TenantID: f.tenantID, Name: "Total 12L", Company: "Total", Size: "12L", FullPrice: decimal.NewFromInt(100), Active: true}
	dear := &ledger.Product{ID: uuid.New(), TenantID: f.tenantID, Name: "Oando 12L", Company: "Oando", Size: "12L", FullPrice: decimal.NewFromInt(120), Active: true}
	deposit := &ledger.Product{ID: uuid.New(), TenantID: f.tenantID, Name: "Deposit", Size: ledger.Unsized, FullPrice: decimal.NewFromInt(5), Active: true}

	f.drivers.On("FindAll", mock.Anything, ledger.LedgerDrivers(f.tenantID)).Return([]*ledger.Driver{d1, d2}, nil)
	f.records.On("FindLatestForDrivers", mock.Anything, f.tenantID, mock.Anything, day).Return(map[uuid.UUID]*ledger.ReceivableRecord{
		d1.ID: record(f.tenantID, d1.ID, day, "0", 0, "300", 5),
		d2.ID: record(f.tenantID, d2.ID, day, "0", 0, "200", 9),
	}, nil)
	f.inventory.On("FindLatest", mock.Anything, f.tenantID, day).Return(&ledger.InventoryRecord{
		TenantID:       f.tenantID,
		Date:           day,
		FullCylinders:  10,
		EmptyCylinders: 4,
		Lines:          []ledger.InventorySizeLine{{Size: "12L", Full: 10, Empty: 4}},
	}, nil)
	f.products.On("FindActive", mock.Anything, f.tenantID).Return([]*ledger.Product{cheap, dear, deposit}, nil)
	f.sales.On("QuantityByProduct", mock.Anything, f.tenantID, day).Return(map[uuid.UUID]int{cheap.ID: 30, dear.ID: 10, deposit.ID: 99}, nil)
	return f
}

func lineFor(v ledger.AssetValuation, cat ledger.AssetCategory) ledger.AssetLine {
	for _, l := range v.Lines {
		if l.Category == cat {
			return l
		}
	}
	return ledger.AssetLine{}
}

func TestAssetValuationService_ValueAssets(t *testing.T) {
	ctx := context.Background()

	t.Run("weighted prices and cylinder receivables excluded", func(t *testing.T) {
		f := newValuationFixture()

		v, err := NewAssetValuationService(f.deps()).ValueAssets(ctx, ValuationQuery{TenantID: f.tenantID})

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(500).Equal(lineFor(v, ledger.AssetCashReceivables).Value))
		full := lineFor(v, ledger.AssetFullCylinders)
		assert.True(t, decimal.NewFromInt(105).Equal(full.UnitPrice), full.UnitPrice.String())
		assert.Equal(t, 10, full.Quantity)
		empty := lineFor(v, ledger.AssetEmptyCylinders)
		assert.True(t, decimal.NewFromInt(21).Equal(empty.UnitPrice), empty.UnitPrice.String())
		assert.True(t, decimal.NewFromInt(1634).Equal(v.Total), v.Total.String())
		assert.Len(t, v.Lines, 3)
	})

	t.Run("overrides bypass the cache", func(t *testing.T) {
		f := newValuationFixture()
		deps := f.deps()
		cache := newMemCache()
		deps.Cache = cache
		svc := NewAssetValuationService(deps)

		v, err := svc.ValueAssets(ctx, ValuationQuery{
			TenantID:       f.tenantID,
			AsOf:           testNow,
			PriceOverrides: map[ledger.CylinderSize]decimal.Decimal{"12L": decimal.NewFromInt(200)},
		})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(500+2000+160).Equal(v.Total), v.Total.String())
		assert.Empty(t, cache.entries)
		assert.Zero(t, cache.gets)

		_, err = svc.ValueAssets(ctx, ValuationQuery{TenantID: f.tenantID, AsOf: testNow})
		require.NoError(t, err)
		_, err = svc.ValueAssets(ctx, ValuationQuery{TenantID: f.tenantID, AsOf: testNow})
		require.NoError(t, err)
		assert.Len(t, cache.entries, 1)
		f.inventory.AssertNumberOfCalls(t, "FindLatest", 2)
	})
}
