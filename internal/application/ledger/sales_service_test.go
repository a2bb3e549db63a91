package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSalesService_RecordSale(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	driver := f.retailDriver("Tunde")
	product := &ledger.Product{ID: uuid.New(), TenantID: f.tenantID, Name: "Total 12L", Company: "Total", Size: "12L", FullPrice: decimal.NewFromInt(100), Active: true}
	yesterday := record(f.tenantID, driver.ID, testNow.AddDate(0, 0, -1), "100", 1, "100", 1)

	sales := &memSaleRepository{}
	f.tx.repos.sales = sales
	f.products.On("FindByIDForTenant", mock.Anything, f.tenantID, product.ID).Return(product, nil)
	f.drivers.On("FindByIDForTenant", mock.Anything, f.tenantID, driver.ID).Return(driver, nil)
	f.records.On("FindByDriver", mock.Anything, f.tenantID, driver.ID).Return([]*ledger.ReceivableRecord{yesterday}, nil)
	saved := captureRecordSaves(f)

	result, err := NewSalesService(f.deps()).RecordSale(ctx, RecordSaleCommand{
		TenantID:           f.tenantID,
		DriverID:           driver.ID,
		ProductID:          product.ID,
		SaleDate:           testNow,
		SaleType:           ledger.SaleTypeRefill,
		Quantity:           2,
		TotalValue:         decimal.NewFromInt(1000),
		Discount:           decimal.NewFromInt(50),
		CashDeposited:      decimal.NewFromInt(600),
		CylindersDeposited: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.CylinderSize("12L"), result.Sale.Size)
	assert.Len(t, sales.sales, 1)
	require.Len(t, *saved, 1)
	today := (*saved)[0]
	assert.True(t, decimal.NewFromInt(350).Equal(today.CashReceivablesChange))
	assert.Equal(t, 1, today.CylinderReceivablesChange)
	assert.True(t, decimal.NewFromInt(450).Equal(today.TotalCashReceivables))
	assert.Equal(t, 2, today.TotalCylinderReceivables)
	assert.Equal(t, result.Record, today)
}

func TestSalesService_RecordSale_RejectsDriversOutsideLedger(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		driver func(f *ledgerFixture) *ledger.Driver
	}{
		{"shipment driver", func(f *ledgerFixture) *ledger.Driver {
			d, _ := ledger.NewDriver(f.tenantID, "Bulk Truck", ledger.DriverTypeShipment)
			return d
		}},
		{"inactive retail driver", func(f *ledgerFixture) *ledger.Driver {
			d := f.retailDriver("Tunde")
			d.Status = ledger.DriverStatusInactive
			return d
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			driver := tt.driver(f)
			product := &ledger.Product{ID: uuid.New(), TenantID: f.tenantID, Name: "Total 12L", Company: "Total", Size: "12L", FullPrice: decimal.NewFromInt(100), Active: true}
			sales := &memSaleRepository{}
			f.tx.repos.sales = sales
			f.products.On("FindByIDForTenant", mock.Anything, f.tenantID, product.ID).Return(product, nil)
			f.drivers.On("FindByIDForTenant", mock.Anything, f.tenantID, driver.ID).Return(driver, nil)

			_, err := NewSalesService(f.deps()).RecordSale(ctx, RecordSaleCommand{
				TenantID:      f.tenantID,
				DriverID:      driver.ID,
				ProductID:     product.ID,
				SaleDate:      testNow,
				SaleType:      ledger.SaleTypeRefill,
				Quantity:      1,
				TotalValue:    decimal.NewFromInt(100),
				CashDeposited: decimal.NewFromInt(100),
			})

			assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
			assert.Empty(t, sales.sales)
			f.records.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestSalesService_SyncDailyRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("re-aggregates the day from stored sales", func(t *testing.T) {
		f := newLedgerFixture()
		driver := f.retailDriver("Tunde")
		sale, err := ledger.NewSale(f.tenantID, ledger.SaleInput{
			DriverID:      driver.ID,
			Product:       &ledger.Product{ID: uuid.New(), TenantID: f.tenantID, Name: "Total 12L", Company: "Total", Size: "12L", FullPrice: decimal.NewFromInt(100), Active: true},
			SaleDate:      testNow,
			SaleType:      ledger.SaleTypeRefill,
			Quantity:      1,
			TotalValue:    decimal.NewFromInt(500),
			CashDeposited: decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		f.tx.repos.sales = &memSaleRepository{sales: []*ledger.Sale{sale}}
		f.drivers.On("FindByIDForTenant", mock.Anything, f.tenantID, driver.ID).Return(driver, nil)
		f.records.On("FindByDriver", mock.Anything, f.tenantID, driver.ID).Return([]*ledger.ReceivableRecord{}, nil)
		saved := captureRecordSaves(f)

		r, err := NewSalesService(f.deps()).SyncDailyRecord(ctx, f.tenantID, driver.ID, time.Time{})

		require.NoError(t, err)
		require.NotEmpty(t, *saved)
		assert.Equal(t, ledger.CalendarDay(testNow), r.Date)
		assert.True(t, decimal.NewFromInt(300).Equal(r.CashReceivablesChange))
	})

	t.Run("shipment driver is rejected", func(t *testing.T) {
		f := newLedgerFixture()
		driver, err := ledger.NewDriver(f.tenantID, "Bulk Truck", ledger.DriverTypeShipment)
		require.NoError(t, err)
		f.drivers.On("FindByIDForTenant", mock.Anything, f.tenantID, driver.ID).Return(driver, nil)

		_, err = NewSalesService(f.deps()).SyncDailyRecord(ctx, f.tenantID, driver.ID, testNow)

		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		f.records.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestSalesService_OnboardDriver(t *testing.T) {
	ctx := context.Background()

	t.Run("first record carries the baseline", func(t *testing.T) {
		f := newLedgerFixture()
		driver := f.retailDriver("Tunde")
		f.drivers.On("FindByIDForTenant", mock.Anything, f.tenantID, driver.ID).Return(driver, nil)
		f.records.On("FindByDriver", mock.Anything, f.tenantID, driver.ID).Return([]*ledger.ReceivableRecord{}, nil)
		saved := captureRecordSaves(f)
		audits := captureAudits(f)

		r, err := NewSalesService(f.deps()).OnboardDriver(ctx, OnboardDriverCommand{
			TenantID:  f.tenantID,
			ActorID:   f.actorID,
			DriverID:  driver.ID,
			Cash:      decimal.NewFromInt(5000),
			Cylinders: 3,
		})

		require.NoError(t, err)
		require.Len(t, *saved, 1)
		assert.True(t, decimal.NewFromInt(5000).Equal(r.TotalCashReceivables))
		assert.Equal(t, 3, r.TotalCylinderReceivables)
		assert.Equal(t, ledger.CalendarDay(testNow), r.Date)
		require.Len(t, *audits, 1)
		assert.Equal(t, ledger.AuditActionOnboardDriver, (*audits)[0].Action)
	})

	t.Run("driver with history is rejected", func(t *testing.T) {
		f := newLedgerFixture()
		driver := f.retailDriver("Tunde")
		f.drivers.On("FindByIDForTenant", mock.Anything, f.tenantID, driver.ID).Return(driver, nil)
		f.records.On("FindByDriver", mock.Anything, f.tenantID, driver.ID).Return([]*ledger.ReceivableRecord{
			record(f.tenantID, driver.ID, testNow, "0", 0, "0", 0),
		}, nil)

		_, err := NewSalesService(f.deps()).OnboardDriver(ctx, OnboardDriverCommand{TenantID: f.tenantID, DriverID: driver.ID, Cash: decimal.NewFromInt(10)})

		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		f.records.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("shipment driver is rejected", func(t *testing.T) {
		f := newLedgerFixture()
		driver, err := ledger.NewDriver(f.tenantID, "Bulk Truck", ledger.DriverTypeShipment)
		require.NoError(t, err)
		f.drivers.On("FindByIDForTenant", mock.Anything, f.tenantID, driver.ID).Return(driver, nil)

		_, err = NewSalesService(f.deps()).OnboardDriver(ctx, OnboardDriverCommand{TenantID: f.tenantID, DriverID: driver.ID, Cash: decimal.NewFromInt(10)})

		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		f.records.AssertNotCalled(t, "FindByDriver", mock.Anything, mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
