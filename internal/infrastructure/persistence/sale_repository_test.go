package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSaleRepository(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewGormSaleRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	driver := seedDriver(t, db, tenantID, "Otieno", ledger.DriverTypeRetail)
	p12 := seedProduct(t, db, tenantID, "12L", "1500")
	p35 := seedProduct(t, db, tenantID, "35L", "4200")

	newSale := func(p *ledger.Product, date time.Time, qty int, cash string, cylinders int) *ledger.Sale {
		s, err := ledger.NewSale(tenantID, ledger.SaleInput{
			DriverID:           driver.ID,
			Product:            p,
			SaleDate:           date,
			SaleType:           ledger.SaleTypeRefill,
			Quantity:           qty,
			TotalValue:         p.FullPrice.Mul(decimal.NewFromInt(int64(qty))),
			CashDeposited:      decimal.RequireFromString(cash),
			CylindersDeposited: cylinders,
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, s))
		return s
	}

	newSale(p12, day1.Add(8*time.Hour), 2, "3000", 2)
	newSale(p35, day1.Add(17*time.Hour), 1, "4000", 0)
	newSale(p12, day1.AddDate(0, 0, 1), 3, "4500", 3)

	t.Run("sales of one calendar day", func(t *testing.T) {
		sales, err := repo.FindByDriverAndDate(ctx, tenantID, driver.ID, day1.Add(12*time.Hour))
		require.NoError(t, err)
		require.Len(t, sales, 2)
		change := ledger.AggregateSales(sales)
		assert.Equal(t, 2, change.SaleCount)
	})

	t.Run("quantity by product", func(t *testing.T) {
		qty, err := repo.QuantityByProduct(ctx, tenantID, day1)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int{p12.ID: 2, p35.ID: 1}, qty)
	})

	t.Run("filtered listing", func(t *testing.T) {
		to := day1
		sales, err := repo.FindAll(ctx, ledger.SaleFilter{TenantID: tenantID, DateTo: &to, MinCylindersDeposited: 1})
		require.NoError(t, err)
		require.Len(t, sales, 1)
		assert.Equal(t, ledger.CylinderSize("12L"), sales[0].Size)
	})

	t.Run("deposit sale is found by day and size", func(t *testing.T) {
		none, err := repo.FindDepositSale(ctx, tenantID, driver.ID, day1, ledger.Unsized)
		require.NoError(t, err)
		assert.Nil(t, none)

		deposit := ledger.NewSyntheticDepositSale(tenantID, driver.ID, day1.Add(10*time.Hour), "12L")
		deposit.AddCylinderDeposit(2, day1)
		require.NoError(t, repo.Save(ctx, deposit))

		found, err := repo.FindDepositSale(ctx, tenantID, driver.ID, day1.Add(23*time.Hour), "12L")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, deposit.ID, found.ID)
		assert.Equal(t, 2, found.CylindersDeposited)
		assert.Equal(t, 0, found.Quantity)

		other, err := repo.FindDepositSale(ctx, tenantID, driver.ID, day1, "35L")
		require.NoError(t, err)
		assert.Nil(t, other)

		depositOnly := true
		deposits, err := repo.FindAll(ctx, ledger.SaleFilter{TenantID: tenantID, DepositOnly: &depositOnly})
		require.NoError(t, err)
		assert.Len(t, deposits, 1)
	})
}
