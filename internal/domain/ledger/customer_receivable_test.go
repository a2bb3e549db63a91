package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashReceivable(t *testing.T, amount string) *CustomerReceivable {
	t.Helper()
	cr, err := NewCustomerReceivable(uuid.New(), NewCustomerReceivableInput{
		DriverID: uuid.New(), CustomerName: "Warung Sari", Type: ReceivableTypeCash, Amount: dec(amount),
	})
	require.NoError(t, err)
	return cr
}

func cylinderReceivable(t *testing.T, qty int) *CustomerReceivable {
	t.Helper()
	cr, err := NewCustomerReceivable(uuid.New(), NewCustomerReceivableInput{
		DriverID: uuid.New(), CustomerName: "Hotel Melati", Type: ReceivableTypeCylinder, Quantity: qty, Size: "12L",
	})
	require.NoError(t, err)
	return cr
}

func TestApplyPayment_FullPaymentSettles(t *testing.T) {
	cr := cashReceivable(t, "500")
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	ev, err := cr.ApplyPayment(PaymentInput{Amount: dec("500"), Method: PaymentMethodCash, At: at, DriverName: "Budi"})
	require.NoError(t, err)

	assert.True(t, cr.Amount.IsZero())
	assert.Equal(t, ReceivableStatusPaid, cr.Status)
	require.NotNil(t, cr.PaidAt)
	assert.Equal(t, at, *cr.PaidAt)
	assert.Equal(t, 2, cr.Version)
	assert.True(t, ev.BalanceBefore.Equal(dec("500")))
	assert.True(t, ev.BalanceAfter.IsZero())

	require.Len(t, cr.GetDomainEvents(), 1)
	event, ok := cr.GetDomainEvents()[0].(*CustomerPaymentRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, "Budi", event.DriverName)
	assert.True(t, event.OldAmount.Equal(dec("500")))
	assert.Equal(t, ReceivableStatusPaid, event.Status)
}

func TestApplyPayment_PartialPaymentKeepsStatus(t *testing.T) {
	cr := cashReceivable(t, "500")
	_, err := cr.ApplyPayment(PaymentInput{Amount: dec("499.99"), Method: PaymentMethodBankTransfer, At: time.Now()})
	require.NoError(t, err)
	assert.True(t, cr.Amount.Equal(dec("0.01")))
	assert.Equal(t, ReceivableStatusCurrent, cr.Status)
	assert.Nil(t, cr.PaidAt)
}

func TestApplyPayment_Rejections(t *testing.T) {
	tests := []struct {
		name string
		cr   func(t *testing.T) *CustomerReceivable
		in   PaymentInput
	}{
		{"exceeds outstanding", func(t *testing.T) *CustomerReceivable { return cashReceivable(t, "500") }, PaymentInput{Amount: dec("500.01"), Method: PaymentMethodCash}},
		{"zero amount", func(t *testing.T) *CustomerReceivable { return cashReceivable(t, "500") }, PaymentInput{Amount: dec("0"), Method: PaymentMethodCash}},
		{"negative amount", func(t *testing.T) *CustomerReceivable { return cashReceivable(t, "500") }, PaymentInput{Amount: dec("-5"), Method: PaymentMethodCash}},
		{"unknown method", func(t *testing.T) *CustomerReceivable { return cashReceivable(t, "500") }, PaymentInput{Amount: dec("5"), Method: "BARTER"}},
		{"cylinder receivable", func(t *testing.T) *CustomerReceivable { return cylinderReceivable(t, 3) }, PaymentInput{Amount: dec("5"), Method: PaymentMethodCash}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr := tt.cr(t)
			beforeAmount, beforeQty, beforeVersion := cr.Amount, cr.Quantity, cr.Version

			_, err := cr.ApplyPayment(tt.in)
			require.Error(t, err)
			assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
			assert.True(t, cr.Amount.Equal(beforeAmount))
			assert.Equal(t, beforeQty, cr.Quantity)
			assert.Equal(t, beforeVersion, cr.Version)
			assert.Empty(t, cr.GetDomainEvents())
		})
	}
}

func TestApplyCylinderReturn(t *testing.T) {
	t.Run("partial return keeps status", func(t *testing.T) {
		cr := cylinderReceivable(t, 3)
		ev, err := cr.ApplyCylinderReturn(ReturnInput{Quantity: 2, At: time.Now()})
		require.NoError(t, err)
		assert.Equal(t, 1, cr.Quantity)
		assert.Equal(t, ReceivableStatusCurrent, cr.Status)
		assert.Equal(t, 3, ev.QuantityBefore)
		assert.Equal(t, 1, ev.QuantityAfter)
		assert.Equal(t, CylinderSize("12L"), ev.Size)
	})

	t.Run("full return settles", func(t *testing.T) {
		cr := cylinderReceivable(t, 3)
		_, err := cr.ApplyCylinderReturn(ReturnInput{Quantity: 3, At: time.Now()})
		require.NoError(t, err)
		assert.Zero(t, cr.Quantity)
		assert.Equal(t, ReceivableStatusPaid, cr.Status)
	})

	t.Run("exceeding return is rejected", func(t *testing.T) {
		cr := cylinderReceivable(t, 3)
		_, err := cr.ApplyCylinderReturn(ReturnInput{Quantity: 4, At: time.Now()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds outstanding quantity 3")
		assert.Equal(t, 3, cr.Quantity)
	})

	t.Run("cash receivable is rejected", func(t *testing.T) {
		cr := cashReceivable(t, "10")
		_, err := cr.ApplyCylinderReturn(ReturnInput{Quantity: 1, At: time.Now()})
		assert.Error(t, err)
	})
}

func TestRefreshAgingStatus(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	window := 72 * time.Hour

	due := func(d time.Duration) *CustomerReceivable {
		cr := cashReceivable(t, "100")
		at := now.Add(d)
		cr.DueDate = &at
		return cr
	}

	cr := due(10 * 24 * time.Hour)
	assert.False(t, cr.RefreshAgingStatus(now, window))
	assert.Equal(t, ReceivableStatusCurrent, cr.Status)

	cr = due(48 * time.Hour)
	assert.True(t, cr.RefreshAgingStatus(now, window))
	assert.Equal(t, ReceivableStatusDueSoon, cr.Status)

	cr = due(-time.Hour)
	assert.True(t, cr.RefreshAgingStatus(now, window))
	assert.Equal(t, ReceivableStatusOverdue, cr.Status)

	cr.Status = ReceivableStatusPaid
	assert.False(t, cr.RefreshAgingStatus(now, window))
	assert.Equal(t, ReceivableStatusPaid, cr.Status)
}

func TestNewCustomerReceivableValidation(t *testing.T) {
	_, err := NewCustomerReceivable(uuid.New(), NewCustomerReceivableInput{DriverID: uuid.New(), CustomerName: "A", Type: ReceivableTypeCylinder, Quantity: 2})
	assert.Error(t, err, "cylinder debts need a size")

	_, err = NewCustomerReceivable(uuid.New(), NewCustomerReceivableInput{DriverID: uuid.New(), CustomerName: "A", Type: ReceivableTypeCash})
	assert.Error(t, err, "cash debts need a positive amount")

	_, err = NewCustomerReceivable(uuid.New(), NewCustomerReceivableInput{DriverID: uuid.New(), Type: ReceivableTypeCash, Amount: dec("1")})
	assert.Error(t, err, "customer name is required")
}

func TestSummarizeOutstanding(t *testing.T) {
	a := cashReceivable(t, "100")
	b := cashReceivable(t, "50.5")
	c := cylinderReceivable(t, 3)
	paid := cashReceivable(t, "10")
	_, err := paid.ApplyPayment(PaymentInput{Amount: dec("10"), Method: PaymentMethodCash, At: time.Now()})
	require.NoError(t, err)

	sum := SummarizeOutstanding([]*CustomerReceivable{a, b, c, paid})
	assert.True(t, sum.Cash.Equal(dec("150.5")))
	assert.Equal(t, 3, sum.Cylinders)
	assert.Equal(t, 3, sum.CylindersBySize["12L"])
	assert.Equal(t, 3, sum.Count)
}

func TestDriverEligibility(t *testing.T) {
	d, err := NewDriver(uuid.New(), "Budi", DriverTypeRetail)
	require.NoError(t, err)
	assert.NoError(t, d.EnsureLedgerEligible())

	d.Status = DriverStatusInactive
	assert.Error(t, d.EnsureLedgerEligible())

	s, err := NewDriver(uuid.New(), "Andi", DriverTypeShipment)
	require.NoError(t, err)
	assert.False(t, s.ParticipatesInLedger())
}
