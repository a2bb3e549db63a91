package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceivableRecord is a driver's ledger row for one calendar day. Storage keeps
// at most one row per (tenant, driver, date).
type ReceivableRecord struct {
	shared.BaseEntity
	TenantID uuid.UUID
	DriverID uuid.UUID
	Date     time.Time

	CashReceivablesChange     decimal.Decimal
	CylinderReceivablesChange int

	OnboardingCashReceivables     decimal.Decimal
	OnboardingCylinderReceivables int

	TotalCashReceivables     decimal.Decimal
	TotalCylinderReceivables int

	CalculatedAt *time.Time
}

// NewReceivableRecord creates an empty record for the driver's day
func NewReceivableRecord(tenantID, driverID uuid.UUID, date time.Time) *ReceivableRecord {
	return &ReceivableRecord{
		BaseEntity:                shared.NewBaseEntity(),
		TenantID:                  tenantID,
		DriverID:                  driverID,
		Date:                      CalendarDay(date),
		CashReceivablesChange:     decimal.Zero,
		OnboardingCashReceivables: decimal.Zero,
		TotalCashReceivables:      decimal.Zero,
	}
}

// NewOnboardingRecord creates a driver's first record carrying pre-system debt
func NewOnboardingRecord(tenantID, driverID uuid.UUID, date time.Time, cash decimal.Decimal, cylinders int) (*ReceivableRecord, error) {
	if cash.IsNegative() || cylinders < 0 {
		return nil, NewValidationError("onboarding balances cannot be negative")
	}
	r := NewReceivableRecord(tenantID, driverID, date)
	r.OnboardingCashReceivables = cash
	r.OnboardingCylinderReceivables = cylinders
	r.TotalCashReceivables = cash
	r.TotalCylinderReceivables = cylinders
	return r, nil
}

// ApplyDailyChange replaces the day's deltas with a fresh aggregation.
// Totals are left for the running-total walk to recompute.
func (r *ReceivableRecord) ApplyDailyChange(change DailyChange) {
	r.CashReceivablesChange = change.Cash
	r.CylinderReceivablesChange = change.Cylinders
}

// ExpectedTotals returns change + onboarding + carry
func (r *ReceivableRecord) ExpectedTotals(carryCash decimal.Decimal, carryCylinders int) (decimal.Decimal, int) {
	cash := r.CashReceivablesChange.Add(r.OnboardingCashReceivables).Add(carryCash)
	cylinders := r.CylinderReceivablesChange + r.OnboardingCylinderReceivables + carryCylinders
	return cash, cylinders
}

// SetTotals stores recomputed running totals and stamps calculatedAt
func (r *ReceivableRecord) SetTotals(cash decimal.Decimal, cylinders int, now time.Time) {
	r.TotalCashReceivables = cash
	r.TotalCylinderReceivables = cylinders
	r.CalculatedAt = &now
	r.UpdatedAt = now
}

// HasOnboarding reports whether the record carries an onboarding baseline
func (r *ReceivableRecord) HasOnboarding() bool {
	return !r.OnboardingCashReceivables.IsZero() || r.OnboardingCylinderReceivables != 0
}
