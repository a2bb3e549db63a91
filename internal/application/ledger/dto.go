package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// RecordSaleCommand records one driver sale
type RecordSaleCommand struct {
	TenantID           uuid.UUID
	ActorID            uuid.UUID
	DriverID           uuid.UUID
	ProductID          uuid.UUID
	SaleDate           time.Time
	SaleType           ledger.SaleType
	Quantity           int
	TotalValue         decimal.Decimal
	Discount           decimal.Decimal
	CashDeposited      decimal.Decimal
	CylindersDeposited int
	CustomerName       string
}

// RecordSaleResult is the stored sale and the driver's re-synced day record
type RecordSaleResult struct {
	Sale   *ledger.Sale
	Record *ledger.ReceivableRecord
}

// OnboardDriverCommand seeds a driver's pre-system balances
type OnboardDriverCommand struct {
	TenantID  uuid.UUID
	ActorID   uuid.UUID
	DriverID  uuid.UUID
	Date      time.Time
	Cash      decimal.Decimal
	Cylinders int
}

// CreateCustomerReceivableCommand opens a customer debt on a driver's route
type CreateCustomerReceivableCommand struct {
	TenantID     uuid.UUID
	ActorID      uuid.UUID
	DriverID     uuid.UUID
	CustomerName string
	Type         ledger.ReceivableType
	Amount       decimal.Decimal
	Quantity     int
	Size         ledger.CylinderSize
	DueDate      *time.Time
	Notes        string
}

// RecordPaymentCommand collects cash against a CASH receivable
type RecordPaymentCommand struct {
	TenantID     uuid.UUID
	ActorID      uuid.UUID
	ReceivableID uuid.UUID
	Amount       decimal.Decimal
	Method       ledger.PaymentMethod
	Notes        string
}

// RecordCylinderReturnCommand takes back cylinders against a CYLINDER receivable
type RecordCylinderReturnCommand struct {
	TenantID     uuid.UUID
	ActorID      uuid.UUID
	ReceivableID uuid.UUID
	Quantity     int
	Notes        string
}

// ReceivableMutationResult is the outcome of a payment or cylinder return
type ReceivableMutationResult struct {
	Receivable     *ledger.CustomerReceivable
	Payment        *ledger.PaymentEvent
	Return         *ledger.ReturnEvent
	DepositSale    *ledger.Sale
	Reconciliation *ReconciliationResult
}

// ReconcileCommand re-syncs a driver's day record with customer debts
type ReconcileCommand struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
	DriverID uuid.UUID
	// Trigger names what caused the reconciliation, e.g. "payment"
	Trigger      string
	ChangeBySize map[ledger.CylinderSize]int
}

// ReconciliationResult describes the driver totals before and after
type ReconciliationResult struct {
	DriverID        uuid.UUID       `json:"driver_id"`
	RecordID        uuid.UUID       `json:"record_id"`
	Date            time.Time       `json:"date"`
	OldCash         decimal.Decimal `json:"old_cash"`
	NewCash         decimal.Decimal `json:"new_cash"`
	OldCylinders    int             `json:"old_cylinders"`
	NewCylinders    int             `json:"new_cylinders"`
	OpenReceivables int             `json:"open_receivables"`
	Changed         bool            `json:"changed"`
}

// RecalculateCommand selects what a recalculation pass covers. DriverID
// narrows to one driver; Days > 0 narrows to drivers with records in the
// last Days days. Each selected driver's whole history is walked.
type RecalculateCommand struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
	DriverID *uuid.UUID
	Days     int
}

// RecalculationStats summarizes a pass
type RecalculationStats struct {
	Tenants   int `json:"tenants"`
	Drivers   int `json:"drivers"`
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// ArchiveStats summarizes one archiving pass
type ArchiveStats struct {
	Date     string `json:"date"`
	Tenants  int    `json:"tenants"`
	Archived int    `json:"archived"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// ArchiveLink is a presigned link to a stored export
type ArchiveLink struct {
	Date      string    `json:"date"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RecalculationStats) add(o RecalculationStats) {
	s.Tenants += o.Tenants
	s.Drivers += o.Drivers
	s.Processed += o.Processed
	s.Updated += o.Updated
	s.Failed += o.Failed
}

// BreakdownValidation compares a computed size breakdown with expected counts
type BreakdownValidation struct {
	Breakdown  ledger.SizeBreakdown       `json:"breakdown"`
	Comparison ledger.BreakdownComparison `json:"comparison"`
}

// ValuationQuery asks for an asset valuation
type ValuationQuery struct {
	TenantID       uuid.UUID
	AsOf           time.Time
	PriceOverrides map[ledger.CylinderSize]decimal.Decimal
}

// ChangeRow is one line of the receivables-changes report
type ChangeRow struct {
	ID           uuid.UUID              `json:"id"`
	At           time.Time              `json:"at"`
	Action       ledger.AuditAction     `json:"action"`
	EntityType   ledger.AuditEntityType `json:"entity_type"`
	EntityID     uuid.UUID              `json:"entity_id"`
	UserID       uuid.UUID              `json:"user_id"`
	CustomerName string                 `json:"customer_name,omitempty"`
	DriverName   string                 `json:"driver_name,omitempty"`
	Description  string                 `json:"description"`
	OldValues    ledger.Metadata        `json:"old_values,omitempty"`
	NewValues    ledger.Metadata        `json:"new_values,omitempty"`
}
