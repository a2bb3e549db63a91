package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceivableType is the denomination of a customer debt
type ReceivableType string

const (
	ReceivableTypeCash     ReceivableType = "CASH"
	ReceivableTypeCylinder ReceivableType = "CYLINDER"
)

// ReceivableStatus is the aging state of a customer debt
type ReceivableStatus string

const (
	ReceivableStatusCurrent ReceivableStatus = "CURRENT"
	ReceivableStatusDueSoon ReceivableStatus = "DUE_SOON"
	ReceivableStatusOverdue ReceivableStatus = "OVERDUE"
	ReceivableStatusPaid    ReceivableStatus = "PAID"
)

// IsValid checks the status
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case ReceivableStatusCurrent, ReceivableStatusDueSoon, ReceivableStatusOverdue, ReceivableStatusPaid:
		return true
	}
	return false
}

// PaymentMethod is how a customer settled cash
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks the payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodMobileMoney, PaymentMethodCheque, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentEvent is one cash payment against a customer receivable
type PaymentEvent struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	ReceivableID  uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Notes         string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	RecordedBy    uuid.UUID
	RecordedAt    time.Time
}

// ReturnEvent is one cylinder return against a customer receivable
type ReturnEvent struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	ReceivableID   uuid.UUID
	Quantity       int
	Size           CylinderSize
	Notes          string
	QuantityBefore int
	QuantityAfter  int
	RecordedBy     uuid.UUID
	RecordedAt     time.Time
}

// CustomerReceivable is one outstanding customer debt held on a driver's route,
// denominated either in cash (Amount) or in cylinders of one size (Quantity).
type CustomerReceivable struct {
	shared.TenantAggregateRoot
	DriverID       uuid.UUID
	CustomerName   string
	ReceivableType ReceivableType
	Amount         decimal.Decimal
	Quantity       int
	Size           CylinderSize
	Status         ReceivableStatus
	DueDate        *time.Time
	Notes          string
	PaidAt         *time.Time
}

// NewCustomerReceivableInput holds the fields for opening a customer debt
type NewCustomerReceivableInput struct {
	DriverID     uuid.UUID
	CustomerName string
	Type         ReceivableType
	Amount       decimal.Decimal
	Quantity     int
	Size         CylinderSize
	DueDate      *time.Time
	Notes        string
}

// NewCustomerReceivable opens a customer debt
func NewCustomerReceivable(tenantID uuid.UUID, in NewCustomerReceivableInput) (*CustomerReceivable, error) {
	if in.DriverID == uuid.Nil {
		return nil, NewValidationError("driver is required")
	}
	if in.CustomerName == "" {
		return nil, NewValidationError("customer name is required")
	}

	cr := &CustomerReceivable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DriverID:            in.DriverID,
		CustomerName:        in.CustomerName,
		ReceivableType:      in.Type,
		Amount:              decimal.Zero,
		Status:              ReceivableStatusCurrent,
		DueDate:             in.DueDate,
		Notes:               in.Notes,
	}

	switch in.Type {
	case ReceivableTypeCash:
		if !in.Amount.IsPositive() {
			return nil, NewValidationError("cash receivable amount must be positive")
		}
		cr.Amount = in.Amount
	case ReceivableTypeCylinder:
		if in.Quantity <= 0 {
			return nil, NewValidationError("cylinder receivable quantity must be positive")
		}
		if in.Size == Unsized {
			return nil, NewValidationError("cylinder receivable size is required")
		}
		cr.Quantity = in.Quantity
		cr.Size = in.Size
	default:
		return nil, NewValidationError("receivable type must be CASH or CYLINDER")
	}
	return cr, nil
}

// Outstanding returns the remaining balance in the receivable's own unit
func (cr *CustomerReceivable) Outstanding() decimal.Decimal {
	if cr.ReceivableType == ReceivableTypeCylinder {
		return decimal.NewFromInt(int64(cr.Quantity))
	}
	return cr.Amount
}

// IsSettled reports whether nothing is owed any more
func (cr *CustomerReceivable) IsSettled() bool {
	return cr.Outstanding().IsZero()
}

// PaymentInput is a cash payment request
type PaymentInput struct {
	Amount     decimal.Decimal
	Method     PaymentMethod
	Notes      string
	RecordedBy uuid.UUID
	At         time.Time
	// DriverName is carried on the emitted event for notifications
	DriverName string
}

// ApplyPayment decrements a cash receivable. A payment larger than the
// outstanding amount is rejected and leaves the receivable untouched.
func (cr *CustomerReceivable) ApplyPayment(in PaymentInput) (*PaymentEvent, error) {
	if cr.ReceivableType != ReceivableTypeCash {
		return nil, NewValidationError("payments can only be recorded against CASH receivables")
	}
	if !in.Amount.IsPositive() {
		return nil, NewValidationError("payment amount must be positive")
	}
	if !in.Method.IsValid() {
		return nil, NewValidationError("payment method %q is not supported", in.Method)
	}
	if in.Amount.GreaterThan(cr.Amount) {
		return nil, NewValidationError("payment amount %s exceeds outstanding amount %s", in.Amount.StringFixed(2), cr.Amount.StringFixed(2))
	}

	before := cr.Amount
	cr.Amount = cr.Amount.Sub(in.Amount)
	cr.settleIfZero(in.At)
	cr.touch(in.At)

	ev := &PaymentEvent{
		ID:            uuid.New(),
		TenantID:      cr.TenantID,
		ReceivableID:  cr.ID,
		Amount:        in.Amount,
		Method:        in.Method,
		Notes:         in.Notes,
		BalanceBefore: before,
		BalanceAfter:  cr.Amount,
		RecordedBy:    in.RecordedBy,
		RecordedAt:    in.At,
	}
	event := NewCustomerPaymentRecordedEvent(cr, ev)
	event.DriverName = in.DriverName
	cr.AddDomainEvent(event)
	return ev, nil
}

// ReturnInput is a cylinder return request
type ReturnInput struct {
	Quantity   int
	Notes      string
	RecordedBy uuid.UUID
	At         time.Time
	DriverName string
}

// ApplyCylinderReturn decrements a cylinder receivable. Returning more than
// is outstanding is rejected and leaves the receivable untouched.
func (cr *CustomerReceivable) ApplyCylinderReturn(in ReturnInput) (*ReturnEvent, error) {
	if cr.ReceivableType != ReceivableTypeCylinder {
		return nil, NewValidationError("cylinder returns can only be recorded against CYLINDER receivables")
	}
	if in.Quantity <= 0 {
		return nil, NewValidationError("return quantity must be positive")
	}
	if in.Quantity > cr.Quantity {
		return nil, NewValidationError("return quantity %d exceeds outstanding quantity %d", in.Quantity, cr.Quantity)
	}

	before := cr.Quantity
	cr.Quantity -= in.Quantity
	cr.settleIfZero(in.At)
	cr.touch(in.At)

	ev := &ReturnEvent{
		ID:             uuid.New(),
		TenantID:       cr.TenantID,
		ReceivableID:   cr.ID,
		Quantity:       in.Quantity,
		Size:           cr.Size,
		Notes:          in.Notes,
		QuantityBefore: before,
		QuantityAfter:  cr.Quantity,
		RecordedBy:     in.RecordedBy,
		RecordedAt:     in.At,
	}
	event := NewCylinderReturnRecordedEvent(cr, ev)
	event.DriverName = in.DriverName
	cr.AddDomainEvent(event)
	return ev, nil
}

// RefreshAgingStatus recomputes CURRENT/DUE_SOON/OVERDUE for an unpaid debt.
// PAID is terminal. Returns true when the status changed.
func (cr *CustomerReceivable) RefreshAgingStatus(now time.Time, dueSoonWindow time.Duration) bool {
	if cr.Status == ReceivableStatusPaid {
		return false
	}
	next := ReceivableStatusCurrent
	if cr.DueDate != nil {
		due := *cr.DueDate
		switch {
		case now.After(due):
			next = ReceivableStatusOverdue
		case due.Sub(now) <= dueSoonWindow:
			next = ReceivableStatusDueSoon
		}
	}
	if next == cr.Status {
		return false
	}
	cr.Status = next
	return true
}

func (cr *CustomerReceivable) settleIfZero(at time.Time) {
	if cr.IsSettled() {
		cr.Status = ReceivableStatusPaid
		cr.PaidAt = &at
	}
}

func (cr *CustomerReceivable) touch(at time.Time) {
	cr.UpdatedAt = at
	cr.IncrementVersion()
}

// OutstandingSummary is the sum of a driver's open customer debts
type OutstandingSummary struct {
	Cash            decimal.Decimal
	Cylinders       int
	CylindersBySize map[CylinderSize]int
	Count           int
}

// SummarizeOutstanding totals the open balances of the given receivables
func SummarizeOutstanding(receivables []*CustomerReceivable) OutstandingSummary {
	sum := OutstandingSummary{Cash: decimal.Zero, CylindersBySize: map[CylinderSize]int{}}
	for _, cr := range receivables {
		if cr.Status == ReceivableStatusPaid {
			continue
		}
		switch cr.ReceivableType {
		case ReceivableTypeCash:
			sum.Cash = sum.Cash.Add(cr.Amount)
		case ReceivableTypeCylinder:
			sum.Cylinders += cr.Quantity
			sum.CylindersBySize[cr.Size] += cr.Quantity
		}
		sum.Count++
	}
	return sum
}
