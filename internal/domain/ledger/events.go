package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names used for outbox routing
const (
	EventTypeCustomerPaymentRecorded  = "CustomerPaymentRecorded"
	EventTypeCylinderReturnRecorded   = "CylinderReturnRecorded"
	EventTypeDriverReceivablesChanged = "DriverReceivablesChanged"

	AggregateTypeCustomerReceivable = "CustomerReceivable"
	AggregateTypeDriverLedger       = "DriverLedger"
)

// CustomerPaymentRecordedEvent is raised when cash is collected from a customer
type CustomerPaymentRecordedEvent struct {
	shared.BaseDomainEvent
	ReceivableID   uuid.UUID        `json:"receivable_id"`
	PaymentEventID uuid.UUID        `json:"payment_event_id"`
	DriverID       uuid.UUID        `json:"driver_id"`
	DriverName     string           `json:"driver_name,omitempty"`
	CustomerName   string           `json:"customer_name"`
	Amount         decimal.Decimal  `json:"amount"`
	Method         PaymentMethod    `json:"method"`
	OldAmount      decimal.Decimal  `json:"old_amount"`
	NewAmount      decimal.Decimal  `json:"new_amount"`
	Status         ReceivableStatus `json:"status"`
	Notes          string           `json:"notes,omitempty"`
}

// NewCustomerPaymentRecordedEvent builds the event from the mutated receivable
func NewCustomerPaymentRecordedEvent(cr *CustomerReceivable, p *PaymentEvent) *CustomerPaymentRecordedEvent {
	base := shared.NewBaseDomainEvent(EventTypeCustomerPaymentRecorded, AggregateTypeCustomerReceivable, cr.ID, cr.TenantID)
	base.Timestamp = p.RecordedAt
	return &CustomerPaymentRecordedEvent{
		BaseDomainEvent: base,
		ReceivableID:    cr.ID,
		PaymentEventID:  p.ID,
		DriverID:        cr.DriverID,
		CustomerName:    cr.CustomerName,
		Amount:          p.Amount,
		Method:          p.Method,
		OldAmount:       p.BalanceBefore,
		NewAmount:       p.BalanceAfter,
		Status:          cr.Status,
		Notes:           p.Notes,
	}
}

// CylinderReturnRecordedEvent is raised when a customer returns cylinders
type CylinderReturnRecordedEvent struct {
	shared.BaseDomainEvent
	ReceivableID  uuid.UUID        `json:"receivable_id"`
	ReturnEventID uuid.UUID        `json:"return_event_id"`
	DriverID      uuid.UUID        `json:"driver_id"`
	DriverName    string           `json:"driver_name,omitempty"`
	CustomerName  string           `json:"customer_name"`
	Size          CylinderSize     `json:"size"`
	Quantity      int              `json:"quantity"`
	OldQuantity   int              `json:"old_quantity"`
	NewQuantity   int              `json:"new_quantity"`
	Status        ReceivableStatus `json:"status"`
	Notes         string           `json:"notes,omitempty"`
}

// NewCylinderReturnRecordedEvent builds the event from the mutated receivable
func NewCylinderReturnRecordedEvent(cr *CustomerReceivable, r *ReturnEvent) *CylinderReturnRecordedEvent {
	base := shared.NewBaseDomainEvent(EventTypeCylinderReturnRecorded, AggregateTypeCustomerReceivable, cr.ID, cr.TenantID)
	base.Timestamp = r.RecordedAt
	return &CylinderReturnRecordedEvent{
		BaseDomainEvent: base,
		ReceivableID:    cr.ID,
		ReturnEventID:   r.ID,
		DriverID:        cr.DriverID,
		CustomerName:    cr.CustomerName,
		Size:            r.Size,
		Quantity:        r.Quantity,
		OldQuantity:     r.QuantityBefore,
		NewQuantity:     r.QuantityAfter,
		Status:          cr.Status,
		Notes:           r.Notes,
	}
}

// DriverReceivablesChangedEvent is raised when a driver's running totals move
// outside of a sale, e.g. after reconciliation against customer debts
type DriverReceivablesChangedEvent struct {
	shared.BaseDomainEvent
	DriverID     uuid.UUID            `json:"driver_id"`
	DriverName   string               `json:"driver_name"`
	Date         time.Time            `json:"date"`
	OldCash      decimal.Decimal      `json:"old_cash"`
	NewCash      decimal.Decimal      `json:"new_cash"`
	OldCylinders int                  `json:"old_cylinders"`
	NewCylinders int                  `json:"new_cylinders"`
	ChangeBySize map[CylinderSize]int `json:"change_by_size,omitempty"`
	Reason       string               `json:"reason"`
}

// NewDriverReceivablesChangedEvent builds the event for a driver's day record
func NewDriverReceivablesChangedEvent(
	driver *Driver,
	record *ReceivableRecord,
	oldCash decimal.Decimal,
	oldCylinders int,
	changeBySize map[CylinderSize]int,
	reason string,
) *DriverReceivablesChangedEvent {
	return &DriverReceivablesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDriverReceivablesChanged, AggregateTypeDriverLedger, driver.ID, driver.TenantID),
		DriverID:        driver.ID,
		DriverName:      driver.Name,
		Date:            record.Date,
		OldCash:         oldCash,
		NewCash:         record.TotalCashReceivables,
		OldCylinders:    oldCylinders,
		NewCylinders:    record.TotalCylinderReceivables,
		ChangeBySize:    changeBySize,
		Reason:          reason,
	}
}
