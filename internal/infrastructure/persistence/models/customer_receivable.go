package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// CustomerReceivableModel is the persistence model for the CustomerReceivable aggregate
type CustomerReceivableModel struct {
	TenantAggregateModel
	DriverID       uuid.UUID               `gorm:"type:uuid;not null;index:idx_customer_receivables_driver_status,priority:1"`
	CustomerName   string                  `gorm:"type:varchar(200);not null"`
	ReceivableType ledger.ReceivableType   `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Quantity       int                     `gorm:"not null;default:0"`
	Size           ledger.CylinderSize     `gorm:"type:varchar(20);not null;default:''"`
	Status         ledger.ReceivableStatus `gorm:"type:varchar(20);not null;default:CURRENT;index:idx_customer_receivables_driver_status,priority:2"`
	DueDate        *time.Time
	Notes          string `gorm:"type:text"`
	PaidAt         *time.Time
}

// TableName returns the table name for GORM
func (CustomerReceivableModel) TableName() string {
	return "customer_receivables"
}

// ToDomain converts the persistence model to a domain CustomerReceivable
func (m *CustomerReceivableModel) ToDomain() *ledger.CustomerReceivable {
	return &ledger.CustomerReceivable{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		DriverID:            m.DriverID,
		CustomerName:        m.CustomerName,
		ReceivableType:      m.ReceivableType,
		Amount:              m.Amount,
		Quantity:            m.Quantity,
		Size:                m.Size,
		Status:              m.Status,
		DueDate:             m.DueDate,
		Notes:               m.Notes,
		PaidAt:              m.PaidAt,
	}
}

// CustomerReceivableModelFromDomain creates a persistence model from a domain CustomerReceivable
func CustomerReceivableModelFromDomain(cr *ledger.CustomerReceivable) *CustomerReceivableModel {
	m := &CustomerReceivableModel{
		DriverID:       cr.DriverID,
		CustomerName:   cr.CustomerName,
		ReceivableType: cr.ReceivableType,
		Amount:         cr.Amount,
		Quantity:       cr.Quantity,
		Size:           cr.Size,
		Status:         cr.Status,
		DueDate:        cr.DueDate,
		Notes:          cr.Notes,
		PaidAt:         cr.PaidAt,
	}
	m.FromDomainTenantAggregateRoot(cr.TenantAggregateRoot)
	return m
}

// CustomerPaymentEventModel is one cash payment row under a customer receivable
type CustomerPaymentEventModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	ReceivableID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Method        ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	Notes         string               `gorm:"type:text"`
	BalanceBefore decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	BalanceAfter  decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	RecordedBy    uuid.UUID            `gorm:"type:uuid;not null"`
	RecordedAt    time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerPaymentEventModel) TableName() string {
	return "customer_payment_events"
}

// ToDomain converts the persistence model to a domain PaymentEvent
func (m *CustomerPaymentEventModel) ToDomain() *ledger.PaymentEvent {
	return &ledger.PaymentEvent{
		ID:            m.ID,
		TenantID:      m.TenantID,
		ReceivableID:  m.ReceivableID,
		Amount:        m.Amount,
		Method:        m.Method,
		Notes:         m.Notes,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		RecordedBy:    m.RecordedBy,
		RecordedAt:    m.RecordedAt,
	}
}

// CustomerPaymentEventModelFromDomain creates a persistence model from a domain PaymentEvent
func CustomerPaymentEventModelFromDomain(e *ledger.PaymentEvent) *CustomerPaymentEventModel {
	return &CustomerPaymentEventModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		ReceivableID:  e.ReceivableID,
		Amount:        e.Amount,
		Method:        e.Method,
		Notes:         e.Notes,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		RecordedBy:    e.RecordedBy,
		RecordedAt:    e.RecordedAt,
	}
}

// CustomerReturnEventModel is one cylinder return row under a customer receivable
type CustomerReturnEventModel struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	ReceivableID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Quantity       int                 `gorm:"not null"`
	Size           ledger.CylinderSize `gorm:"type:varchar(20);not null;default:''"`
	Notes          string              `gorm:"type:text"`
	QuantityBefore int                 `gorm:"not null"`
	QuantityAfter  int                 `gorm:"not null"`
	RecordedBy     uuid.UUID           `gorm:"type:uuid;not null"`
	RecordedAt     time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerReturnEventModel) TableName() string {
	return "customer_return_events"
}

// ToDomain converts the persistence model to a domain ReturnEvent
func (m *CustomerReturnEventModel) ToDomain() *ledger.ReturnEvent {
	return &ledger.ReturnEvent{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ReceivableID:   m.ReceivableID,
		Quantity:       m.Quantity,
		Size:           m.Size,
		Notes:          m.Notes,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		RecordedBy:     m.RecordedBy,
		RecordedAt:     m.RecordedAt,
	}
}

// CustomerReturnEventModelFromDomain creates a persistence model from a domain ReturnEvent
func CustomerReturnEventModelFromDomain(e *ledger.ReturnEvent) *CustomerReturnEventModel {
	return &CustomerReturnEventModel{
		ID:             e.ID,
		TenantID:       e.TenantID,
		ReceivableID:   e.ReceivableID,
		Quantity:       e.Quantity,
		Size:           e.Size,
		Notes:          e.Notes,
		QuantityBefore: e.QuantityBefore,
		QuantityAfter:  e.QuantityAfter,
		RecordedBy:     e.RecordedBy,
		RecordedAt:     e.RecordedAt,
	}
}
