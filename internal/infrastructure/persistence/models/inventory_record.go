package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
)

// InventoryRecordModel is a dated warehouse cylinder count. Per-size lines
// are optional and stored as a JSON array.
type InventoryRecordModel struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:uq_inventory_records_tenant_date,priority:1"`
	Date           time.Time                  `gorm:"not null;uniqueIndex:uq_inventory_records_tenant_date,priority:2"`
	FullCylinders  int                        `gorm:"not null;default:0"`
	EmptyCylinders int                        `gorm:"not null;default:0"`
	Lines          []ledger.InventorySizeLine `gorm:"type:jsonb;serializer:json"`
	CreatedAt      time.Time                  `gorm:"not null"`
	UpdatedAt      time.Time                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// ToDomain converts the persistence model to a domain InventoryRecord
func (m *InventoryRecordModel) ToDomain() *ledger.InventoryRecord {
	return &ledger.InventoryRecord{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Date:           ledger.CalendarDay(m.Date),
		FullCylinders:  m.FullCylinders,
		EmptyCylinders: m.EmptyCylinders,
		Lines:          m.Lines,
	}
}

// InventoryRecordModelFromDomain creates a persistence model from a domain InventoryRecord
func InventoryRecordModelFromDomain(r *ledger.InventoryRecord) *InventoryRecordModel {
	now := time.Now()
	return &InventoryRecordModel{
		ID:             r.ID,
		TenantID:       r.TenantID,
		Date:           ledger.CalendarDay(r.Date),
		FullCylinders:  r.FullCylinders,
		EmptyCylinders: r.EmptyCylinders,
		Lines:          r.Lines,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
