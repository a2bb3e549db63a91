package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
)

// BaseModel maps the domain BaseEntity columns
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// TenantAggregateModel adds tenant ownership and the optimistic-lock version
type TenantAggregateModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version  int       `gorm:"not null;default:1"`
}

// FromDomainTenantAggregateRoot populates TenantAggregateModel from domain TenantAggregateRoot
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.TenantID = t.TenantID
	m.Version = t.Version
}

// ToDomainTenantAggregateRoot rebuilds the domain TenantAggregateRoot
func (m *TenantAggregateModel) ToDomainTenantAggregateRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		TenantID: m.TenantID,
	}
}

// LedgerModels lists every table of the ledger schema in dependency order.
// SQL migrations own the production schema; AutoMigrate over this list is
// for sqlite-backed tests.
func LedgerModels() []any {
	return []any{
		&DriverModel{},
		&ProductModel{},
		&SaleModel{},
		&ReceivableRecordModel{},
		&CustomerReceivableModel{},
		&CustomerPaymentEventModel{},
		&CustomerReturnEventModel{},
		&InventoryRecordModel{},
		&AuditLogModel{},
		&OutboxEntryModel{},
	}
}

// TenantTables are the tables whose rows belong to one tenant. Every query
// against them must carry a tenant_id condition.
func TenantTables() []string {
	return []string{
		DriverModel{}.TableName(),
		ProductModel{}.TableName(),
		SaleModel{}.TableName(),
		ReceivableRecordModel{}.TableName(),
		CustomerReceivableModel{}.TableName(),
		CustomerPaymentEventModel{}.TableName(),
		CustomerReturnEventModel{}.TableName(),
		InventoryRecordModel{}.TableName(),
		AuditLogModel{}.TableName(),
	}
}
