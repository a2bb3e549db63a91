package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
)

// AuditLogModel is an append-only audit row. The value columns hold flat
// JSON objects of primitives.
type AuditLogModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID              `gorm:"type:uuid;not null;index:idx_audit_logs_tenant_created,priority:1"`
	UserID     uuid.UUID              `gorm:"type:uuid;not null"`
	Action     ledger.AuditAction     `gorm:"type:varchar(50);not null;index"`
	EntityType ledger.AuditEntityType `gorm:"type:varchar(50);not null"`
	EntityID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	OldValues  ledger.Metadata        `gorm:"type:jsonb"`
	NewValues  ledger.Metadata        `gorm:"type:jsonb"`
	Metadata   ledger.Metadata        `gorm:"type:jsonb"`
	CreatedAt  time.Time              `gorm:"not null;index:idx_audit_logs_tenant_created,priority:2"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditLog
func (m *AuditLogModel) ToDomain() *ledger.AuditLog {
	return &ledger.AuditLog{
		ID:         m.ID,
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		OldValues:  m.OldValues,
		NewValues:  m.NewValues,
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from a domain AuditLog
func AuditLogModelFromDomain(a *ledger.AuditLog) *AuditLogModel {
	return &AuditLogModel{
		ID:         a.ID,
		TenantID:   a.TenantID,
		UserID:     a.UserID,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		OldValues:  a.OldValues,
		NewValues:  a.NewValues,
		Metadata:   a.Metadata,
		CreatedAt:  a.CreatedAt,
	}
}
