package persistence

import (
	"context"

	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements ledger.AuditLogRepository using GORM.
// Rows are never updated or deleted.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormAuditLogRepository) WithTx(tx *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: tx}
}

// Append inserts an audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *ledger.AuditLog) error {
	return r.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(entry)).Error
}

// FindAll returns a page of entries matching the filter, newest first
func (r *GormAuditLogRepository) FindAll(ctx context.Context, filter ledger.AuditLogFilter) ([]*ledger.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{}).
		Where("tenant_id = ?", filter.TenantID)
	if len(filter.Actions) > 0 {
		query = query.Where("action IN ?", filter.Actions)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var rows []models.AuditLogModel
	if err := query.
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*ledger.AuditLog, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

var _ ledger.AuditLogRepository = (*GormAuditLogRepository)(nil)
