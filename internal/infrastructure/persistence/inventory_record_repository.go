package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRecordRepository implements ledger.InventoryRecordRepository using GORM
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// FindLatest returns the latest snapshot dated on or before asOf, or nil
func (r *GormInventoryRecordRepository) FindLatest(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*ledger.InventoryRecord, error) {
	var model models.InventoryRecordModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND date <= ?", tenantID, ledger.CalendarDay(asOf)).
		Order("date DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the tenant's snapshot for its date
func (r *GormInventoryRecordRepository) Save(ctx context.Context, record *ledger.InventoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_cylinders", "empty_cylinders", "lines", "updated_at"}),
	}).Create(models.InventoryRecordModelFromDomain(record)).Error
}

var _ ledger.InventoryRecordRepository = (*GormInventoryRecordRepository)(nil)
