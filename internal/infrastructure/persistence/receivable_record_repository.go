package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceivableRecordRepository implements ledger.ReceivableRecordRepository using GORM
type GormReceivableRecordRepository struct {
	db *gorm.DB
}

// NewGormReceivableRecordRepository creates a new GormReceivableRecordRepository
func NewGormReceivableRecordRepository(db *gorm.DB) *GormReceivableRecordRepository {
	return &GormReceivableRecordRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormReceivableRecordRepository) WithTx(tx *gorm.DB) *GormReceivableRecordRepository {
	return &GormReceivableRecordRepository{db: tx}
}

// FindByDriverAndDate returns the driver's record for the calendar day
func (r *GormReceivableRecordRepository) FindByDriverAndDate(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) (*ledger.ReceivableRecord, error) {
	var model models.ReceivableRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND driver_id = ? AND date = ?", tenantID, driverID, ledger.CalendarDay(date)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDriver returns the driver's full history in ascending date order
func (r *GormReceivableRecordRepository) FindByDriver(ctx context.Context, tenantID, driverID uuid.UUID) ([]*ledger.ReceivableRecord, error) {
	var recordModels []models.ReceivableRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND driver_id = ?", tenantID, driverID).
		Order("date ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toRecords(recordModels), nil
}

// FindLatestForDrivers returns, per driver, the latest record dated on or
// before asOf. An empty driverIDs selects every driver of the tenant.
func (r *GormReceivableRecordRepository) FindLatestForDrivers(ctx context.Context, tenantID uuid.UUID, driverIDs []uuid.UUID, asOf time.Time) (map[uuid.UUID]*ledger.ReceivableRecord, error) {
	latest := r.db.Model(&models.ReceivableRecordModel{}).
		Select("driver_id, MAX(date) AS max_date").
		Where("tenant_id = ? AND date <= ?", tenantID, ledger.CalendarDay(asOf)).
		Group("driver_id")
	if len(driverIDs) > 0 {
		latest = latest.Where("driver_id IN ?", driverIDs)
	}

	var recordModels []models.ReceivableRecordModel
	if err := r.db.WithContext(ctx).
		Table("receivable_records AS r").
		Select("r.*").
		Joins("JOIN (?) AS m ON m.driver_id = r.driver_id AND m.max_date = r.date", latest).
		Where("r.tenant_id = ?", tenantID).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]*ledger.ReceivableRecord, len(recordModels))
	for i := range recordModels {
		rec := recordModels[i].ToDomain()
		out[rec.DriverID] = rec
	}
	return out, nil
}

// FindAll returns a page of records matching the filter, newest first
func (r *GormReceivableRecordRepository) FindAll(ctx context.Context, filter ledger.ReceivableRecordFilter) ([]*ledger.ReceivableRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReceivableRecordModel{}).
		Where("tenant_id = ?", filter.TenantID)
	if len(filter.DriverIDs) > 0 {
		query = query.Where("driver_id IN ?", filter.DriverIDs)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", ledger.CalendarDay(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", ledger.CalendarDay(*filter.DateTo))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	sortField := ValidateSortField(filter.OrderBy, ReceivableRecordSortFields, "date")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	var recordModels []models.ReceivableRecordModel
	if err := query.
		Order(sortField + " " + sortOrder).Order("driver_id ASC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}
	return toRecords(recordModels), total, nil
}

// DriversWithRecordsSince lists drivers that have a record dated on or after since
func (r *GormReceivableRecordRepository) DriversWithRecordsSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.ReceivableRecordModel{}).
		Where("tenant_id = ? AND date >= ?", tenantID, ledger.CalendarDay(since)).
		Distinct().
		Order("driver_id").
		Pluck("driver_id", &ids).Error
	return ids, err
}

// ListTenantIDs lists every tenant that owns at least one record
func (r *GormReceivableRecordRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tenant.AllowCrossTenant(r.db.WithContext(ctx)).Model(&models.ReceivableRecordModel{}).
		Distinct().
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// Save upserts the record on its (tenant, driver, date) key. When another
// writer created the day first, the stored row keeps its id and the domain
// record is updated to match it.
func (r *GormReceivableRecordRepository) Save(ctx context.Context, record *ledger.ReceivableRecord) error {
	model := models.ReceivableRecordModelFromDomain(record)
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "driver_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cash_receivables_change",
			"cylinder_receivables_change",
			"onboarding_cash_receivables",
			"onboarding_cylinder_receivables",
			"total_cash_receivables",
			"total_cylinder_receivables",
			"calculated_at",
			"updated_at",
		}),
	}).Create(model).Error; err != nil {
		return err
	}

	// uuid.UUID is a byte array, which Pluck would treat as a collection
	var id uuid.UUID
	row := db.Model(&models.ReceivableRecordModel{}).
		Select("id").
		Where("tenant_id = ? AND driver_id = ? AND date = ?", model.TenantID, model.DriverID, model.Date).
		Row()
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("read back record id: %w", err)
	}
	record.ID = id
	return nil
}

// UpdateTotals writes only the running totals and calculatedAt
func (r *GormReceivableRecordRepository) UpdateTotals(ctx context.Context, record *ledger.ReceivableRecord) error {
	result := r.db.WithContext(ctx).Model(&models.ReceivableRecordModel{}).
		Where("id = ? AND tenant_id = ?", record.ID, record.TenantID).
		Updates(map[string]any{
			"total_cash_receivables":     record.TotalCashReceivables,
			"total_cylinder_receivables": record.TotalCylinderReceivables,
			"calculated_at":              record.CalculatedAt,
			"updated_at":                 record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toRecords(in []models.ReceivableRecordModel) []*ledger.ReceivableRecord {
	out := make([]*ledger.ReceivableRecord, len(in))
	for i := range in {
		out[i] = in[i].ToDomain()
	}
	return out
}

// Ensure GormReceivableRecordRepository implements ledger.ReceivableRecordRepository
var _ ledger.ReceivableRecordRepository = (*GormReceivableRecordRepository)(nil)
