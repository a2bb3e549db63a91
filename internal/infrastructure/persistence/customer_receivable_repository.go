package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerReceivableRepository implements ledger.CustomerReceivableRepository using GORM
type GormCustomerReceivableRepository struct {
	db *gorm.DB
}

// NewGormCustomerReceivableRepository creates a new GormCustomerReceivableRepository
func NewGormCustomerReceivableRepository(db *gorm.DB) *GormCustomerReceivableRepository {
	return &GormCustomerReceivableRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormCustomerReceivableRepository) WithTx(tx *gorm.DB) *GormCustomerReceivableRepository {
	return &GormCustomerReceivableRepository{db: tx}
}

// FindByIDForTenant loads a receivable owned by the tenant
func (r *GormCustomerReceivableRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.CustomerReceivable, error) {
	var model models.CustomerReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrReceivableNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of receivables matching the filter
func (r *GormCustomerReceivableRepository) FindAll(ctx context.Context, filter ledger.CustomerReceivableFilter) ([]*ledger.CustomerReceivable, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerReceivableModel{}).
		Where("tenant_id = ?", filter.TenantID)
	if filter.DriverID != nil {
		query = query.Where("driver_id = ?", *filter.DriverID)
	}
	if filter.ReceivableType != nil {
		query = query.Where("receivable_type = ?", *filter.ReceivableType)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.OpenOnly {
		query = query.Where("status <> ?", ledger.ReceivableStatusPaid)
	}
	if name := strings.TrimSpace(filter.CustomerName); name != "" {
		query = query.Where("LOWER(customer_name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	sortField := ValidateSortField(filter.OrderBy, CustomerReceivableSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	var crModels []models.CustomerReceivableModel
	if err := query.
		Order(sortField + " " + sortOrder).
		Order("id ASC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&crModels).Error; err != nil {
		return nil, 0, err
	}
	return toCustomerReceivables(crModels), total, nil
}

// Save inserts a receivable at version 1 and otherwise updates it only if
// the stored version is the one it was loaded at.
func (r *GormCustomerReceivableRepository) Save(ctx context.Context, cr *ledger.CustomerReceivable) error {
	model := models.CustomerReceivableModelFromDomain(cr)
	if cr.Version <= 1 {
		return r.db.WithContext(ctx).Create(model).Error
	}

	result := r.db.WithContext(ctx).Model(&models.CustomerReceivableModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", cr.ID, cr.TenantID, cr.Version-1).
		Updates(map[string]any{
			"amount":     model.Amount,
			"quantity":   model.Quantity,
			"status":     model.Status,
			"due_date":   model.DueDate,
			"notes":      model.Notes,
			"paid_at":    model.PaidAt,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// UpdateAgingStatus writes only the status column
func (r *GormCustomerReceivableRepository) UpdateAgingStatus(ctx context.Context, cr *ledger.CustomerReceivable) error {
	return r.db.WithContext(ctx).Model(&models.CustomerReceivableModel{}).
		Where("id = ? AND tenant_id = ? AND status <> ?", cr.ID, cr.TenantID, ledger.ReceivableStatusPaid).
		UpdateColumn("status", cr.Status).Error
}

// SavePaymentEvent appends a payment row
func (r *GormCustomerReceivableRepository) SavePaymentEvent(ctx context.Context, ev *ledger.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(models.CustomerPaymentEventModelFromDomain(ev)).Error
}

// SaveReturnEvent appends a cylinder return row
func (r *GormCustomerReceivableRepository) SaveReturnEvent(ctx context.Context, ev *ledger.ReturnEvent) error {
	return r.db.WithContext(ctx).Create(models.CustomerReturnEventModelFromDomain(ev)).Error
}

// FindPaymentEvents returns the receivable's payments oldest first
func (r *GormCustomerReceivableRepository) FindPaymentEvents(ctx context.Context, tenantID, receivableID uuid.UUID) ([]*ledger.PaymentEvent, error) {
	var rows []models.CustomerPaymentEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND receivable_id = ?", tenantID, receivableID).
		Order("recorded_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.PaymentEvent, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindReturnEvents returns the receivable's cylinder returns oldest first
func (r *GormCustomerReceivableRepository) FindReturnEvents(ctx context.Context, tenantID, receivableID uuid.UUID) ([]*ledger.ReturnEvent, error) {
	var rows []models.CustomerReturnEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND receivable_id = ?", tenantID, receivableID).
		Order("recorded_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.ReturnEvent, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindOpenByDriver returns the driver's unpaid receivables
func (r *GormCustomerReceivableRepository) FindOpenByDriver(ctx context.Context, tenantID, driverID uuid.UUID) ([]*ledger.CustomerReceivable, error) {
	var crModels []models.CustomerReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND driver_id = ? AND status <> ?", tenantID, driverID, ledger.ReceivableStatusPaid).
		Order("created_at ASC").
		Find(&crModels).Error; err != nil {
		return nil, err
	}
	return toCustomerReceivables(crModels), nil
}

func toCustomerReceivables(in []models.CustomerReceivableModel) []*ledger.CustomerReceivable {
	out := make([]*ledger.CustomerReceivable, len(in))
	for i := range in {
		out[i] = in[i].ToDomain()
	}
	return out
}

// Ensure GormCustomerReceivableRepository implements ledger.CustomerReceivableRepository
var _ ledger.CustomerReceivableRepository = (*GormCustomerReceivableRepository)(nil)
