package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDriverRepository implements ledger.DriverRepository using GORM
type GormDriverRepository struct {
	db *gorm.DB
}

// NewGormDriverRepository creates a new GormDriverRepository
func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// FindByIDForTenant loads a driver owned by the tenant
func (r *GormDriverRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Driver, error) {
	var model models.DriverModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrDriverNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns drivers matching the filter ordered by name
func (r *GormDriverRepository) FindAll(ctx context.Context, filter ledger.DriverFilter) ([]*ledger.Driver, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", filter.TenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var driverModels []models.DriverModel
	if err := query.Order("name ASC").Find(&driverModels).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.Driver, len(driverModels))
	for i := range driverModels {
		out[i] = driverModels[i].ToDomain()
	}
	return out, nil
}

// Save inserts or updates a driver
func (r *GormDriverRepository) Save(ctx context.Context, driver *ledger.Driver) error {
	return r.db.WithContext(ctx).Save(models.DriverModelFromDomain(driver)).Error
}

// GormProductRepository implements ledger.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByIDForTenant loads a product owned by the tenant
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns the tenant's active products
func (r *GormProductRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]*ledger.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("size ASC").Order("company ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.Product, len(productModels))
	for i := range productModels {
		out[i] = productModels[i].ToDomain()
	}
	return out, nil
}

// Save inserts or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *ledger.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

var (
	_ ledger.DriverRepository  = (*GormDriverRepository)(nil)
	_ ledger.ProductRepository = (*GormProductRepository)(nil)
)
