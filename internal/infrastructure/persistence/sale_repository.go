package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements ledger.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormSaleRepository) WithTx(tx *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: tx}
}

// FindAll returns sales matching the filter ordered by date
func (r *GormSaleRepository) FindAll(ctx context.Context, filter ledger.SaleFilter) ([]*ledger.Sale, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("tenant_id = ?", filter.TenantID)
	if len(filter.DriverIDs) > 0 {
		query = query.Where("driver_id IN ?", filter.DriverIDs)
	}
	if filter.SaleType != nil {
		query = query.Where("sale_type = ?", *filter.SaleType)
	}
	if filter.DateFrom != nil {
		query = query.Where("sale_date >= ?", ledger.CalendarDay(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("sale_date < ?", ledger.CalendarDay(*filter.DateTo).AddDate(0, 0, 1))
	}
	if filter.MinCylindersDeposited > 0 {
		query = query.Where("cylinders_deposited >= ?", filter.MinCylindersDeposited)
	}
	if filter.DepositOnly != nil {
		query = query.Where("deposit_only = ?", *filter.DepositOnly)
	}

	var saleModels []models.SaleModel
	if err := query.Order("sale_date ASC").Order("created_at ASC").Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// FindByDriverAndDate returns every sale of the driver on the calendar day
func (r *GormSaleRepository) FindByDriverAndDate(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) ([]*ledger.Sale, error) {
	day := ledger.CalendarDay(date)
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND driver_id = ? AND sale_date >= ? AND sale_date < ?", tenantID, driverID, day, day.AddDate(0, 0, 1)).
		Order("created_at ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// FindDepositSale returns the synthetic deposit-only sale for the driver's
// day and size, or nil when none exists yet
func (r *GormSaleRepository) FindDepositSale(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time, size ledger.CylinderSize) (*ledger.Sale, error) {
	day := ledger.CalendarDay(date)
	var model models.SaleModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND driver_id = ? AND sale_date >= ? AND sale_date < ? AND deposit_only = ? AND size = ?",
			tenantID, driverID, day, day.AddDate(0, 0, 1), true, size).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// QuantityByProduct sums sold quantity per product for sales dated on or before asOf
func (r *GormSaleRepository) QuantityByProduct(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (map[uuid.UUID]int, error) {
	type row struct {
		ProductID uuid.UUID
		Quantity  int
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Select("product_id, SUM(quantity) AS quantity").
		Where("tenant_id = ? AND product_id IS NOT NULL AND sale_date < ?", tenantID, ledger.CalendarDay(asOf).AddDate(0, 0, 1)).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, rw := range rows {
		out[rw.ProductID] = rw.Quantity
	}
	return out, nil
}

// Save inserts or updates a sale by primary key
func (r *GormSaleRepository) Save(ctx context.Context, sale *ledger.Sale) error {
	return r.db.WithContext(ctx).Save(models.SaleModelFromDomain(sale)).Error
}

func toSales(in []models.SaleModel) []*ledger.Sale {
	out := make([]*ledger.Sale, len(in))
	for i := range in {
		out[i] = in[i].ToDomain()
	}
	return out
}

// Ensure GormSaleRepository implements ledger.SaleRepository
var _ ledger.SaleRepository = (*GormSaleRepository)(nil)
