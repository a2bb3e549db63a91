package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
)

// ReceivableRecordFilter selects driver day records. TenantID is mandatory.
type ReceivableRecordFilter struct {
	TenantID  uuid.UUID
	DriverIDs []uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      shared.PageRequest
	OrderBy   string
	OrderDir  string
}

// SaleFilter selects sales. TenantID is mandatory.
type SaleFilter struct {
	TenantID              uuid.UUID
	DriverIDs             []uuid.UUID
	SaleType              *SaleType
	DateFrom              *time.Time
	DateTo                *time.Time
	MinCylindersDeposited int
	DepositOnly           *bool
}

// CustomerReceivableFilter selects customer debts. TenantID is mandatory.
type CustomerReceivableFilter struct {
	TenantID       uuid.UUID
	DriverID       *uuid.UUID
	ReceivableType *ReceivableType
	Statuses       []ReceivableStatus
	OpenOnly       bool
	CustomerName   string
	Page           shared.PageRequest
	OrderBy        string
	OrderDir       string
}

// DriverFilter selects drivers. TenantID is mandatory.
type DriverFilter struct {
	TenantID uuid.UUID
	Status   *DriverStatus
	Type     *DriverType
}

// LedgerDrivers is the filter for drivers that take part in the customer ledger
func LedgerDrivers(tenantID uuid.UUID) DriverFilter {
	status, typ := DriverStatusActive, DriverTypeRetail
	return DriverFilter{TenantID: tenantID, Status: &status, Type: &typ}
}

// AuditLogFilter selects audit entries. TenantID is mandatory.
type AuditLogFilter struct {
	TenantID   uuid.UUID
	Actions    []AuditAction
	EntityType *AuditEntityType
	EntityID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       shared.PageRequest
}

// ReceivableRecordRepository persists driver day records
type ReceivableRecordRepository interface {
	FindByDriverAndDate(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) (*ReceivableRecord, error)
	// FindByDriver returns the driver's full history in ascending date order
	FindByDriver(ctx context.Context, tenantID, driverID uuid.UUID) ([]*ReceivableRecord, error)
	// FindLatestForDrivers returns, per driver, the latest record dated on or before asOf
	FindLatestForDrivers(ctx context.Context, tenantID uuid.UUID, driverIDs []uuid.UUID, asOf time.Time) (map[uuid.UUID]*ReceivableRecord, error)
	FindAll(ctx context.Context, filter ReceivableRecordFilter) ([]*ReceivableRecord, int64, error)
	// DriversWithRecordsSince lists drivers having at least one record dated on or after since
	DriversWithRecordsSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]uuid.UUID, error)
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
	// Save inserts or updates the record for its (tenant, driver, date)
	Save(ctx context.Context, record *ReceivableRecord) error
	// UpdateTotals writes only the running totals and calculatedAt
	UpdateTotals(ctx context.Context, record *ReceivableRecord) error
}

// SaleRepository persists sales
type SaleRepository interface {
	FindAll(ctx context.Context, filter SaleFilter) ([]*Sale, error)
	FindByDriverAndDate(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) ([]*Sale, error)
	FindDepositSale(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time, size CylinderSize) (*Sale, error)
	// QuantityByProduct sums sold quantity per product for sales dated on or before asOf
	QuantityByProduct(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (map[uuid.UUID]int, error)
	Save(ctx context.Context, sale *Sale) error
}

// CustomerReceivableRepository persists customer debts and their payment and return rows
type CustomerReceivableRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CustomerReceivable, error)
	FindAll(ctx context.Context, filter CustomerReceivableFilter) ([]*CustomerReceivable, int64, error)
	// Save inserts a new receivable or updates one, failing with a concurrency
	// conflict when the stored version moved since it was loaded
	Save(ctx context.Context, cr *CustomerReceivable) error
	// UpdateAgingStatus writes only the status column; aging does not bump the version
	UpdateAgingStatus(ctx context.Context, cr *CustomerReceivable) error
	SavePaymentEvent(ctx context.Context, ev *PaymentEvent) error
	SaveReturnEvent(ctx context.Context, ev *ReturnEvent) error
	FindPaymentEvents(ctx context.Context, tenantID, receivableID uuid.UUID) ([]*PaymentEvent, error)
	FindReturnEvents(ctx context.Context, tenantID, receivableID uuid.UUID) ([]*ReturnEvent, error)
	// FindOpenByDriver returns the driver's unpaid receivables
	FindOpenByDriver(ctx context.Context, tenantID, driverID uuid.UUID) ([]*CustomerReceivable, error)
}

// DriverRepository reads drivers
type DriverRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Driver, error)
	FindAll(ctx context.Context, filter DriverFilter) ([]*Driver, error)
	Save(ctx context.Context, driver *Driver) error
}

// ProductRepository reads cylinder products
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
}

// InventoryRecordRepository reads warehouse snapshots
type InventoryRecordRepository interface {
	// FindLatest returns the latest snapshot dated on or before asOf, or nil
	FindLatest(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*InventoryRecord, error)
	Save(ctx context.Context, record *InventoryRecord) error
}

// AuditLogRepository appends and queries audit entries
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLog) error
	FindAll(ctx context.Context, filter AuditLogFilter) ([]*AuditLog, int64, error)
}
