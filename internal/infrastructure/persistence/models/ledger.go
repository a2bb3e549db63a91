package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// DriverModel is the persistence model for drivers
type DriverModel struct {
	BaseModel
	TenantID uuid.UUID           `gorm:"type:uuid;not null;index:idx_drivers_tenant_status,priority:1"`
	Name     string              `gorm:"type:varchar(200);not null"`
	Status   ledger.DriverStatus `gorm:"type:varchar(20);not null;default:ACTIVE;index:idx_drivers_tenant_status,priority:2"`
	Type     ledger.DriverType   `gorm:"type:varchar(20);not null;default:RETAIL"`
}

// TableName returns the table name for GORM
func (DriverModel) TableName() string {
	return "drivers"
}

// ToDomain converts the persistence model to a domain Driver
func (m *DriverModel) ToDomain() *ledger.Driver {
	return &ledger.Driver{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Name:       m.Name,
		Status:     m.Status,
		Type:       m.Type,
	}
}

// DriverModelFromDomain creates a persistence model from a domain Driver
func DriverModelFromDomain(d *ledger.Driver) *DriverModel {
	m := &DriverModel{
		TenantID: d.TenantID,
		Name:     d.Name,
		Status:   d.Status,
		Type:     d.Type,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// ProductModel is the persistence model for cylinder products
type ProductModel struct {
	BaseModel
	TenantID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name      string              `gorm:"type:varchar(200);not null"`
	Company   string              `gorm:"type:varchar(200);not null"`
	Size      ledger.CylinderSize `gorm:"type:varchar(20);not null"`
	FullPrice decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Active    bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *ledger.Product {
	return &ledger.Product{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Company:   m.Company,
		Size:      m.Size,
		FullPrice: m.FullPrice,
		Active:    m.Active,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *ledger.Product) *ProductModel {
	now := time.Now()
	return &ProductModel{
		BaseModel: BaseModel{ID: p.ID, CreatedAt: now, UpdatedAt: now},
		TenantID:  p.TenantID,
		Name:      p.Name,
		Company:   p.Company,
		Size:      p.Size,
		FullPrice: p.FullPrice,
		Active:    p.Active,
	}
}

// SaleModel is the persistence model for driver sales. Size is copied from
// the product at write time.
type SaleModel struct {
	BaseModel
	TenantID           uuid.UUID           `gorm:"type:uuid;not null;index:idx_sales_tenant_driver_date,priority:1"`
	DriverID           uuid.UUID           `gorm:"type:uuid;not null;index:idx_sales_tenant_driver_date,priority:2"`
	SaleDate           time.Time           `gorm:"not null;index:idx_sales_tenant_driver_date,priority:3"`
	ProductID          *uuid.UUID          `gorm:"type:uuid;index"`
	Size               ledger.CylinderSize `gorm:"type:varchar(20);not null;default:''"`
	SaleType           ledger.SaleType     `gorm:"type:varchar(20);not null"`
	Quantity           int                 `gorm:"not null;default:0"`
	TotalValue         decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Discount           decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	CashDeposited      decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	CylindersDeposited int                 `gorm:"not null;default:0"`
	DepositOnly        bool                `gorm:"not null;default:false"`
	CustomerName       string              `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *ledger.Sale {
	return &ledger.Sale{
		BaseEntity:         m.BaseModel.ToDomain(),
		TenantID:           m.TenantID,
		DriverID:           m.DriverID,
		ProductID:          m.ProductID,
		Size:               m.Size,
		SaleDate:           m.SaleDate.UTC(),
		SaleType:           m.SaleType,
		Quantity:           m.Quantity,
		TotalValue:         m.TotalValue,
		Discount:           m.Discount,
		CashDeposited:      m.CashDeposited,
		CylindersDeposited: m.CylindersDeposited,
		DepositOnly:        m.DepositOnly,
		CustomerName:       m.CustomerName,
	}
}

// SaleModelFromDomain creates a persistence model from a domain Sale
func SaleModelFromDomain(s *ledger.Sale) *SaleModel {
	m := &SaleModel{
		TenantID:           s.TenantID,
		DriverID:           s.DriverID,
		SaleDate:           s.SaleDate.UTC(),
		ProductID:          s.ProductID,
		Size:               s.Size,
		SaleType:           s.SaleType,
		Quantity:           s.Quantity,
		TotalValue:         s.TotalValue,
		Discount:           s.Discount,
		CashDeposited:      s.CashDeposited,
		CylindersDeposited: s.CylindersDeposited,
		DepositOnly:        s.DepositOnly,
		CustomerName:       s.CustomerName,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// ReceivableRecordModel is one driver's ledger row for one calendar day.
// The (tenant_id, driver_id, date) unique index backs the one-row-per-day rule.
type ReceivableRecordModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_receivable_records_tenant_driver_date,priority:1"`
	DriverID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_receivable_records_tenant_driver_date,priority:2"`
	Date     time.Time `gorm:"not null;uniqueIndex:uq_receivable_records_tenant_driver_date,priority:3;index"`

	CashReceivablesChange         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CylinderReceivablesChange     int             `gorm:"not null;default:0"`
	OnboardingCashReceivables     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	OnboardingCylinderReceivables int             `gorm:"not null;default:0"`
	TotalCashReceivables          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCylinderReceivables      int             `gorm:"not null;default:0"`
	CalculatedAt                  *time.Time
}

// TableName returns the table name for GORM
func (ReceivableRecordModel) TableName() string {
	return "receivable_records"
}

// ToDomain converts the persistence model to a domain ReceivableRecord
func (m *ReceivableRecordModel) ToDomain() *ledger.ReceivableRecord {
	return &ledger.ReceivableRecord{
		BaseEntity:                    m.BaseModel.ToDomain(),
		TenantID:                      m.TenantID,
		DriverID:                      m.DriverID,
		Date:                          ledger.CalendarDay(m.Date),
		CashReceivablesChange:         m.CashReceivablesChange,
		CylinderReceivablesChange:     m.CylinderReceivablesChange,
		OnboardingCashReceivables:     m.OnboardingCashReceivables,
		OnboardingCylinderReceivables: m.OnboardingCylinderReceivables,
		TotalCashReceivables:          m.TotalCashReceivables,
		TotalCylinderReceivables:      m.TotalCylinderReceivables,
		CalculatedAt:                  m.CalculatedAt,
	}
}

// ReceivableRecordModelFromDomain creates a persistence model from a domain ReceivableRecord
func ReceivableRecordModelFromDomain(r *ledger.ReceivableRecord) *ReceivableRecordModel {
	m := &ReceivableRecordModel{
		TenantID:                      r.TenantID,
		DriverID:                      r.DriverID,
		Date:                          ledger.CalendarDay(r.Date),
		CashReceivablesChange:         r.CashReceivablesChange,
		CylinderReceivablesChange:     r.CylinderReceivablesChange,
		OnboardingCashReceivables:     r.OnboardingCashReceivables,
		OnboardingCylinderReceivables: r.OnboardingCylinderReceivables,
		TotalCashReceivables:          r.TotalCashReceivables,
		TotalCylinderReceivables:      r.TotalCylinderReceivables,
		CalculatedAt:                  r.CalculatedAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
