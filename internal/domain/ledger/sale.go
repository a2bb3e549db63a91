package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleType distinguishes a new cylinder package from a refill swap
type SaleType string

const (
	SaleTypePackage SaleType = "PACKAGE"
	SaleTypeRefill  SaleType = "REFILL"
)

// IsValid checks the sale type
func (t SaleType) IsValid() bool {
	return t == SaleTypePackage || t == SaleTypeRefill
}

// Sale is one driver transaction. Size is resolved from the product when the
// sale is written so later size attribution does not depend on product edits.
type Sale struct {
	shared.BaseEntity
	TenantID           uuid.UUID
	DriverID           uuid.UUID
	ProductID          *uuid.UUID
	Size               CylinderSize
	SaleDate           time.Time
	SaleType           SaleType
	Quantity           int
	TotalValue         decimal.Decimal
	Discount           decimal.Decimal
	CashDeposited      decimal.Decimal
	CylindersDeposited int
	// DepositOnly marks the synthetic quantity-0 sale that carries standalone
	// customer payments and cylinder returns for a driver's day.
	DepositOnly  bool
	CustomerName string
}

// SaleInput is the caller-supplied part of a sale
type SaleInput struct {
	DriverID           uuid.UUID
	Product            *Product
	SaleDate           time.Time
	SaleType           SaleType
	Quantity           int
	TotalValue         decimal.Decimal
	Discount           decimal.Decimal
	CashDeposited      decimal.Decimal
	CylindersDeposited int
	CustomerName       string
}

// NewSale validates and creates a sale
func NewSale(tenantID uuid.UUID, in SaleInput) (*Sale, error) {
	if in.DriverID == uuid.Nil {
		return nil, NewValidationError("driver is required")
	}
	if !in.SaleType.IsValid() {
		return nil, NewValidationError("sale type must be PACKAGE or REFILL")
	}
	if in.Quantity <= 0 {
		return nil, NewValidationError("quantity must be positive")
	}
	if in.TotalValue.IsNegative() || in.Discount.IsNegative() || in.CashDeposited.IsNegative() || in.CylindersDeposited < 0 {
		return nil, NewValidationError("sale amounts cannot be negative")
	}
	if in.Product == nil {
		return nil, NewValidationError("product is required")
	}

	productID := in.Product.ID
	return &Sale{
		BaseEntity:         shared.NewBaseEntity(),
		TenantID:           tenantID,
		DriverID:           in.DriverID,
		ProductID:          &productID,
		Size:               in.Product.Size,
		SaleDate:           CalendarDay(in.SaleDate),
		SaleType:           in.SaleType,
		Quantity:           in.Quantity,
		TotalValue:         in.TotalValue,
		Discount:           in.Discount,
		CashDeposited:      in.CashDeposited,
		CylindersDeposited: in.CylindersDeposited,
		CustomerName:       in.CustomerName,
	}, nil
}

// NewSyntheticDepositSale creates the deposit-only sale for a driver's day.
// It is a zero-quantity REFILL so deposits flow through the same aggregation
// and size attribution as real refills.
func NewSyntheticDepositSale(tenantID, driverID uuid.UUID, date time.Time, size CylinderSize) *Sale {
	return &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		DriverID:      driverID,
		Size:          size,
		SaleDate:      CalendarDay(date),
		SaleType:      SaleTypeRefill,
		TotalValue:    decimal.Zero,
		Discount:      decimal.Zero,
		CashDeposited: decimal.Zero,
		DepositOnly:   true,
	}
}

// AddCashDeposit adds a standalone payment to a deposit-only sale
func (s *Sale) AddCashDeposit(amount decimal.Decimal, now time.Time) {
	s.CashDeposited = s.CashDeposited.Add(amount)
	s.UpdatedAt = now
}

// AddCylinderDeposit adds returned cylinders to a deposit-only sale
func (s *Sale) AddCylinderDeposit(quantity int, now time.Time) {
	s.CylindersDeposited += quantity
	s.UpdatedAt = now
}

// DailyChange is a driver's net receivable movement for one day
type DailyChange struct {
	Cash      decimal.Decimal
	Cylinders int
	SaleCount int
}

// AggregateSales computes a day's change from its sales:
//
//	cash      = Σ totalValue − Σ cashDeposited − Σ discount
//	cylinders = Σ quantity of REFILL sales − Σ cylindersDeposited
//
// Negative results are over-deposits and are kept as is.
func AggregateSales(sales []*Sale) DailyChange {
	change := DailyChange{Cash: decimal.Zero}
	for _, s := range sales {
		change.Cash = change.Cash.Add(s.TotalValue).Sub(s.CashDeposited).Sub(s.Discount)
		if s.SaleType == SaleTypeRefill {
			change.Cylinders += s.Quantity
		}
		change.Cylinders -= s.CylindersDeposited
		change.SaleCount++
	}
	return change
}
