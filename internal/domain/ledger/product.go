package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CylinderSize names a physical cylinder size such as "12L" or "35L"
type CylinderSize string

// Unsized marks deposits whose product could not be resolved to a size
const Unsized CylinderSize = ""

// Product is a cylinder product sold by one gas company in one size
type Product struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Company   string
	Size      CylinderSize
	FullPrice decimal.Decimal
	Active    bool
}
