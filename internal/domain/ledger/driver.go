package ledger

import (
	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
)

// DriverStatus is whether a driver is currently working
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "ACTIVE"
	DriverStatusInactive DriverStatus = "INACTIVE"
)

// DriverType separates retail route drivers from bulk shipment drivers
type DriverType string

const (
	DriverTypeRetail   DriverType = "RETAIL"
	DriverTypeShipment DriverType = "SHIPMENT"
)

// Driver sells cylinders on a route and carries the driver-level receivable balance
type Driver struct {
	shared.BaseEntity
	TenantID uuid.UUID
	Name     string
	Status   DriverStatus
	Type     DriverType
}

// NewDriver creates an active driver
func NewDriver(tenantID uuid.UUID, name string, driverType DriverType) (*Driver, error) {
	if name == "" {
		return nil, NewValidationError("driver name is required")
	}
	if driverType != DriverTypeRetail && driverType != DriverTypeShipment {
		return nil, NewValidationError("driver type must be RETAIL or SHIPMENT")
	}
	return &Driver{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Name:       name,
		Status:     DriverStatusActive,
		Type:       driverType,
	}, nil
}

// ParticipatesInLedger reports whether the driver is part of the customer
// receivables ledger. Shipment drivers and inactive drivers are excluded.
func (d *Driver) ParticipatesInLedger() bool {
	return d.Status == DriverStatusActive && d.Type == DriverTypeRetail
}

// EnsureLedgerEligible returns a validation error for drivers outside the ledger
func (d *Driver) EnsureLedgerEligible() error {
	if !d.ParticipatesInLedger() {
		return NewValidationError("driver %s is %s/%s; only ACTIVE RETAIL drivers carry customer receivables", d.Name, d.Status, d.Type)
	}
	return nil
}
