package ledger

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction names a mutating ledger operation
type AuditAction string

const (
	AuditActionRecordPayment        AuditAction = "RECORD_PAYMENT"
	AuditActionRecordCylinderReturn AuditAction = "RECORD_CYLINDER_RETURN"
	AuditActionRecalculate          AuditAction = "RECALCULATE_RECEIVABLES"
	AuditActionReconcileDriver      AuditAction = "RECONCILE_DRIVER_RECEIVABLES"
	AuditActionOpenReceivable       AuditAction = "OPEN_CUSTOMER_RECEIVABLE"
	AuditActionOnboardDriver        AuditAction = "ONBOARD_DRIVER"
)

// AuditEntityType names the audited entity
type AuditEntityType string

const (
	AuditEntityCustomerReceivable AuditEntityType = "CUSTOMER_RECEIVABLE"
	AuditEntityReceivableRecord   AuditEntityType = "RECEIVABLE_RECORD"
)

// MetadataKind is the tag of a MetadataValue
type MetadataKind string

const (
	MetadataString  MetadataKind = "string"
	MetadataInteger MetadataKind = "integer"
	MetadataNumber  MetadataKind = "number"
	MetadataBool    MetadataKind = "bool"
)

// MetadataValue is a primitive value in an audit payload. It serializes as a
// bare JSON string, number or boolean.
type MetadataValue struct {
	Kind MetadataKind
	Str  string
	Int  int64
	Num  decimal.Decimal
	Bool bool
}

func StringValue(s string) MetadataValue          { return MetadataValue{Kind: MetadataString, Str: s} }
func IntValue(i int) MetadataValue                { return MetadataValue{Kind: MetadataInteger, Int: int64(i)} }
func NumberValue(d decimal.Decimal) MetadataValue { return MetadataValue{Kind: MetadataNumber, Num: d} }
func BoolValue(b bool) MetadataValue              { return MetadataValue{Kind: MetadataBool, Bool: b} }

// Decimal returns the value as a decimal for integer and number kinds
func (v MetadataValue) Decimal() (decimal.Decimal, bool) {
	switch v.Kind {
	case MetadataNumber:
		return v.Num, true
	case MetadataInteger:
		return decimal.NewFromInt(v.Int), true
	}
	return decimal.Zero, false
}

// MarshalJSON implements json.Marshaler
func (v MetadataValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case MetadataString:
		return json.Marshal(v.Str)
	case MetadataInteger:
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	case MetadataNumber:
		return []byte(v.Num.String()), nil
	case MetadataBool:
		return json.Marshal(v.Bool)
	}
	return nil, fmt.Errorf("unknown metadata kind %q", v.Kind)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers without a fraction or
// exponent decode as integers.
func (v *MetadataValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty metadata value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	default:
		if !bytes.ContainsAny(data, ".eE") {
			if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
				*v = MetadataValue{Kind: MetadataInteger, Int: i}
				return nil
			}
		}
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("metadata value %s is not a primitive: %w", data, err)
		}
		*v = NumberValue(d)
	}
	return nil
}

// Metadata is an opaque key-value audit payload stored as JSON
type Metadata map[string]MetadataValue

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}
	if len(raw) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// AuditLog is an append-only record of a ledger mutation
type AuditLog struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Action     AuditAction
	EntityType AuditEntityType
	EntityID   uuid.UUID
	OldValues  Metadata
	NewValues  Metadata
	Metadata   Metadata
	CreatedAt  time.Time
}

// AuditMetadata is the closed set of per-action metadata shapes
type AuditMetadata interface {
	Action() AuditAction
	ToMetadata() Metadata
}

// NewAuditLog builds an entry whose metadata comes from a typed variant
func NewAuditLog(tenantID, userID uuid.UUID, entityType AuditEntityType, entityID uuid.UUID, oldValues, newValues Metadata, meta AuditMetadata, at time.Time) *AuditLog {
	return &AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     meta.Action(),
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Metadata:   meta.ToMetadata(),
		CreatedAt:  at,
	}
}

// PaymentMetadata accompanies RECORD_PAYMENT
type PaymentMetadata struct {
	PaymentAmount  decimal.Decimal
	PaymentMethod  PaymentMethod
	PaymentEventID uuid.UUID
	CustomerName   string
	DriverName     string
}

func (PaymentMetadata) Action() AuditAction { return AuditActionRecordPayment }

func (p PaymentMetadata) ToMetadata() Metadata {
	return Metadata{
		"paymentAmount":  NumberValue(p.PaymentAmount),
		"paymentMethod":  StringValue(string(p.PaymentMethod)),
		"paymentEventId": StringValue(p.PaymentEventID.String()),
		"customerName":   StringValue(p.CustomerName),
		"driverName":     StringValue(p.DriverName),
	}
}

// CylinderReturnMetadata accompanies RECORD_CYLINDER_RETURN
type CylinderReturnMetadata struct {
	ReturnQuantity int
	Size           CylinderSize
	ReturnEventID  uuid.UUID
	CustomerName   string
	DriverName     string
}

func (CylinderReturnMetadata) Action() AuditAction { return AuditActionRecordCylinderReturn }

func (c CylinderReturnMetadata) ToMetadata() Metadata {
	return Metadata{
		"returnQuantity": IntValue(c.ReturnQuantity),
		"size":           StringValue(string(c.Size)),
		"returnEventId":  StringValue(c.ReturnEventID.String()),
		"customerName":   StringValue(c.CustomerName),
		"driverName":     StringValue(c.DriverName),
	}
}

// RecalculationMetadata accompanies RECALCULATE_RECEIVABLES
type RecalculationMetadata struct {
	Scope     string
	Days      int
	Processed int
	Updated   int
	Failed    int
}

func (RecalculationMetadata) Action() AuditAction { return AuditActionRecalculate }

func (r RecalculationMetadata) ToMetadata() Metadata {
	return Metadata{
		"scope":     StringValue(r.Scope),
		"days":      IntValue(r.Days),
		"processed": IntValue(r.Processed),
		"updated":   IntValue(r.Updated),
		"failed":    IntValue(r.Failed),
	}
}

// ReconciliationMetadata accompanies RECONCILE_DRIVER_RECEIVABLES
type ReconciliationMetadata struct {
	Trigger              string
	OutstandingCash      decimal.Decimal
	OutstandingCylinders int
	OpenReceivables      int
	DriverName           string
}

func (ReconciliationMetadata) Action() AuditAction { return AuditActionReconcileDriver }

func (r ReconciliationMetadata) ToMetadata() Metadata {
	return Metadata{
		"trigger":              StringValue(r.Trigger),
		"outstandingCash":      NumberValue(r.OutstandingCash),
		"outstandingCylinders": IntValue(r.OutstandingCylinders),
		"openReceivables":      IntValue(r.OpenReceivables),
		"driverName":           StringValue(r.DriverName),
	}
}

// OpenReceivableMetadata accompanies OPEN_CUSTOMER_RECEIVABLE
type OpenReceivableMetadata struct {
	Type         ReceivableType
	CustomerName string
	Size         CylinderSize
}

func (OpenReceivableMetadata) Action() AuditAction { return AuditActionOpenReceivable }

func (o OpenReceivableMetadata) ToMetadata() Metadata {
	return Metadata{
		"receivableType": StringValue(string(o.Type)),
		"customerName":   StringValue(o.CustomerName),
		"size":           StringValue(string(o.Size)),
	}
}

// OnboardingMetadata accompanies ONBOARD_DRIVER
type OnboardingMetadata struct {
	DriverName string
	Cash       decimal.Decimal
	Cylinders  int
}

func (OnboardingMetadata) Action() AuditAction { return AuditActionOnboardDriver }

func (o OnboardingMetadata) ToMetadata() Metadata {
	return Metadata{
		"driverName": StringValue(o.DriverName),
		"cash":       NumberValue(o.Cash),
		"cylinders":  IntValue(o.Cylinders),
	}
}

// DecodeMetadata rebuilds the typed variant of an audit entry's metadata
func DecodeMetadata(action AuditAction, m Metadata) (AuditMetadata, error) {
	r := metadataReader{m: m}
	var out AuditMetadata
	switch action {
	case AuditActionRecordPayment:
		out = PaymentMetadata{
			PaymentAmount:  r.number("paymentAmount"),
			PaymentMethod:  PaymentMethod(r.str("paymentMethod")),
			PaymentEventID: r.id("paymentEventId"),
			CustomerName:   r.str("customerName"),
			DriverName:     r.str("driverName"),
		}
	case AuditActionRecordCylinderReturn:
		out = CylinderReturnMetadata{
			ReturnQuantity: r.integer("returnQuantity"),
			Size:           CylinderSize(r.str("size")),
			ReturnEventID:  r.id("returnEventId"),
			CustomerName:   r.str("customerName"),
			DriverName:     r.str("driverName"),
		}
	case AuditActionRecalculate:
		out = RecalculationMetadata{
			Scope:     r.str("scope"),
			Days:      r.integer("days"),
			Processed: r.integer("processed"),
			Updated:   r.integer("updated"),
			Failed:    r.integer("failed"),
		}
	case AuditActionReconcileDriver:
		out = ReconciliationMetadata{
			Trigger:              r.str("trigger"),
			OutstandingCash:      r.number("outstandingCash"),
			OutstandingCylinders: r.integer("outstandingCylinders"),
			OpenReceivables:      r.integer("openReceivables"),
			DriverName:           r.str("driverName"),
		}
	case AuditActionOpenReceivable:
		out = OpenReceivableMetadata{
			Type:         ReceivableType(r.str("receivableType")),
			CustomerName: r.str("customerName"),
			Size:         CylinderSize(r.str("size")),
		}
	case AuditActionOnboardDriver:
		out = OnboardingMetadata{
			DriverName: r.str("driverName"),
			Cash:       r.number("cash"),
			Cylinders:  r.integer("cylinders"),
		}
	default:
		return nil, fmt.Errorf("unknown audit action %q", action)
	}
	if r.err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", action, r.err)
	}
	return out, nil
}

// metadataReader reads typed fields and keeps the first mismatch
type metadataReader struct {
	m   Metadata
	err error
}

func (r *metadataReader) get(key string, kinds ...MetadataKind) (MetadataValue, bool) {
	v, ok := r.m[key]
	if !ok {
		return MetadataValue{}, false
	}
	for _, k := range kinds {
		if v.Kind == k {
			return v, true
		}
	}
	if r.err == nil {
		r.err = fmt.Errorf("field %s has kind %s", key, v.Kind)
	}
	return MetadataValue{}, false
}

func (r *metadataReader) str(key string) string {
	v, _ := r.get(key, MetadataString)
	return v.Str
}

func (r *metadataReader) integer(key string) int {
	v, _ := r.get(key, MetadataInteger)
	return int(v.Int)
}

func (r *metadataReader) number(key string) decimal.Decimal {
	v, ok := r.get(key, MetadataNumber, MetadataInteger)
	if !ok {
		return decimal.Zero
	}
	d, _ := v.Decimal()
	return d
}

func (r *metadataReader) id(key string) uuid.UUID {
	s := r.str(key)
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("field %s: %w", key, err)
	}
	return id
}
