package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// dateLayout is the wire format of calendar dates
const dateLayout = "2006-01-02"

// ===================== Requests =====================

// SyncDayQuery selects the driver day to re-aggregate; empty means today
type SyncDayQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// RecordPaymentRequest collects cash against a CASH receivable
// @Description Request body for recording a customer payment
type RecordPaymentRequest struct {
	CustomerReceivableID string          `json:"customer_receivable_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount               decimal.Decimal `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"250.00"`
	PaymentMethod        string          `json:"payment_method" binding:"required,oneof=CASH BANK_TRANSFER MOBILE_MONEY CHEQUE OTHER" example:"MOBILE_MONEY"`
	Notes                string          `json:"notes" binding:"max=500" example:"Paid at the depot"`
}

// RecordCylinderReturnRequest takes cylinders back against a CYLINDER receivable
// @Description Request body for recording a cylinder return
type RecordCylinderReturnRequest struct {
	CustomerReceivableID string `json:"customer_receivable_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity             int    `json:"quantity" binding:"required,gt=0" example:"2"`
	Notes                string `json:"notes" binding:"max=500"`
}

// CreateCustomerReceivableRequest opens a customer debt on a driver's route
// @Description Request body for opening a customer receivable
type CreateCustomerReceivableRequest struct {
	DriverID       string          `json:"driver_id" binding:"required,uuid"`
	CustomerName   string          `json:"customer_name" binding:"required,max=200" example:"Mama Njeri"`
	ReceivableType string          `json:"receivable_type" binding:"required,oneof=CASH CYLINDER" example:"CASH"`
	Amount         decimal.Decimal `json:"amount" binding:"gte=0" swaggertype:"string" example:"500.00"`
	Quantity       int             `json:"quantity" binding:"gte=0" example:"0"`
	Size           string          `json:"size" binding:"max=20" example:"12L"`
	DueDate        string          `json:"due_date" binding:"omitempty,datetime=2006-01-02" example:"2026-11-01"`
	Notes          string          `json:"notes" binding:"max=500"`
}

// RecordSaleRequest records one driver sale
// @Description Request body for recording a sale
type RecordSaleRequest struct {
	DriverID           string          `json:"driver_id" binding:"required,uuid"`
	ProductID          string          `json:"product_id" binding:"required,uuid"`
	SaleDate           string          `json:"sale_date" binding:"required,datetime=2006-01-02" example:"2026-10-19"`
	SaleType           string          `json:"sale_type" binding:"required,oneof=PACKAGE REFILL" example:"REFILL"`
	Quantity           int             `json:"quantity" binding:"required,gt=0" example:"4"`
	TotalValue         decimal.Decimal `json:"total_value" binding:"gte=0" swaggertype:"string" example:"4400"`
	Discount           decimal.Decimal `json:"discount" binding:"gte=0" swaggertype:"string" example:"0"`
	CashDeposited      decimal.Decimal `json:"cash_deposited" binding:"gte=0" swaggertype:"string" example:"4000"`
	CylindersDeposited int             `json:"cylinders_deposited" binding:"gte=0" example:"3"`
	CustomerName       string          `json:"customer_name" binding:"max=200"`
}

// OnboardDriverRequest seeds a driver's pre-system balances
// @Description Request body for onboarding a driver's opening balances
type OnboardDriverRequest struct {
	Date      string          `json:"date" binding:"omitempty,datetime=2006-01-02" example:"2026-10-01"`
	Cash      decimal.Decimal `json:"cash" swaggertype:"string" example:"1200"`
	Cylinders int             `json:"cylinders" example:"5"`
}

// ReconcileDriverRequest optionally names the per-size change for notifications
// @Description Request body for reconciling a driver's day record
type ReconcileDriverRequest struct {
	ChangeBySize map[string]int `json:"change_by_size"`
}

// ValidateBreakdownRequest compares the computed breakdown with counted cylinders
// @Description Request body for validating a size breakdown
type ValidateBreakdownRequest struct {
	AsOf      string         `json:"as_of" binding:"omitempty,datetime=2006-01-02" example:"2026-10-19"`
	Expected  map[string]int `json:"expected" binding:"required"`
	Tolerance int            `json:"tolerance" binding:"gte=0" example:"1"`
}

// ListCustomerReceivablesQuery holds the list filters
type ListCustomerReceivablesQuery struct {
	DriverID       string `form:"driver_id" binding:"omitempty,uuid"`
	ReceivableType string `form:"receivable_type" binding:"omitempty,oneof=CASH CYLINDER"`
	Status         string `form:"status" binding:"max=100"`
	OpenOnly       bool   `form:"open_only"`
	Customer       string `form:"customer" binding:"max=200"`
	Page           int    `form:"page" binding:"gte=0"`
	PageSize       int    `form:"page_size" binding:"gte=0,lte=500"`
	OrderBy        string `form:"order_by"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ListDriverRecordsQuery holds the driver history filters
type ListDriverRecordsQuery struct {
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"gte=0"`
	PageSize int    `form:"page_size" binding:"gte=0,lte=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ListChangesQuery holds the receivables-changes report filters
type ListChangesQuery struct {
	Action   string `form:"action"`
	EntityID string `form:"entity_id" binding:"omitempty,uuid"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"gte=0"`
	PageSize int    `form:"page_size" binding:"gte=0,lte=500"`
}

// ArchiveDateQuery selects one archived day
type ArchiveDateQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ===================== Responses =====================

// CustomerReceivableResponse is a customer debt
// @Description Customer receivable
type CustomerReceivableResponse struct {
	ID             string          `json:"id"`
	DriverID       string          `json:"driver_id"`
	CustomerName   string          `json:"customer_name" example:"Mama Njeri"`
	ReceivableType string          `json:"receivable_type" example:"CASH"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"300"`
	Quantity       int             `json:"quantity" example:"0"`
	Size           string          `json:"size,omitempty" example:"12L"`
	Status         string          `json:"status" example:"CURRENT"`
	DueDate        string          `json:"due_date,omitempty" example:"2026-11-01"`
	Notes          string          `json:"notes,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	Version        int             `json:"version" example:"2"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PaymentEventResponse is one payment in a receivable's history
// @Description Customer payment event
type PaymentEventResponse struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Method        string          `json:"payment_method"`
	Notes         string          `json:"notes,omitempty"`
	BalanceBefore decimal.Decimal `json:"balance_before" swaggertype:"string"`
	BalanceAfter  decimal.Decimal `json:"balance_after" swaggertype:"string"`
	RecordedBy    string          `json:"recorded_by"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// ReturnEventResponse is one cylinder return in a receivable's history
// @Description Customer cylinder return event
type ReturnEventResponse struct {
	ID             string    `json:"id"`
	Quantity       int       `json:"quantity"`
	Size           string    `json:"size,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	RecordedBy     string    `json:"recorded_by"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// ReceivableMutationResponse is the outcome of opening, paying or returning against a receivable
// @Description Receivable mutation result
type ReceivableMutationResponse struct {
	Receivable     CustomerReceivableResponse      `json:"receivable"`
	Payment        *PaymentEventResponse           `json:"payment,omitempty"`
	Return         *ReturnEventResponse            `json:"return,omitempty"`
	Reconciliation *appledger.ReconciliationResult `json:"reconciliation,omitempty"`
}

// CustomerReceivableDetailResponse is a receivable with its history
// @Description Customer receivable with payments and returns
type CustomerReceivableDetailResponse struct {
	Receivable CustomerReceivableResponse `json:"receivable"`
	Payments   []PaymentEventResponse     `json:"payments"`
	Returns    []ReturnEventResponse      `json:"returns"`
}

// ReceivableRecordResponse is one driver day
// @Description Driver receivable record
type ReceivableRecordResponse struct {
	ID                            string          `json:"id"`
	DriverID                      string          `json:"driver_id"`
	Date                          string          `json:"date" example:"2026-10-19"`
	CashReceivablesChange         decimal.Decimal `json:"cash_receivables_change" swaggertype:"string"`
	CylinderReceivablesChange     int             `json:"cylinder_receivables_change"`
	OnboardingCashReceivables     decimal.Decimal `json:"onboarding_cash_receivables" swaggertype:"string"`
	OnboardingCylinderReceivables int             `json:"onboarding_cylinder_receivables"`
	TotalCashReceivables          decimal.Decimal `json:"total_cash_receivables" swaggertype:"string"`
	TotalCylinderReceivables      int             `json:"total_cylinder_receivables"`
	CalculatedAt                  *time.Time      `json:"calculated_at,omitempty"`
}

// SaleResponse is a stored sale
// @Description Sale
type SaleResponse struct {
	ID                 string          `json:"id"`
	DriverID           string          `json:"driver_id"`
	ProductID          string          `json:"product_id,omitempty"`
	Size               string          `json:"size,omitempty"`
	SaleDate           string          `json:"sale_date"`
	SaleType           string          `json:"sale_type"`
	Quantity           int             `json:"quantity"`
	TotalValue         decimal.Decimal `json:"total_value" swaggertype:"string"`
	Discount           decimal.Decimal `json:"discount" swaggertype:"string"`
	CashDeposited      decimal.Decimal `json:"cash_deposited" swaggertype:"string"`
	CylindersDeposited int             `json:"cylinders_deposited"`
	CustomerName       string          `json:"customer_name,omitempty"`
}

// RecordSaleResponse is the stored sale and the re-synced day record
// @Description Sale with the driver's day record
type RecordSaleResponse struct {
	Sale   SaleResponse             `json:"sale"`
	Record ReceivableRecordResponse `json:"record"`
}

// ===================== Converters =====================

func toCustomerReceivableResponse(cr *ledger.CustomerReceivable) CustomerReceivableResponse {
	resp := CustomerReceivableResponse{
		ID:             cr.ID.String(),
		DriverID:       cr.DriverID.String(),
		CustomerName:   cr.CustomerName,
		ReceivableType: string(cr.ReceivableType),
		Amount:         cr.Amount,
		Quantity:       cr.Quantity,
		Size:           string(cr.Size),
		Status:         string(cr.Status),
		Notes:          cr.Notes,
		PaidAt:         cr.PaidAt,
		Version:        cr.Version,
		CreatedAt:      cr.CreatedAt,
		UpdatedAt:      cr.UpdatedAt,
	}
	if cr.DueDate != nil {
		resp.DueDate = cr.DueDate.Format(dateLayout)
	}
	return resp
}

func toCustomerReceivableResponses(items []*ledger.CustomerReceivable) []CustomerReceivableResponse {
	out := make([]CustomerReceivableResponse, 0, len(items))
	for _, cr := range items {
		out = append(out, toCustomerReceivableResponse(cr))
	}
	return out
}

func toPaymentEventResponse(p *ledger.PaymentEvent) PaymentEventResponse {
	return PaymentEventResponse{
		ID:            p.ID.String(),
		Amount:        p.Amount,
		Method:        string(p.Method),
		Notes:         p.Notes,
		BalanceBefore: p.BalanceBefore,
		BalanceAfter:  p.BalanceAfter,
		RecordedBy:    p.RecordedBy.String(),
		RecordedAt:    p.RecordedAt,
	}
}

func toReturnEventResponse(r *ledger.ReturnEvent) ReturnEventResponse {
	return ReturnEventResponse{
		ID:             r.ID.String(),
		Quantity:       r.Quantity,
		Size:           string(r.Size),
		Notes:          r.Notes,
		QuantityBefore: r.QuantityBefore,
		QuantityAfter:  r.QuantityAfter,
		RecordedBy:     r.RecordedBy.String(),
		RecordedAt:     r.RecordedAt,
	}
}

func toMutationResponse(res *appledger.ReceivableMutationResult) ReceivableMutationResponse {
	resp := ReceivableMutationResponse{
		Receivable:     toCustomerReceivableResponse(res.Receivable),
		Reconciliation: res.Reconciliation,
	}
	if res.Payment != nil {
		p := toPaymentEventResponse(res.Payment)
		resp.Payment = &p
	}
	if res.Return != nil {
		r := toReturnEventResponse(res.Return)
		resp.Return = &r
	}
	return resp
}

func toDetailResponse(h *appledger.CustomerReceivableHistory) CustomerReceivableDetailResponse {
	resp := CustomerReceivableDetailResponse{
		Receivable: toCustomerReceivableResponse(h.Receivable),
		Payments:   make([]PaymentEventResponse, 0, len(h.Payments)),
		Returns:    make([]ReturnEventResponse, 0, len(h.Returns)),
	}
	for _, p := range h.Payments {
		resp.Payments = append(resp.Payments, toPaymentEventResponse(p))
	}
	for _, r := range h.Returns {
		resp.Returns = append(resp.Returns, toReturnEventResponse(r))
	}
	return resp
}

func toRecordResponse(r *ledger.ReceivableRecord) ReceivableRecordResponse {
	return ReceivableRecordResponse{
		ID:                            r.ID.String(),
		DriverID:                      r.DriverID.String(),
		Date:                          r.Date.Format(dateLayout),
		CashReceivablesChange:         r.CashReceivablesChange,
		CylinderReceivablesChange:     r.CylinderReceivablesChange,
		OnboardingCashReceivables:     r.OnboardingCashReceivables,
		OnboardingCylinderReceivables: r.OnboardingCylinderReceivables,
		TotalCashReceivables:          r.TotalCashReceivables,
		TotalCylinderReceivables:      r.TotalCylinderReceivables,
		CalculatedAt:                  r.CalculatedAt,
	}
}

func toRecordResponses(items []*ledger.ReceivableRecord) []ReceivableRecordResponse {
	out := make([]ReceivableRecordResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toRecordResponse(r))
	}
	return out
}

func toSaleResponse(s *ledger.Sale) SaleResponse {
	resp := SaleResponse{
		ID:                 s.ID.String(),
		DriverID:           s.DriverID.String(),
		Size:               string(s.Size),
		SaleDate:           s.SaleDate.Format(dateLayout),
		SaleType:           string(s.SaleType),
		Quantity:           s.Quantity,
		TotalValue:         s.TotalValue,
		Discount:           s.Discount,
		CashDeposited:      s.CashDeposited,
		CylindersDeposited: s.CylindersDeposited,
		CustomerName:       s.CustomerName,
	}
	if s.ProductID != nil {
		resp.ProductID = s.ProductID.String()
	}
	return resp
}

// parseDate parses an optional calendar date; empty yields the zero time
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return ledger.CalendarDay(t), nil
}

// dateParam parses an optional date field and answers 400 when it is malformed
func (h *BaseHandler) dateParam(c *gin.Context, field, raw string) (time.Time, bool) {
	t, err := parseDate(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+field+", expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func sizeMap(in map[string]int) map[ledger.CylinderSize]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[ledger.CylinderSize]int, len(in))
	for k, v := range in {
		out[ledger.CylinderSize(k)] = v
	}
	return out
}
