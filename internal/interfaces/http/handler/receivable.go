package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
)

// manualTrigger names reconciliations requested over the API
const manualTrigger = "manual"

// ReceivableHandler serves customer receivables and driver day records
type ReceivableHandler struct {
	BaseHandler
	service ReceivableService
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(service ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{service: service}
}

// RecordPayment godoc
// @ID           recordReceivablePayment
// @Summary      Record a customer payment
// @Description  Decrements a CASH receivable, routes the cash through the driver's day record and reconciles the driver
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[ReceivableMutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/payments [post]
func (h *ReceivableHandler) RecordPayment(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	res, err := h.service.RecordPayment(c.Request.Context(), appledger.RecordPaymentCommand{
		TenantID:     tenantID,
		ActorID:      userID,
		ReceivableID: uuid.MustParse(req.CustomerReceivableID),
		Amount:       req.Amount,
		Method:       ledger.PaymentMethod(req.PaymentMethod),
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respondCreated(c, "Payment recorded", toMutationResponse(res))
}

// RecordCylinderReturn godoc
// @ID           recordReceivableCylinderReturn
// @Summary      Record a cylinder return
// @Description  Decrements a CYLINDER receivable, routes the cylinders through the driver's day record and reconciles the driver
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body RecordCylinderReturnRequest true "Cylinder return"
// @Success      201 {object} APIResponse[ReceivableMutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/cylinder-returns [post]
func (h *ReceivableHandler) RecordCylinderReturn(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req RecordCylinderReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	res, err := h.service.RecordCylinderReturn(c.Request.Context(), appledger.RecordCylinderReturnCommand{
		TenantID:     tenantID,
		ActorID:      userID,
		ReceivableID: uuid.MustParse(req.CustomerReceivableID),
		Quantity:     req.Quantity,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respondCreated(c, "Cylinder return recorded", toMutationResponse(res))
}

// CreateCustomerReceivable godoc
// @ID           createCustomerReceivable
// @Summary      Open a customer receivable
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body CreateCustomerReceivableRequest true "Receivable"
// @Success      201 {object} APIResponse[ReceivableMutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/customers [post]
func (h *ReceivableHandler) CreateCustomerReceivable(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req CreateCustomerReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	cmd := appledger.CreateCustomerReceivableCommand{
		TenantID:     tenantID,
		ActorID:      userID,
		DriverID:     uuid.MustParse(req.DriverID),
		CustomerName: req.CustomerName,
		Type:         ledger.ReceivableType(req.ReceivableType),
		Amount:       req.Amount,
		Quantity:     req.Quantity,
		Size:         ledger.CylinderSize(req.Size),
		Notes:        req.Notes,
	}
	if req.DueDate != "" {
		due, ok := h.dateParam(c, "due_date", req.DueDate)
		if !ok {
			return
		}
		cmd.DueDate = &due
	}

	res, err := h.service.CreateCustomerReceivable(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respondCreated(c, "Customer receivable opened", toMutationResponse(res))
}

// ListCustomerReceivables godoc
// @ID           listCustomerReceivables
// @Summary      List customer receivables
// @Description  Lists receivables with aging status refreshed as of now
// @Tags         receivables
// @Produce      json
// @Param        driver_id query string false "Driver ID" format(uuid)
// @Param        receivable_type query string false "CASH or CYLINDER"
// @Param        status query string false "Comma separated: CURRENT, DUE_SOON, OVERDUE, PAID"
// @Param        open_only query bool false "Only unpaid receivables"
// @Param        customer query string false "Customer name contains"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "asc or desc" default(desc)
// @Success      200 {object} APIResponse[[]CustomerReceivableResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/customers [get]
func (h *ReceivableHandler) ListCustomerReceivables(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var q ListCustomerReceivablesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	filter := ledger.CustomerReceivableFilter{
		TenantID:     tenantID,
		OpenOnly:     q.OpenOnly,
		CustomerName: q.Customer,
		Page:         shared.PageRequest{Page: q.Page, PageSize: q.PageSize},
		OrderBy:      q.OrderBy,
		OrderDir:     q.OrderDir,
	}
	if q.DriverID != "" {
		id := uuid.MustParse(q.DriverID)
		filter.DriverID = &id
	}
	if q.ReceivableType != "" {
		t := ledger.ReceivableType(q.ReceivableType)
		filter.ReceivableType = &t
	}
	for _, st := range statusList(q.Status) {
		if !st.IsValid() {
			h.BadRequest(c, "Unknown receivable status "+string(st))
			return
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	page, err := h.service.ListCustomerReceivables(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toCustomerReceivableResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetCustomerReceivable godoc
// @ID           getCustomerReceivable
// @Summary      Get a customer receivable with its history
// @Tags         receivables
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      200 {object} APIResponse[CustomerReceivableDetailResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/customers/{id} [get]
func (h *ReceivableHandler) GetCustomerReceivable(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receivable ID format")
		return
	}

	history, err := h.service.GetCustomerReceivable(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDetailResponse(history))
}

// ListDriverRecords godoc
// @ID           listDriverReceivableRecords
// @Summary      List a driver's day records
// @Tags         receivables
// @Produce      json
// @Param        driver_id path string true "Driver ID" format(uuid)
// @Param        from query string false "First date (YYYY-MM-DD)"
// @Param        to query string false "Last date (YYYY-MM-DD)"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ReceivableRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/drivers/{driver_id}/records [get]
func (h *ReceivableHandler) ListDriverRecords(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID format")
		return
	}
	var q ListDriverRecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	filter := ledger.ReceivableRecordFilter{
		TenantID:  tenantID,
		DriverIDs: []uuid.UUID{driverID},
		Page:      shared.PageRequest{Page: q.Page, PageSize: q.PageSize},
		OrderBy:   q.OrderBy,
		OrderDir:  q.OrderDir,
	}
	from, ok := h.dateParam(c, "from", q.From)
	if !ok {
		return
	}
	to, ok := h.dateParam(c, "to", q.To)
	if !ok {
		return
	}
	if !from.IsZero() {
		filter.DateFrom = &from
	}
	if !to.IsZero() {
		filter.DateTo = &to
	}

	page, err := h.service.ListDriverRecords(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toRecordResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// ReconcileDriver godoc
// @ID           reconcileDriverReceivables
// @Summary      Reconcile a driver with customer receivables
// @Description  Re-syncs today's driver record totals to the sum of the driver's outstanding customer receivables
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        driver_id path string true "Driver ID" format(uuid)
// @Param        request body ReconcileDriverRequest false "Optional per-size change"
// @Success      200 {object} APIResponse[appledger.ReconciliationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/drivers/{driver_id}/reconcile [post]
func (h *ReceivableHandler) ReconcileDriver(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID format")
		return
	}
	var req ReconcileDriverRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationFailed(c, err)
			return
		}
	}

	res, err := h.service.ReconcileDriver(c.Request.Context(), appledger.ReconcileCommand{
		TenantID:     tenantID,
		ActorID:      userID,
		DriverID:     driverID,
		Trigger:      manualTrigger,
		ChangeBySize: sizeMap(req.ChangeBySize),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	msg := "Driver already reconciled"
	if res.Changed {
		msg = "Driver reconciled"
	}
	c.JSON(http.StatusOK, dto.NewMessageResponse(msg, res))
}

func (h *ReceivableHandler) respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, dto.NewMessageResponse(message, data))
}

// statusList splits a comma separated status filter
func statusList(raw string) []ledger.ReceivableStatus {
	var out []ledger.ReceivableStatus
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, ledger.ReceivableStatus(strings.ToUpper(s)))
		}
	}
	return out
}
