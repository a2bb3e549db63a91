package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
)

// SalesHandler records driver sales and onboarding baselines
type SalesHandler struct {
	BaseHandler
	service SalesRecorder
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(service SalesRecorder) *SalesHandler {
	return &SalesHandler{service: service}
}

// RecordSale godoc
// @ID           recordSale
// @Summary      Record a driver sale
// @Description  Stores the sale and re-syncs the driver's day record from that day's sales
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body RecordSaleRequest true "Sale"
// @Success      201 {object} APIResponse[RecordSaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SalesHandler) RecordSale(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	saleDate, ok := h.dateParam(c, "sale_date", req.SaleDate)
	if !ok {
		return
	}

	res, err := h.service.RecordSale(c.Request.Context(), appledger.RecordSaleCommand{
		TenantID:           tenantID,
		ActorID:            userID,
		DriverID:           uuid.MustParse(req.DriverID),
		ProductID:          uuid.MustParse(req.ProductID),
		SaleDate:           saleDate,
		SaleType:           ledger.SaleType(req.SaleType),
		Quantity:           req.Quantity,
		TotalValue:         req.TotalValue,
		Discount:           req.Discount,
		CashDeposited:      req.CashDeposited,
		CylindersDeposited: req.CylindersDeposited,
		CustomerName:       req.CustomerName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, RecordSaleResponse{Sale: toSaleResponse(res.Sale), Record: toRecordResponse(res.Record)})
}

// OnboardDriver godoc
// @ID           onboardDriver
// @Summary      Seed a driver's opening balances
// @Description  Creates the driver's first day record carrying pre-system cash and cylinder receivables. Drivers with records are rejected.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        driver_id path string true "Driver ID" format(uuid)
// @Param        request body OnboardDriverRequest true "Opening balances"
// @Success      201 {object} APIResponse[ReceivableRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /drivers/{driver_id}/onboarding [post]
func (h *SalesHandler) OnboardDriver(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID format")
		return
	}
	var req OnboardDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	date, ok := h.dateParam(c, "date", req.Date)
	if !ok {
		return
	}

	record, err := h.service.OnboardDriver(c.Request.Context(), appledger.OnboardDriverCommand{
		TenantID:  tenantID,
		ActorID:   userID,
		DriverID:  driverID,
		Date:      date,
		Cash:      req.Cash,
		Cylinders: req.Cylinders,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewMessageResponse("Driver onboarded", toRecordResponse(record)))
}

// SyncDriverDay godoc
// @ID           syncDriverDay
// @Summary      Re-aggregate a driver day from its sales
// @Description  Rebuilds the driver's day record from that day's stored sales and corrects the running totals from that day on
// @Tags         receivables
// @Produce      json
// @Param        driver_id path string true "Driver ID" format(uuid)
// @Param        date query string false "Day to sync (YYYY-MM-DD), default today"
// @Success      200 {object} APIResponse[ReceivableRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/drivers/{driver_id}/sync [post]
func (h *SalesHandler) SyncDriverDay(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID format")
		return
	}
	var q SyncDayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	day, ok := h.dateParam(c, "date", q.Date)
	if !ok {
		return
	}

	record, err := h.service.SyncDailyRecord(c.Request.Context(), tenantID, driverID, day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponse(record))
}
