package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
)

// RecalculationHandler triggers running-total recalculation passes
type RecalculationHandler struct {
	BaseHandler
	service     Recalculator
	defaultDays int
}

// NewRecalculationHandler creates a new RecalculationHandler. defaultDays
// applies when ?days is absent on the recent-drivers endpoint.
func NewRecalculationHandler(service Recalculator, defaultDays int) *RecalculationHandler {
	return &RecalculationHandler{service: service, defaultDays: defaultDays}
}

// Recalculate godoc
// @ID           recalculateRecentReceivables
// @Summary      Recalculate recently active drivers
// @Description  Walks the full history of every driver with records in the last N days (0 walks every driver). Record failures are reported in errors and do not fail the request.
// @Tags         recalculation
// @Produce      json
// @Param        days query int false "Look-back window in days"
// @Param        driver_id query string false "Restrict to one driver" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/recalculate [post]
func (h *RecalculationHandler) Recalculate(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	cmd := appledger.RecalculateCommand{TenantID: tenantID, ActorID: userID, Days: h.defaultDays}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			h.BadRequest(c, "days must be a non-negative integer")
			return
		}
		cmd.Days = days
	}
	if raw := c.Query("driver_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid driver ID format")
			return
		}
		cmd.DriverID = &id
	}

	stats, err := h.service.RecalculateTenant(c.Request.Context(), cmd)
	h.respondBatch(c, stats, err)
}

// RecalculateAll godoc
// @ID           recalculateAllReceivables
// @Summary      Recalculate every driver of the tenant
// @Tags         recalculation
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/recalculate-all [post]
func (h *RecalculationHandler) RecalculateAll(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	stats, err := h.service.RecalculateTenant(c.Request.Context(), appledger.RecalculateCommand{TenantID: tenantID, ActorID: userID})
	h.respondBatch(c, stats, err)
}

// RecalculateAllTenants godoc
// @ID           recalculateAllTenantsReceivables
// @Summary      Recalculate every tenant
// @Description  Superuser only. A tenant whose pass is already running is reported in errors.
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/receivables/recalculate-all-tenants [post]
func (h *RecalculationHandler) RecalculateAllTenants(c *gin.Context) {
	_, userID, ok := h.caller(c)
	if !ok {
		return
	}
	stats, err := h.service.RecalculateAllTenants(c.Request.Context(), userID)
	h.respondBatch(c, stats, err)
}

// respondBatch separates the three outcomes of a pass: clean, finished with
// record failures (200 with errors), and failed outright.
func (h *RecalculationHandler) respondBatch(c *gin.Context, stats appledger.RecalculationStats, err error) {
	var partial *ledger.PartialBatchError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.NewBatchResponse(
			fmt.Sprintf("Recalculated %d records, %d updated", stats.Processed, stats.Updated), stats, nil))
	case errors.As(err, &partial):
		c.JSON(http.StatusOK, dto.NewBatchResponse(
			fmt.Sprintf("Recalculated %d records, %d updated, %d failed", stats.Processed, stats.Updated, len(partial.Failures)),
			stats, partial.Failures))
	default:
		h.HandleError(c, err)
	}
}
