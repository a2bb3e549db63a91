package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the read side: size breakdown, asset valuation and
// the receivables-changes report
type ReportHandler struct {
	BaseHandler
	breakdown BreakdownCalculator
	valuation AssetValuer
	changes   ChangesReporter
	now       func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(breakdown BreakdownCalculator, valuation AssetValuer, changes ChangesReporter) *ReportHandler {
	return &ReportHandler{breakdown: breakdown, valuation: valuation, changes: changes, now: time.Now}
}

// asOf reads an optional YYYY-MM-DD date, defaulting to today
func (h *ReportHandler) asOf(raw string) (time.Time, error) {
	day, err := parseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if day.IsZero() {
		return ledger.CalendarDay(h.now()), nil
	}
	return day, nil
}

// SizeBreakdown godoc
// @ID           getReceivablesSizeBreakdown
// @Summary      Cylinder receivables per size
// @Description  Splits each driver's latest cylinder receivable across the sizes of the driver's refill deposits
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "Date (YYYY-MM-DD), default today"
// @Success      200 {object} APIResponse[ledger.SizeBreakdown]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/size-breakdown [get]
func (h *ReportHandler) SizeBreakdown(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	asOf, err := h.asOf(c.Query("as_of"))
	if err != nil {
		h.BadRequest(c, "as_of must be a date in the format YYYY-MM-DD")
		return
	}

	breakdown, err := h.breakdown.CalculateExactReceivablesBySize(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, breakdown)
}

// ValidateSizeBreakdown godoc
// @ID           validateReceivablesSizeBreakdown
// @Summary      Compare the size breakdown with counted cylinders
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        request body ValidateBreakdownRequest true "Expected counts"
// @Success      200 {object} APIResponse[appledger.BreakdownValidation]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/size-breakdown/validate [post]
func (h *ReportHandler) ValidateSizeBreakdown(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var req ValidateBreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	asOf, _ := h.asOf(req.AsOf)

	res, err := h.breakdown.ValidateBreakdown(c.Request.Context(), tenantID, asOf, sizeMap(req.Expected), req.Tolerance)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// AssetValuation godoc
// @ID           getAssetValuation
// @Summary      Value cylinder stock and receivables
// @Description  Prices may be overridden per size with price[SIZE]=amount
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "Date (YYYY-MM-DD), default today"
// @Success      200 {object} APIResponse[ledger.AssetValuation]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /assets/valuation [get]
func (h *ReportHandler) AssetValuation(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	asOf, err := h.asOf(c.Query("as_of"))
	if err != nil {
		h.BadRequest(c, "as_of must be a date in the format YYYY-MM-DD")
		return
	}
	q := appledger.ValuationQuery{TenantID: tenantID, AsOf: asOf}
	for size, raw := range c.QueryMap("price") {
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			h.BadRequest(c, fmt.Sprintf("price[%s] must be a non-negative number", size))
			return
		}
		if q.PriceOverrides == nil {
			q.PriceOverrides = map[ledger.CylinderSize]decimal.Decimal{}
		}
		q.PriceOverrides[ledger.CylinderSize(size)] = price
	}

	valuation, err := h.valuation.ValueAssets(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, valuation)
}

// Changes godoc
// @ID           listReceivablesChanges
// @Summary      Receivables changes report
// @Tags         reports
// @Produce      json
// @Param        action query string false "Comma separated audit actions"
// @Param        entity_id query string false "Receivable or record ID" format(uuid)
// @Param        from query string false "First date (YYYY-MM-DD)"
// @Param        to query string false "Last date (YYYY-MM-DD)"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appledger.ChangeRow]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/changes [get]
func (h *ReportHandler) Changes(c *gin.Context) {
	filter, ok := h.changesFilter(c)
	if !ok {
		return
	}
	page, err := h.changes.ReceivablesChanges(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ExportChanges godoc
// @ID           exportReceivablesChanges
// @Summary      Export the receivables changes report
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        action query string false "Comma separated audit actions"
// @Param        from query string false "First date (YYYY-MM-DD)"
// @Param        to query string false "Last date (YYYY-MM-DD)"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/changes/export [get]
func (h *ReportHandler) ExportChanges(c *gin.Context) {
	filter, ok := h.changesFilter(c)
	if !ok {
		return
	}
	data, err := h.changes.ExportReceivablesChanges(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	name := fmt.Sprintf("receivables-changes-%s.xlsx", h.now().UTC().Format(dateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ArchivedChanges godoc
// @ID           getArchivedReceivablesChanges
// @Summary      Link to an archived receivables changes export
// @Description  Returns a short-lived download link to the stored export of one day
// @Tags         reports
// @Produce      json
// @Param        date query string false "Archived day (YYYY-MM-DD), default yesterday"
// @Success      200 {object} APIResponse[appledger.ArchiveLink]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/changes/archive [get]
func (h *ReportHandler) ArchivedChanges(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	day, ok := h.archiveDay(c)
	if !ok {
		return
	}
	link, err := h.changes.ArchivedChangesURL(c.Request.Context(), tenantID, day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// ArchiveChanges godoc
// @ID           archiveReceivablesChanges
// @Summary      Archive one day of receivables changes for every tenant
// @Description  Stores each tenant's export in object storage. Days already stored are skipped.
// @Tags         admin
// @Produce      json
// @Param        date query string false "Day to archive (YYYY-MM-DD), default yesterday"
// @Success      200 {object} dto.Response
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/receivables/changes/archive [post]
func (h *ReportHandler) ArchiveChanges(c *gin.Context) {
	day, ok := h.archiveDay(c)
	if !ok {
		return
	}
	stats, err := h.changes.ArchiveDailyChanges(c.Request.Context(), day)
	var partial *ledger.PartialBatchError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.NewBatchResponse(
			fmt.Sprintf("Archived %d tenants, %d already stored", stats.Archived, stats.Skipped), stats, nil))
	case errors.As(err, &partial):
		c.JSON(http.StatusOK, dto.NewBatchResponse(
			fmt.Sprintf("Archived %d tenants, %d failed", stats.Archived, len(partial.Failures)), stats, partial.Failures))
	default:
		h.HandleError(c, err)
	}
}

// archiveDay reads the optional date query, defaulting to yesterday
func (h *ReportHandler) archiveDay(c *gin.Context) (time.Time, bool) {
	var q ArchiveDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return time.Time{}, false
	}
	day, ok := h.dateParam(c, "date", q.Date)
	if !ok {
		return time.Time{}, false
	}
	if day.IsZero() {
		day = ledger.CalendarDay(h.now()).AddDate(0, 0, -1)
	}
	return day, true
}

func (h *ReportHandler) changesFilter(c *gin.Context) (ledger.AuditLogFilter, bool) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return ledger.AuditLogFilter{}, false
	}
	var q ListChangesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return ledger.AuditLogFilter{}, false
	}

	filter := ledger.AuditLogFilter{
		TenantID: tenantID,
		Page:     shared.PageRequest{Page: q.Page, PageSize: q.PageSize},
	}
	for _, a := range strings.Split(q.Action, ",") {
		if a = strings.TrimSpace(a); a != "" {
			filter.Actions = append(filter.Actions, ledger.AuditAction(strings.ToUpper(a)))
		}
	}
	if q.EntityID != "" {
		id := uuid.MustParse(q.EntityID)
		filter.EntityID = &id
	}
	from, ok := h.dateParam(c, "from", q.From)
	if !ok {
		return ledger.AuditLogFilter{}, false
	}
	to, ok := h.dateParam(c, "to", q.To)
	if !ok {
		return ledger.AuditLogFilter{}, false
	}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		end := ledger.EndOfDay(to)
		filter.To = &end
	}
	return filter, true
}
