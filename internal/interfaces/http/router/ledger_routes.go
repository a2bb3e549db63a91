package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lpgledger/backend/internal/infrastructure/auth"
	"github.com/lpgledger/backend/internal/interfaces/http/handler"
	"github.com/lpgledger/backend/internal/interfaces/http/middleware"
)

// LedgerHandlers are the handlers mounted under the versioned API
type LedgerHandlers struct {
	Receivables   *handler.ReceivableHandler
	Recalculation *handler.RecalculationHandler
	Reports       *handler.ReportHandler
	Sales         *handler.SalesHandler
	System        *handler.SystemHandler
}

// recalculationRoles may start tenant-wide passes
var recalculationRoles = []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RoleSuperuser}

// LedgerGroups builds the route groups of the ledger API. Tenant scoping is
// enforced by the handlers from the token; role checks sit on the routes.
func LedgerGroups(h LedgerHandlers) []*DomainGroup {
	canRecalculate := middleware.RequireRole(recalculationRoles...)

	receivables := NewDomainGroup("receivables", "/receivables")
	receivables.POST("/payments", h.Receivables.RecordPayment)
	receivables.POST("/cylinder-returns", h.Receivables.RecordCylinderReturn)
	receivables.GET("/customers", h.Receivables.ListCustomerReceivables)
	receivables.POST("/customers", h.Receivables.CreateCustomerReceivable)
	receivables.GET("/customers/:id", h.Receivables.GetCustomerReceivable)
	receivables.GET("/drivers/:driver_id/records", h.Receivables.ListDriverRecords)
	receivables.POST("/drivers/:driver_id/reconcile", h.Receivables.ReconcileDriver)
	receivables.POST("/drivers/:driver_id/sync", canRecalculate, h.Sales.SyncDriverDay)
	receivables.POST("/recalculate", canRecalculate, h.Recalculation.Recalculate)
	receivables.POST("/recalculate-all", canRecalculate, h.Recalculation.RecalculateAll)
	receivables.GET("/size-breakdown", h.Reports.SizeBreakdown)
	receivables.POST("/size-breakdown/validate", h.Reports.ValidateSizeBreakdown)
	receivables.GET("/changes", h.Reports.Changes)
	receivables.GET("/changes/export", h.Reports.ExportChanges)
	receivables.GET("/changes/archive", h.Reports.ArchivedChanges)

	admin := NewDomainGroup("admin", "/admin").Use(middleware.RequireRole(auth.RoleSuperuser))
	admin.POST("/receivables/recalculate-all-tenants", h.Recalculation.RecalculateAllTenants)
	admin.POST("/receivables/changes/archive", h.Reports.ArchiveChanges)

	sales := NewDomainGroup("sales", "/sales")
	sales.POST("", h.Sales.RecordSale)

	drivers := NewDomainGroup("drivers", "/drivers")
	drivers.POST("/:driver_id/onboarding", h.Sales.OnboardDriver)

	assets := NewDomainGroup("assets", "/assets")
	assets.GET("/valuation", h.Reports.AssetValuation)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{receivables, admin, sales, drivers, assets, system}
}

// RegisterLedger mounts the ledger groups on r
func RegisterLedger(r *Router, h LedgerHandlers) *Router {
	for _, g := range LedgerGroups(h) {
		r.Register(g)
	}
	return r
}

// RootRoutes mounts the unversioned endpoints: health, metrics and docs.
// metrics and docs are skipped when nil.
func RootRoutes(engine *gin.Engine, system *handler.SystemHandler, metrics gin.HandlerFunc, docs ...gin.HandlerFunc) {
	engine.GET("/health", system.Health)
	if metrics != nil {
		engine.GET("/metrics", metrics)
	}
	if len(docs) > 0 {
		engine.GET("/swagger/*any", docs...)
	}
}
