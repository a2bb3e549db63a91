// Package bootstrap assembles the ledger services from configuration. It is
// shared by the HTTP server and the recalculation command.
package bootstrap

import (
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/cache"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/lpgledger/backend/internal/infrastructure/persistence"
	"github.com/lpgledger/backend/internal/infrastructure/report"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerSettings converts the ledger configuration. Zero values fall back to
// the service defaults.
func LedgerSettings(cfg config.LedgerConfig) appledger.Settings {
	return appledger.Settings{
		CashTolerance:        decimal.NewFromFloat(cfg.CashTolerance),
		EmptyPriceRatio:      decimal.NewFromFloat(cfg.EmptyCylinderPriceRatio),
		DueSoonWindow:        cfg.DueSoonWindow,
		CacheTTL:             cfg.BreakdownCacheTTL,
		RecalculationLockTTL: cfg.RecalculationLockTTL,
		DefaultDays:          cfg.DefaultRecalculateDays,
	}
}

// LedgerDependencies wires the gorm repositories, the outbox-aware
// transaction scope and the cache backends. metrics may be nil.
func LedgerDependencies(
	db *gorm.DB,
	outbox shared.OutboxEventSaver,
	backends *cache.Backends,
	metrics appledger.LedgerMetrics,
	cfg config.LedgerConfig,
	logger *zap.Logger,
) appledger.Dependencies {
	deps := appledger.Dependencies{
		TxScope:     persistence.NewGormTransactionScope(db, outbox),
		Records:     persistence.NewGormReceivableRecordRepository(db),
		Sales:       persistence.NewGormSaleRepository(db),
		Receivables: persistence.NewGormCustomerReceivableRepository(db),
		Drivers:     persistence.NewGormDriverRepository(db),
		Products:    persistence.NewGormProductRepository(db),
		Inventory:   persistence.NewGormInventoryRecordRepository(db),
		AuditLogs:   persistence.NewGormAuditLogRepository(db),
		Metrics:     metrics,
		Exporter:    report.NewExcelExporter(),
		Clock:       appledger.SystemClock{},
		Logger:      logger,
		Settings:    LedgerSettings(cfg),
	}
	if backends != nil {
		deps.Cache = backends.Cache
		deps.Locker = backends.Locker
	}
	return deps
}

// LedgerServices groups the services built from one Dependencies value
type LedgerServices struct {
	Ledger        *appledger.LedgerService
	Recalculation *appledger.RecalculationService
	Sales         *appledger.SalesService
	Breakdown     *appledger.SizeBreakdownService
	Valuation     *appledger.AssetValuationService
	Reports       *appledger.ReportService
}

// NewLedgerServices builds every ledger service
func NewLedgerServices(deps appledger.Dependencies) *LedgerServices {
	return &LedgerServices{
		Ledger:        appledger.NewLedgerService(deps),
		Recalculation: appledger.NewRecalculationService(deps),
		Sales:         appledger.NewSalesService(deps),
		Breakdown:     appledger.NewSizeBreakdownService(deps),
		Valuation:     appledger.NewAssetValuationService(deps),
		Reports:       appledger.NewReportService(deps),
	}
}
