package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
)

// ReceivableService is the customer ledger as the handlers see it.
// appledger.LedgerService implements it.
type ReceivableService interface {
	CreateCustomerReceivable(ctx context.Context, cmd appledger.CreateCustomerReceivableCommand) (*appledger.ReceivableMutationResult, error)
	RecordPayment(ctx context.Context, cmd appledger.RecordPaymentCommand) (*appledger.ReceivableMutationResult, error)
	RecordCylinderReturn(ctx context.Context, cmd appledger.RecordCylinderReturnCommand) (*appledger.ReceivableMutationResult, error)
	ReconcileDriver(ctx context.Context, cmd appledger.ReconcileCommand) (*appledger.ReconciliationResult, error)
	ListCustomerReceivables(ctx context.Context, filter ledger.CustomerReceivableFilter) (shared.Paginated[*ledger.CustomerReceivable], error)
	GetCustomerReceivable(ctx context.Context, tenantID, id uuid.UUID) (*appledger.CustomerReceivableHistory, error)
	ListDriverRecords(ctx context.Context, filter ledger.ReceivableRecordFilter) (shared.Paginated[*ledger.ReceivableRecord], error)
}

// Recalculator runs recalculation passes
type Recalculator interface {
	RecalculateTenant(ctx context.Context, cmd appledger.RecalculateCommand) (appledger.RecalculationStats, error)
	RecalculateAllTenants(ctx context.Context, actorID uuid.UUID) (appledger.RecalculationStats, error)
}

// SalesRecorder records sales and onboarding baselines
type SalesRecorder interface {
	RecordSale(ctx context.Context, cmd appledger.RecordSaleCommand) (*appledger.RecordSaleResult, error)
	OnboardDriver(ctx context.Context, cmd appledger.OnboardDriverCommand) (*ledger.ReceivableRecord, error)
	SyncDailyRecord(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) (*ledger.ReceivableRecord, error)
}

// BreakdownCalculator computes cylinder receivables per size
type BreakdownCalculator interface {
	CalculateExactReceivablesBySize(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (ledger.SizeBreakdown, error)
	ValidateBreakdown(ctx context.Context, tenantID uuid.UUID, asOf time.Time, expected map[ledger.CylinderSize]int, tolerance int) (*appledger.BreakdownValidation, error)
}

// AssetValuer values cylinder stock and receivables
type AssetValuer interface {
	ValueAssets(ctx context.Context, q appledger.ValuationQuery) (ledger.AssetValuation, error)
}

// ChangesReporter serves the receivables-changes report
type ChangesReporter interface {
	ReceivablesChanges(ctx context.Context, filter ledger.AuditLogFilter) (shared.Paginated[appledger.ChangeRow], error)
	ExportReceivablesChanges(ctx context.Context, filter ledger.AuditLogFilter) ([]byte, error)
	ArchiveDailyChanges(ctx context.Context, day time.Time) (appledger.ArchiveStats, error)
	ArchivedChangesURL(ctx context.Context, tenantID uuid.UUID, day time.Time) (*appledger.ArchiveLink, error)
}

var (
	_ ReceivableService   = (*appledger.LedgerService)(nil)
	_ Recalculator        = (*appledger.RecalculationService)(nil)
	_ SalesRecorder       = (*appledger.SalesService)(nil)
	_ BreakdownCalculator = (*appledger.SizeBreakdownService)(nil)
	_ AssetValuer         = (*appledger.AssetValuationService)(nil)
	_ ChangesReporter     = (*appledger.ReportService)(nil)
)
