package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// maxExportRows bounds a single receivables-changes export
const maxExportRows = 50000

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportService reads the audit trail back as the receivables-changes report
type ReportService struct {
	deps Dependencies
}

// NewReportService creates a new ReportService
func NewReportService(deps Dependencies) *ReportService {
	return &ReportService{deps: deps.withDefaults()}
}

// ReceivablesChanges returns a page of decoded audit entries
func (s *ReportService) ReceivablesChanges(ctx context.Context, filter ledger.AuditLogFilter) (shared.Paginated[ChangeRow], error) {
	entries, total, err := s.deps.AuditLogs.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ChangeRow]{}, fmt.Errorf("list audit entries: %w", err)
	}
	rows := make([]ChangeRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, s.changeRow(e))
	}
	return shared.NewPaginated(rows, total, filter.Page), nil
}

// ExportReceivablesChanges renders every entry matching filter as a spreadsheet
func (s *ReportService) ExportReceivablesChanges(ctx context.Context, filter ledger.AuditLogFilter) ([]byte, error) {
	if s.deps.Exporter == nil {
		return nil, errors.New("no changes exporter configured")
	}

	var rows []ChangeRow
	filter.Page = shared.PageRequest{Page: 1, PageSize: shared.MaxPageSize}
	for {
		page, err := s.ReceivablesChanges(ctx, filter)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page.Items...)
		if len(rows) >= maxExportRows {
			return nil, ledger.NewValidationError("export exceeds %d rows; narrow the date range", maxExportRows)
		}
		if page.Page >= page.TotalPages {
			break
		}
		filter.Page.Page++
	}

	data, err := s.deps.Exporter.ExportChanges(rows)
	if err != nil {
		return nil, fmt.Errorf("export receivables changes: %w", err)
	}
	return data, nil
}

func (s *ReportService) changeRow(e *ledger.AuditLog) ChangeRow {
	row := ChangeRow{
		ID:         e.ID,
		At:         e.CreatedAt,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		OldValues:  e.OldValues,
		NewValues:  e.NewValues,
	}

	meta, err := ledger.DecodeMetadata(e.Action, e.Metadata)
	if err != nil {
		s.deps.Logger.Warn("Undecodable audit metadata", zap.String("audit_id", e.ID.String()), zap.Error(err))
		row.Description = string(e.Action)
		return row
	}

	switch m := meta.(type) {
	case ledger.PaymentMetadata:
		row.CustomerName, row.DriverName = m.CustomerName, m.DriverName
		row.Description = fmt.Sprintf("Payment of %s by %s", m.PaymentAmount.StringFixed(2), m.PaymentMethod)
	case ledger.CylinderReturnMetadata:
		row.CustomerName, row.DriverName = m.CustomerName, m.DriverName
		row.Description = fmt.Sprintf("Returned %d x %s cylinders", m.ReturnQuantity, m.Size)
	case ledger.ReconciliationMetadata:
		row.DriverName = m.DriverName
		row.Description = fmt.Sprintf("Driver totals reconciled after %s: cash %s, cylinders %d across %d open receivables",
			m.Trigger, m.OutstandingCash.StringFixed(2), m.OutstandingCylinders, m.OpenReceivables)
	case ledger.RecalculationMetadata:
		row.Description = fmt.Sprintf("Recalculation (%s): %d processed, %d updated, %d failed",
			m.Scope, m.Processed, m.Updated, m.Failed)
	case ledger.OpenReceivableMetadata:
		row.CustomerName = m.CustomerName
		row.Description = fmt.Sprintf("Opened %s receivable", m.Type)
	case ledger.OnboardingMetadata:
		row.DriverName = m.DriverName
		row.Description = fmt.Sprintf("Onboarded with cash %s and %d cylinders", m.Cash.StringFixed(2), m.Cylinders)
	}
	return row
}

// ArchiveKey names the stored changes export of one tenant day
func ArchiveKey(tenantID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("receivables-changes/%s/%s.xlsx", tenantID, ledger.CalendarDay(day).Format("2006-01-02"))
}

// ArchiveDailyChanges stores every tenant's changes export for day. Tenants
// whose export is already stored are skipped, so a rerun only fills gaps.
// Per-tenant failures come back as a *ledger.PartialBatchError with the stats.
func (s *ReportService) ArchiveDailyChanges(ctx context.Context, day time.Time) (ArchiveStats, error) {
	if s.deps.Archive == nil {
		return ArchiveStats{}, ledger.ErrArchiveDisabled
	}
	tenantIDs, err := s.deps.Records.ListTenantIDs(ctx)
	if err != nil {
		return ArchiveStats{}, fmt.Errorf("list tenants: %w", err)
	}

	from, to := ledger.CalendarDay(day), ledger.EndOfDay(day)
	stats := ArchiveStats{Date: from.Format("2006-01-02")}
	failures := &ledger.PartialBatchError{}
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Tenants++
		archived, err := s.archiveTenantDay(ctx, tenantID, from, to)
		switch {
		case err != nil:
			stats.Failed++
			failures.Add(ledger.RecordFailure{TenantID: tenantID, Error: err.Error()})
		case archived:
			stats.Archived++
		default:
			stats.Skipped++
		}
	}

	s.deps.Logger.Info("Archived receivables changes",
		zap.String("date", stats.Date),
		zap.Int("tenants", stats.Tenants),
		zap.Int("archived", stats.Archived),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, failures.OrNil()
}

func (s *ReportService) archiveTenantDay(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (bool, error) {
	key := ArchiveKey(tenantID, from)
	exists, err := s.deps.Archive.ObjectExists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	data, err := s.ExportReceivablesChanges(ctx, ledger.AuditLogFilter{TenantID: tenantID, From: &from, To: &to})
	if err != nil {
		return false, err
	}
	if err := s.deps.Archive.Upload(ctx, key, data, xlsxContentType); err != nil {
		return false, err
	}
	return true, nil
}

// ArchivedChangesURL returns a short-lived download link for a stored export
func (s *ReportService) ArchivedChangesURL(ctx context.Context, tenantID uuid.UUID, day time.Time) (*ArchiveLink, error) {
	if s.deps.Archive == nil {
		return nil, ledger.ErrArchiveDisabled
	}
	key := ArchiveKey(tenantID, day)
	exists, err := s.deps.Archive.ObjectExists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check archive: %w", err)
	}
	if !exists {
		return nil, ledger.ErrArchiveNotFound
	}
	url, expiresAt, err := s.deps.Archive.GenerateDownloadURL(ctx, key, 0)
	if err != nil {
		return nil, fmt.Errorf("sign archive link: %w", err)
	}
	return &ArchiveLink{
		Date:      ledger.CalendarDay(day).Format("2006-01-02"),
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}
