package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// driverPass is the outcome of walking one driver's history
type driverPass struct {
	processed int
	updated   int
	failures  []ledger.RecordFailure
}

// recalculateDriver re-derives one driver's running totals and writes the
// corrections one record at a time. A failed write is collected and the walk
// goes on.
func recalculateDriver(ctx context.Context, records ledger.ReceivableRecordRepository, tenantID, driverID uuid.UUID, tolerance decimal.Decimal, now time.Time) (driverPass, error) {
	history, err := records.FindByDriver(ctx, tenantID, driverID)
	if err != nil {
		return driverPass{}, fmt.Errorf("load records of driver %s: %w", driverID, err)
	}

	pass := driverPass{processed: len(history)}
	for _, c := range ledger.RecalculateRunningTotals(history, tolerance) {
		c.Record.SetTotals(c.NewCash, c.NewCylinders, now)
		if err := records.UpdateTotals(ctx, c.Record); err != nil {
			pass.failures = append(pass.failures, ledger.RecordFailure{
				TenantID: tenantID,
				RecordID: c.RecordID(),
				DriverID: driverID,
				Error:    err.Error(),
			})
			continue
		}
		pass.updated++
	}
	return pass, nil
}

// RecalculationService corrects stored running totals in bulk
type RecalculationService struct {
	deps Dependencies
}

// NewRecalculationService creates a new RecalculationService
func NewRecalculationService(deps Dependencies) *RecalculationService {
	return &RecalculationService{deps: deps.withDefaults()}
}

// RecalculateTenant walks the selected drivers of one tenant. Failures are
// collected per record and returned as a *ledger.PartialBatchError next to
// the stats; the pass itself never stops early.
func (s *RecalculationService) RecalculateTenant(ctx context.Context, cmd RecalculateCommand) (RecalculationStats, error) {
	scope := "tenant"
	switch {
	case cmd.DriverID != nil:
		scope = "driver"
	case cmd.Days > 0:
		scope = "recent"
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "recalculation", "tenant")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrScope, scope,
	)

	started := s.deps.Clock.Now()
	stats, failures, err := s.recalculateTenant(ctx, cmd)
	if err != nil {
		telemetry.RecordError(span, err)
		return stats, err
	}
	telemetry.SetAttributes(span, "processed", stats.Processed, "updated", stats.Updated, "failed", stats.Failed)

	s.audit(ctx, cmd, scope, stats)
	s.deps.Metrics.RecalculationCompleted(scope, stats, s.deps.Clock.Now().Sub(started))
	return stats, failures.OrNil()
}

// RecalculateAllTenants runs a full pass for every tenant with records. A
// tenant whose pass cannot start is reported as a failure of that tenant.
func (s *RecalculationService) RecalculateAllTenants(ctx context.Context, actorID uuid.UUID) (RecalculationStats, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recalculation", "all_tenants")
	defer span.End()

	started := s.deps.Clock.Now()
	tenantIDs, err := s.deps.Records.ListTenantIDs(ctx)
	if err != nil {
		return RecalculationStats{}, fmt.Errorf("list tenants: %w", err)
	}

	var (
		total    RecalculationStats
		failures = &ledger.PartialBatchError{}
	)
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		cmd := RecalculateCommand{TenantID: tenantID, ActorID: actorID}
		stats, tenantFailures, err := s.recalculateTenant(ctx, cmd)
		if err != nil {
			failures.Add(ledger.RecordFailure{TenantID: tenantID, Error: err.Error()})
			total.Failed++
			continue
		}
		s.audit(ctx, cmd, "all_tenants", stats)
		total.add(stats)
		failures.Failures = append(failures.Failures, tenantFailures.Failures...)
	}

	s.deps.Metrics.RecalculationCompleted("all_tenants", total, s.deps.Clock.Now().Sub(started))
	s.deps.Logger.Info("Recalculated all tenants",
		zap.Int("tenants", total.Tenants),
		zap.Int("processed", total.Processed),
		zap.Int("updated", total.Updated),
		zap.Int("failed", total.Failed),
	)
	return total, failures.OrNil()
}

func (s *RecalculationService) recalculateTenant(ctx context.Context, cmd RecalculateCommand) (RecalculationStats, *ledger.PartialBatchError, error) {
	failures := &ledger.PartialBatchError{}

	if s.deps.Locker != nil {
		unlock, err := s.deps.Locker.TryLock(ctx, "recalculate:"+cmd.TenantID.String(), s.deps.Settings.RecalculationLockTTL)
		if errors.Is(err, ErrLockNotAcquired) {
			return RecalculationStats{}, failures, ledger.ErrRecalculationBusy
		}
		if err != nil {
			return RecalculationStats{}, failures, fmt.Errorf("acquire recalculation lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.deps.Logger.Warn("Failed to release recalculation lock", zap.String("tenant_id", cmd.TenantID.String()), zap.Error(err))
			}
		}()
	}

	driverIDs, err := s.selectDrivers(ctx, cmd)
	if err != nil {
		return RecalculationStats{}, failures, err
	}

	stats := RecalculationStats{Tenants: 1, Drivers: len(driverIDs)}
	now := s.deps.Clock.Now()
	for _, driverID := range driverIDs {
		if err := ctx.Err(); err != nil {
			return stats, failures, err
		}
		pass, err := recalculateDriver(ctx, s.deps.Records, cmd.TenantID, driverID, s.deps.Settings.CashTolerance, now)
		if err != nil {
			failures.Add(ledger.RecordFailure{TenantID: cmd.TenantID, DriverID: driverID, Error: err.Error()})
			stats.Failed++
			continue
		}
		stats.Processed += pass.processed
		stats.Updated += pass.updated
		stats.Failed += len(pass.failures)
		failures.Failures = append(failures.Failures, pass.failures...)
	}

	if stats.Updated > 0 {
		if err := s.deps.Cache.InvalidateTenant(ctx, cmd.TenantID); err != nil {
			s.deps.Logger.Warn("Failed to invalidate ledger cache", zap.String("tenant_id", cmd.TenantID.String()), zap.Error(err))
		}
	}
	return stats, failures, nil
}

func (s *RecalculationService) selectDrivers(ctx context.Context, cmd RecalculateCommand) ([]uuid.UUID, error) {
	if cmd.DriverID != nil {
		return []uuid.UUID{*cmd.DriverID}, nil
	}
	var since time.Time
	if cmd.Days > 0 {
		since = ledger.CalendarDay(s.deps.Clock.Now()).AddDate(0, 0, -cmd.Days)
	}
	ids, err := s.deps.Records.DriversWithRecordsSince(ctx, cmd.TenantID, since)
	if err != nil {
		return nil, fmt.Errorf("select drivers: %w", err)
	}
	return ids, nil
}

func (s *RecalculationService) audit(ctx context.Context, cmd RecalculateCommand, scope string, stats RecalculationStats) {
	if s.deps.AuditLogs == nil || stats.Updated == 0 && stats.Failed == 0 {
		return
	}
	entry := ledger.NewAuditLog(cmd.TenantID, cmd.ActorID, ledger.AuditEntityReceivableRecord, cmd.TenantID, nil, nil,
		ledger.RecalculationMetadata{
			Scope:     scope,
			Days:      cmd.Days,
			Processed: stats.Processed,
			Updated:   stats.Updated,
			Failed:    stats.Failed,
		}, s.deps.Clock.Now())
	if err := s.deps.AuditLogs.Append(ctx, entry); err != nil {
		s.deps.Logger.Warn("Failed to write recalculation audit entry", zap.String("tenant_id", cmd.TenantID.String()), zap.Error(err))
	}
}
