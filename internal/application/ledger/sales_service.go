package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SalesService records driver sales and keeps each driver's day record
// equal to the aggregate of that day's sales
type SalesService struct {
	deps Dependencies
}

// NewSalesService creates a new SalesService
func NewSalesService(deps Dependencies) *SalesService {
	return &SalesService{deps: deps.withDefaults()}
}

// RecordSale stores a sale and re-syncs the driver's day record in the same
// transaction, then re-walks the driver's later records.
func (s *SalesService) RecordSale(ctx context.Context, cmd RecordSaleCommand) (*RecordSaleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrDriverID, cmd.DriverID.String(),
		telemetry.SpanAttrQuantity, cmd.Quantity,
	)

	product, err := s.deps.Products.FindByIDForTenant(ctx, cmd.TenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	var result RecordSaleResult
	err = s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		driver, err := repos.Drivers().FindByIDForTenant(ctx, cmd.TenantID, cmd.DriverID)
		if err != nil {
			return err
		}
		if err := driver.EnsureLedgerEligible(); err != nil {
			return err
		}

		sale, err := ledger.NewSale(cmd.TenantID, ledger.SaleInput{
			DriverID:           cmd.DriverID,
			Product:            product,
			SaleDate:           cmd.SaleDate,
			SaleType:           cmd.SaleType,
			Quantity:           cmd.Quantity,
			TotalValue:         cmd.TotalValue,
			Discount:           cmd.Discount,
			CashDeposited:      cmd.CashDeposited,
			CylindersDeposited: cmd.CylindersDeposited,
			CustomerName:       cmd.CustomerName,
		})
		if err != nil {
			return err
		}
		if err := repos.Sales().Save(ctx, sale); err != nil {
			return fmt.Errorf("save sale: %w", err)
		}

		record, err := s.syncDailyRecord(ctx, repos.Sales(), repos.Records(), cmd.TenantID, cmd.DriverID, sale.SaleDate)
		if err != nil {
			return err
		}
		result.Sale, result.Record = sale, record
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.walkDriver(ctx, cmd.TenantID, cmd.DriverID)
	s.invalidate(ctx, cmd.TenantID)
	return &result, nil
}

// SyncDailyRecord re-aggregates one driver day from its sales and corrects
// the driver's running totals from that day on. A zero date means today.
func (s *SalesService) SyncDailyRecord(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) (*ledger.ReceivableRecord, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "sync_daily_record")
	defer span.End()

	if date.IsZero() {
		date = s.deps.Clock.Now()
	}
	var record *ledger.ReceivableRecord
	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		driver, err := repos.Drivers().FindByIDForTenant(ctx, tenantID, driverID)
		if err != nil {
			return err
		}
		if err := driver.EnsureLedgerEligible(); err != nil {
			return err
		}
		record, err = s.syncDailyRecord(ctx, repos.Sales(), repos.Records(), tenantID, driverID, date)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.walkDriver(ctx, tenantID, driverID)
	s.invalidate(ctx, tenantID)
	return record, nil
}

func (s *SalesService) syncDailyRecord(
	ctx context.Context,
	sales ledger.SaleRepository,
	records ledger.ReceivableRecordRepository,
	tenantID, driverID uuid.UUID,
	date time.Time,
) (*ledger.ReceivableRecord, error) {
	day := ledger.CalendarDay(date)
	daySales, err := sales.FindByDriverAndDate(ctx, tenantID, driverID, day)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	change := ledger.AggregateSales(daySales)

	history, err := records.FindByDriver(ctx, tenantID, driverID)
	if err != nil {
		return nil, fmt.Errorf("load driver records: %w", err)
	}
	record := findOnDate(history, day)
	if record == nil {
		record = ledger.NewReceivableRecord(tenantID, driverID, day)
	}
	record.ApplyDailyChange(change)

	carryCash, carryCylinders := ledger.CarryBefore(history, day)
	cash, cylinders := record.ExpectedTotals(carryCash, carryCylinders)
	record.SetTotals(cash, cylinders, s.deps.Clock.Now())
	if err := records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save driver record: %w", err)
	}

	s.deps.Logger.Debug("Driver day record synced",
		zap.String("driver_id", driverID.String()),
		zap.Time("date", day),
		zap.Int("sales", change.SaleCount),
		zap.String("cash_change", change.Cash.String()),
		zap.Int("cylinder_change", change.Cylinders),
	)
	return record, nil
}

// OnboardDriver seeds a driver's pre-system balances as the driver's first
// record. Drivers that already have records are rejected.
func (s *SalesService) OnboardDriver(ctx context.Context, cmd OnboardDriverCommand) (*ledger.ReceivableRecord, error) {
	var record *ledger.ReceivableRecord
	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		driver, err := repos.Drivers().FindByIDForTenant(ctx, cmd.TenantID, cmd.DriverID)
		if err != nil {
			return err
		}
		if err := driver.EnsureLedgerEligible(); err != nil {
			return err
		}
		history, err := repos.Records().FindByDriver(ctx, cmd.TenantID, cmd.DriverID)
		if err != nil {
			return fmt.Errorf("load driver records: %w", err)
		}
		if len(history) > 0 {
			return ledger.NewValidationError("driver %s already has ledger records", driver.Name)
		}

		date := cmd.Date
		if date.IsZero() {
			date = s.deps.Clock.Now()
		}
		record, err = ledger.NewOnboardingRecord(cmd.TenantID, cmd.DriverID, date, cmd.Cash, cmd.Cylinders)
		if err != nil {
			return err
		}
		record.SetTotals(record.TotalCashReceivables, record.TotalCylinderReceivables, s.deps.Clock.Now())
		if err := repos.Records().Save(ctx, record); err != nil {
			return fmt.Errorf("save onboarding record: %w", err)
		}

		entry := ledger.NewAuditLog(cmd.TenantID, cmd.ActorID, ledger.AuditEntityReceivableRecord, record.ID,
			nil, recordValues(record.TotalCashReceivables, record.TotalCylinderReceivables),
			ledger.OnboardingMetadata{DriverName: driver.Name, Cash: cmd.Cash, Cylinders: cmd.Cylinders},
			s.deps.Clock.Now())
		return repos.AuditLogs().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cmd.TenantID)
	return record, nil
}

// walkDriver corrects the records after a changed day. Failures only leave
// totals stale until the next recalculation pass, so they are logged.
func (s *SalesService) walkDriver(ctx context.Context, tenantID, driverID uuid.UUID) {
	pass, err := recalculateDriver(ctx, s.deps.Records, tenantID, driverID, s.deps.Settings.CashTolerance, s.deps.Clock.Now())
	if err == nil && len(pass.failures) > 0 {
		err = &ledger.PartialBatchError{Failures: pass.failures}
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.deps.Logger.Warn("Failed to recalculate driver records",
			zap.String("tenant_id", tenantID.String()),
			zap.String("driver_id", driverID.String()),
			zap.Error(err),
		)
	}
}

func (s *SalesService) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if err := s.deps.Cache.InvalidateTenant(ctx, tenantID); err != nil {
		s.deps.Logger.Warn("Failed to invalidate ledger cache", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}
