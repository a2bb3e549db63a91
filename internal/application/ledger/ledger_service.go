package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reconciliation triggers recorded in audit metadata and event reasons
const (
	TriggerPayment        = "payment"
	TriggerCylinderReturn = "cylinder_return"
	TriggerOpenReceivable = "open_receivable"
	TriggerManual         = "manual"
)

// LedgerService records customer payments and cylinder returns and keeps
// the driver day records in step with the open customer receivables.
type LedgerService struct {
	deps Dependencies
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(deps Dependencies) *LedgerService {
	return &LedgerService{deps: deps.withDefaults()}
}

// CreateCustomerReceivable opens a debt on an eligible driver's route and
// reconciles the driver afterwards.
func (s *LedgerService) CreateCustomerReceivable(ctx context.Context, cmd CreateCustomerReceivableCommand) (*ReceivableMutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_receivable", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrDriverID, cmd.DriverID.String(),
		telemetry.SpanAttrCustomerName, cmd.CustomerName,
	)

	now := s.deps.Clock.Now()
	var cr *ledger.CustomerReceivable
	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		driver, err := repos.Drivers().FindByIDForTenant(ctx, cmd.TenantID, cmd.DriverID)
		if err != nil {
			return err
		}
		if err := driver.EnsureLedgerEligible(); err != nil {
			return err
		}

		cr, err = ledger.NewCustomerReceivable(cmd.TenantID, ledger.NewCustomerReceivableInput{
			DriverID:     cmd.DriverID,
			CustomerName: cmd.CustomerName,
			Type:         cmd.Type,
			Amount:       cmd.Amount,
			Quantity:     cmd.Quantity,
			Size:         cmd.Size,
			DueDate:      cmd.DueDate,
			Notes:        cmd.Notes,
		})
		if err != nil {
			return err
		}
		cr.RefreshAgingStatus(now, s.deps.Settings.DueSoonWindow)
		if err := repos.CustomerReceivables().Save(ctx, cr); err != nil {
			return fmt.Errorf("save customer receivable: %w", err)
		}

		entry := ledger.NewAuditLog(cmd.TenantID, cmd.ActorID, ledger.AuditEntityCustomerReceivable, cr.ID,
			nil, receivableValues(cr),
			ledger.OpenReceivableMetadata{Type: cr.ReceivableType, CustomerName: cr.CustomerName, Size: cr.Size}, now)
		return repos.AuditLogs().Append(ctx, entry)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var changeBySize map[ledger.CylinderSize]int
	if cr.ReceivableType == ledger.ReceivableTypeCylinder {
		changeBySize = map[ledger.CylinderSize]int{cr.Size: cr.Quantity}
	}
	result := &ReceivableMutationResult{Receivable: cr}
	result.Reconciliation = s.reconcileAfterCommit(ctx, ReconcileCommand{
		TenantID:     cmd.TenantID,
		ActorID:      cmd.ActorID,
		DriverID:     cr.DriverID,
		Trigger:      TriggerOpenReceivable,
		ChangeBySize: changeBySize,
	})
	s.invalidate(ctx, cmd.TenantID)
	return result, nil
}

// RecordPayment collects cash against a CASH receivable. The decrement, the
// payment row, the synthetic deposit sale, the audit entry and the outbox
// events commit together or not at all.
func (s *LedgerService) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*ReceivableMutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_receivable", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrReceivableID, cmd.ReceivableID.String(),
		telemetry.SpanAttrAmount, cmd.Amount.String(),
	)

	now := s.deps.Clock.Now()
	result := &ReceivableMutationResult{}
	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cr, driver, err := loadEligible(ctx, repos, cmd.TenantID, cmd.ReceivableID)
		if err != nil {
			return err
		}

		oldValues := receivableValues(cr)
		payment, err := cr.ApplyPayment(ledger.PaymentInput{
			Amount:     cmd.Amount,
			Method:     cmd.Method,
			Notes:      cmd.Notes,
			RecordedBy: cmd.ActorID,
			At:         now,
			DriverName: driver.Name,
		})
		if err != nil {
			return err
		}
		if err := repos.CustomerReceivables().Save(ctx, cr); err != nil {
			return fmt.Errorf("save customer receivable: %w", err)
		}
		if err := repos.CustomerReceivables().SavePaymentEvent(ctx, payment); err != nil {
			return fmt.Errorf("save payment event: %w", err)
		}

		sale, err := depositSaleFor(ctx, repos.Sales(), cr, now)
		if err != nil {
			return err
		}
		sale.AddCashDeposit(payment.Amount, now)
		if err := repos.Sales().Save(ctx, sale); err != nil {
			return fmt.Errorf("save deposit sale: %w", err)
		}

		entry := ledger.NewAuditLog(cmd.TenantID, cmd.ActorID, ledger.AuditEntityCustomerReceivable, cr.ID,
			oldValues, receivableValues(cr),
			ledger.PaymentMetadata{
				PaymentAmount:  payment.Amount,
				PaymentMethod:  payment.Method,
				PaymentEventID: payment.ID,
				CustomerName:   cr.CustomerName,
				DriverName:     driver.Name,
			}, now)
		if err := repos.AuditLogs().Append(ctx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		if err := repos.PublishEvents(ctx, cr.GetDomainEvents()...); err != nil {
			return fmt.Errorf("publish events: %w", err)
		}

		result.Receivable, result.Payment, result.DepositSale = cr, payment, sale
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.Receivable.ClearDomainEvents()

	s.deps.Metrics.PaymentRecorded(result.Payment.Method, result.Payment.Amount)
	s.deps.Logger.Info("Customer payment recorded",
		zap.String("tenant_id", cmd.TenantID.String()),
		zap.String("receivable_id", cmd.ReceivableID.String()),
		zap.String("amount", result.Payment.Amount.String()),
		zap.String("status", string(result.Receivable.Status)),
	)

	result.Reconciliation = s.reconcileAfterCommit(ctx, ReconcileCommand{
		TenantID: cmd.TenantID,
		ActorID:  cmd.ActorID,
		DriverID: result.Receivable.DriverID,
		Trigger:  TriggerPayment,
	})
	s.invalidate(ctx, cmd.TenantID)
	return result, nil
}

// RecordCylinderReturn takes back cylinders against a CYLINDER receivable
// with the same transactional contract as RecordPayment.
func (s *LedgerService) RecordCylinderReturn(ctx context.Context, cmd RecordCylinderReturnCommand) (*ReceivableMutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_receivable", "record_cylinder_return")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrReceivableID, cmd.ReceivableID.String(),
		telemetry.SpanAttrQuantity, cmd.Quantity,
	)

	now := s.deps.Clock.Now()
	result := &ReceivableMutationResult{}
	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cr, driver, err := loadEligible(ctx, repos, cmd.TenantID, cmd.ReceivableID)
		if err != nil {
			return err
		}

		oldValues := receivableValues(cr)
		ret, err := cr.ApplyCylinderReturn(ledger.ReturnInput{
			Quantity:   cmd.Quantity,
			Notes:      cmd.Notes,
			RecordedBy: cmd.ActorID,
			At:         now,
			DriverName: driver.Name,
		})
		if err != nil {
			return err
		}
		if err := repos.CustomerReceivables().Save(ctx, cr); err != nil {
			return fmt.Errorf("save customer receivable: %w", err)
		}
		if err := repos.CustomerReceivables().SaveReturnEvent(ctx, ret); err != nil {
			return fmt.Errorf("save return event: %w", err)
		}

		sale, err := depositSaleFor(ctx, repos.Sales(), cr, now)
		if err != nil {
			return err
		}
		sale.AddCylinderDeposit(ret.Quantity, now)
		if err := repos.Sales().Save(ctx, sale); err != nil {
			return fmt.Errorf("save deposit sale: %w", err)
		}

		entry := ledger.NewAuditLog(cmd.TenantID, cmd.ActorID, ledger.AuditEntityCustomerReceivable, cr.ID,
			oldValues, receivableValues(cr),
			ledger.CylinderReturnMetadata{
				ReturnQuantity: ret.Quantity,
				Size:           ret.Size,
				ReturnEventID:  ret.ID,
				CustomerName:   cr.CustomerName,
				DriverName:     driver.Name,
			}, now)
		if err := repos.AuditLogs().Append(ctx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		if err := repos.PublishEvents(ctx, cr.GetDomainEvents()...); err != nil {
			return fmt.Errorf("publish events: %w", err)
		}

		result.Receivable, result.Return, result.DepositSale = cr, ret, sale
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.Receivable.ClearDomainEvents()

	s.deps.Metrics.CylindersReturned(result.Return.Size, result.Return.Quantity)
	s.deps.Logger.Info("Cylinder return recorded",
		zap.String("tenant_id", cmd.TenantID.String()),
		zap.String("receivable_id", cmd.ReceivableID.String()),
		zap.Int("quantity", result.Return.Quantity),
		zap.String("size", string(result.Return.Size)),
	)

	result.Reconciliation = s.reconcileAfterCommit(ctx, ReconcileCommand{
		TenantID:     cmd.TenantID,
		ActorID:      cmd.ActorID,
		DriverID:     result.Receivable.DriverID,
		Trigger:      TriggerCylinderReturn,
		ChangeBySize: map[ledger.CylinderSize]int{result.Return.Size: -result.Return.Quantity},
	})
	s.invalidate(ctx, cmd.TenantID)
	return result, nil
}

// ReconcileDriver sets the driver's record for today to the sum of the
// driver's open customer receivables. The day's change is derived from
// that total so the running-total walk reproduces it, and the driver's
// later records are re-walked afterwards.
func (s *LedgerService) ReconcileDriver(ctx context.Context, cmd ReconcileCommand) (*ReconciliationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "driver_ledger", "reconcile")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrDriverID, cmd.DriverID.String(),
	)

	driver, err := s.deps.Drivers.FindByIDForTenant(ctx, cmd.TenantID, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if err := driver.EnsureLedgerEligible(); err != nil {
		return nil, err
	}

	now := s.deps.Clock.Now()
	today := ledger.CalendarDay(now)
	trigger := cmd.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}

	var result *ReconciliationResult
	err = s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		open, err := repos.CustomerReceivables().FindOpenByDriver(ctx, cmd.TenantID, cmd.DriverID)
		if err != nil {
			return fmt.Errorf("load open receivables: %w", err)
		}
		summary := ledger.SummarizeOutstanding(open)

		history, err := repos.Records().FindByDriver(ctx, cmd.TenantID, cmd.DriverID)
		if err != nil {
			return fmt.Errorf("load driver records: %w", err)
		}
		carryCash, carryCylinders := ledger.CarryBefore(history, today)

		record := findOnDate(history, today)
		oldCash, oldCylinders := carryCash, carryCylinders
		if record != nil {
			oldCash, oldCylinders = record.TotalCashReceivables, record.TotalCylinderReceivables
		}

		result = &ReconciliationResult{
			DriverID:        driver.ID,
			Date:            today,
			OldCash:         oldCash,
			NewCash:         summary.Cash,
			OldCylinders:    oldCylinders,
			NewCylinders:    summary.Cylinders,
			OpenReceivables: summary.Count,
			Changed:         !oldCash.Equal(summary.Cash) || oldCylinders != summary.Cylinders,
		}
		if record != nil {
			result.RecordID = record.ID
		}
		if !result.Changed {
			return nil
		}

		if record == nil {
			record = ledger.NewReceivableRecord(cmd.TenantID, cmd.DriverID, today)
		}
		record.ApplyDailyChange(ledger.DailyChange{
			Cash:      summary.Cash.Sub(record.OnboardingCashReceivables).Sub(carryCash),
			Cylinders: summary.Cylinders - record.OnboardingCylinderReceivables - carryCylinders,
		})
		record.SetTotals(summary.Cash, summary.Cylinders, now)
		if err := repos.Records().Save(ctx, record); err != nil {
			return fmt.Errorf("save driver record: %w", err)
		}
		result.RecordID = record.ID

		entry := ledger.NewAuditLog(cmd.TenantID, cmd.ActorID, ledger.AuditEntityReceivableRecord, record.ID,
			recordValues(oldCash, oldCylinders), recordValues(summary.Cash, summary.Cylinders),
			ledger.ReconciliationMetadata{
				Trigger:              trigger,
				OutstandingCash:      summary.Cash,
				OutstandingCylinders: summary.Cylinders,
				OpenReceivables:      summary.Count,
				DriverName:           driver.Name,
			}, now)
		if err := repos.AuditLogs().Append(ctx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}

		changeBySize := cmd.ChangeBySize
		if len(changeBySize) == 0 && oldCylinders != summary.Cylinders {
			changeBySize = summary.CylindersBySize
		}
		event := ledger.NewDriverReceivablesChangedEvent(driver, record, oldCash, oldCylinders, changeBySize, trigger)
		return repos.PublishEvents(ctx, event)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.deps.Metrics.DriverReconciled(result.Changed)
	if result.Changed {
		// Records dated after today carry from the new total.
		if _, err := recalculateDriver(ctx, s.deps.Records, cmd.TenantID, cmd.DriverID, s.deps.Settings.CashTolerance, now); err != nil {
			s.deps.Logger.Warn("Failed to recalculate driver after reconciliation",
				zap.String("driver_id", cmd.DriverID.String()), zap.Error(err))
		}
		s.invalidate(ctx, cmd.TenantID)
	}
	return result, nil
}

// ListCustomerReceivables returns a page of customer debts with their aging
// status refreshed against the current date.
func (s *LedgerService) ListCustomerReceivables(ctx context.Context, filter ledger.CustomerReceivableFilter) (shared.Paginated[*ledger.CustomerReceivable], error) {
	items, total, err := s.deps.Receivables.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*ledger.CustomerReceivable]{}, fmt.Errorf("list customer receivables: %w", err)
	}

	now := s.deps.Clock.Now()
	for _, cr := range items {
		if !cr.RefreshAgingStatus(now, s.deps.Settings.DueSoonWindow) {
			continue
		}
		if err := s.deps.Receivables.UpdateAgingStatus(ctx, cr); err != nil {
			s.deps.Logger.Warn("Failed to persist aging status",
				zap.String("receivable_id", cr.ID.String()), zap.Error(err))
		}
	}
	return shared.NewPaginated(items, total, filter.Page), nil
}

// CustomerReceivableHistory is a receivable with its payment and return rows
type CustomerReceivableHistory struct {
	Receivable *ledger.CustomerReceivable
	Payments   []*ledger.PaymentEvent
	Returns    []*ledger.ReturnEvent
}

// GetCustomerReceivable loads one receivable with its history
func (s *LedgerService) GetCustomerReceivable(ctx context.Context, tenantID, id uuid.UUID) (*CustomerReceivableHistory, error) {
	cr, err := s.deps.Receivables.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.deps.Receivables.FindPaymentEvents(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("load payment events: %w", err)
	}
	returns, err := s.deps.Receivables.FindReturnEvents(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("load return events: %w", err)
	}
	cr.RefreshAgingStatus(s.deps.Clock.Now(), s.deps.Settings.DueSoonWindow)
	return &CustomerReceivableHistory{Receivable: cr, Payments: payments, Returns: returns}, nil
}

// ListDriverRecords returns a page of driver day records
func (s *LedgerService) ListDriverRecords(ctx context.Context, filter ledger.ReceivableRecordFilter) (shared.Paginated[*ledger.ReceivableRecord], error) {
	items, total, err := s.deps.Records.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*ledger.ReceivableRecord]{}, fmt.Errorf("list driver records: %w", err)
	}
	return shared.NewPaginated(items, total, filter.Page), nil
}

func (s *LedgerService) reconcileAfterCommit(ctx context.Context, cmd ReconcileCommand) *ReconciliationResult {
	result, err := s.ReconcileDriver(ctx, cmd)
	if err != nil {
		s.deps.Logger.Error("Driver reconciliation failed after commit",
			zap.String("tenant_id", cmd.TenantID.String()),
			zap.String("driver_id", cmd.DriverID.String()),
			zap.String("trigger", cmd.Trigger),
			zap.Error(err),
		)
		return nil
	}
	return result
}

func (s *LedgerService) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if err := s.deps.Cache.InvalidateTenant(ctx, tenantID); err != nil {
		s.deps.Logger.Warn("Failed to invalidate ledger cache", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}

// loadEligible loads a receivable and its driver inside the transaction and
// rejects drivers outside the ledger
func loadEligible(ctx context.Context, repos TransactionalRepositories, tenantID, receivableID uuid.UUID) (*ledger.CustomerReceivable, *ledger.Driver, error) {
	cr, err := repos.CustomerReceivables().FindByIDForTenant(ctx, tenantID, receivableID)
	if err != nil {
		return nil, nil, err
	}
	driver, err := repos.Drivers().FindByIDForTenant(ctx, tenantID, cr.DriverID)
	if err != nil {
		return nil, nil, err
	}
	if err := driver.EnsureLedgerEligible(); err != nil {
		return nil, nil, err
	}
	return cr, driver, nil
}

// depositSaleFor returns today's deposit-only sale for the receivable's
// driver, creating it when missing. Cash deposits share the unsized sale;
// cylinder deposits get one sale per size.
func depositSaleFor(ctx context.Context, sales ledger.SaleRepository, cr *ledger.CustomerReceivable, now time.Time) (*ledger.Sale, error) {
	size := ledger.Unsized
	if cr.ReceivableType == ledger.ReceivableTypeCylinder {
		size = cr.Size
	}
	sale, err := sales.FindDepositSale(ctx, cr.TenantID, cr.DriverID, now, size)
	if err != nil {
		return nil, fmt.Errorf("load deposit sale: %w", err)
	}
	if sale == nil {
		sale = ledger.NewSyntheticDepositSale(cr.TenantID, cr.DriverID, now, size)
	}
	return sale, nil
}

func findOnDate(records []*ledger.ReceivableRecord, day time.Time) *ledger.ReceivableRecord {
	for _, r := range records {
		if ledger.SameCalendarDay(r.Date, day) {
			return r
		}
	}
	return nil
}

// receivableValues is the audited snapshot of a customer receivable
func receivableValues(cr *ledger.CustomerReceivable) ledger.Metadata {
	values := ledger.Metadata{"status": ledger.StringValue(string(cr.Status))}
	if cr.ReceivableType == ledger.ReceivableTypeCylinder {
		values["quantity"] = ledger.IntValue(cr.Quantity)
		values["size"] = ledger.StringValue(string(cr.Size))
	} else {
		values["amount"] = ledger.NumberValue(cr.Amount)
	}
	return values
}

func recordValues(cash decimal.Decimal, cylinders int) ledger.Metadata {
	return ledger.Metadata{
		"total_cash_receivables":     ledger.NumberValue(cash),
		"total_cylinder_receivables": ledger.IntValue(cylinders),
	}
}
