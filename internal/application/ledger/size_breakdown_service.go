package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SizeBreakdownService attributes driver cylinder receivables to sizes
type SizeBreakdownService struct {
	deps Dependencies
}

// NewSizeBreakdownService creates a new SizeBreakdownService
func NewSizeBreakdownService(deps Dependencies) *SizeBreakdownService {
	return &SizeBreakdownService{deps: deps.withDefaults()}
}

// CalculateExactReceivablesBySize splits each ledger driver's latest cylinder
// total across the sizes of that driver's REFILL deposit history as of asOf.
func (s *SizeBreakdownService) CalculateExactReceivablesBySize(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (ledger.SizeBreakdown, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "size_breakdown", "calculate")
	defer span.End()

	day := ledger.CalendarDay(asOf)
	key := "size-breakdown:" + day.Format(time.DateOnly)
	var cached ledger.SizeBreakdown
	if ok, err := s.deps.Cache.Get(ctx, tenantID, key, &cached); err != nil {
		s.deps.Logger.Warn("Ledger cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	histories, err := s.depositHistories(ctx, tenantID, day)
	if err != nil {
		telemetry.RecordError(span, err)
		return ledger.SizeBreakdown{}, err
	}
	breakdown := ledger.CalculateExactReceivablesBySize(histories)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		"driver_count", breakdown.DriverCount,
		"transaction_count", breakdown.TransactionCount,
	)

	if err := s.deps.Cache.Set(ctx, tenantID, key, breakdown, s.deps.Settings.CacheTTL); err != nil {
		s.deps.Logger.Warn("Ledger cache write failed", zap.String("key", key), zap.Error(err))
	}
	return breakdown, nil
}

// ValidateBreakdown compares the computed breakdown with expected per-size
// counts and reports sizes that differ by more than tolerance.
func (s *SizeBreakdownService) ValidateBreakdown(ctx context.Context, tenantID uuid.UUID, asOf time.Time, expected map[ledger.CylinderSize]int, tolerance int) (*BreakdownValidation, error) {
	breakdown, err := s.CalculateExactReceivablesBySize(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	return &BreakdownValidation{
		Breakdown:  breakdown,
		Comparison: ledger.CompareBreakdowns(expected, breakdown.BySize, tolerance),
	}, nil
}

func (s *SizeBreakdownService) depositHistories(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]ledger.DriverDepositHistory, error) {
	drivers, err := s.deps.Drivers.FindAll(ctx, ledger.LedgerDrivers(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list ledger drivers: %w", err)
	}
	if len(drivers) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}

	latest, err := s.deps.Records.FindLatestForDrivers(ctx, tenantID, ids, asOf)
	if err != nil {
		return nil, fmt.Errorf("load latest records: %w", err)
	}

	refill := ledger.SaleTypeRefill
	dateTo := asOf
	sales, err := s.deps.Sales.FindAll(ctx, ledger.SaleFilter{
		TenantID:              tenantID,
		DriverIDs:             ids,
		SaleType:              &refill,
		DateTo:                &dateTo,
		MinCylindersDeposited: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("load refill deposits: %w", err)
	}

	byDriver := make(map[uuid.UUID]*ledger.DriverDepositHistory, len(latest))
	for driverID, record := range latest {
		byDriver[driverID] = &ledger.DriverDepositHistory{
			DriverID:                 driverID,
			TotalCylinderReceivables: record.TotalCylinderReceivables,
			DepositsBySize:           map[ledger.CylinderSize]int{},
		}
	}
	for _, sale := range sales {
		h, ok := byDriver[sale.DriverID]
		if !ok {
			continue
		}
		h.DepositsBySize[sale.Size] += sale.CylindersDeposited
		h.TransactionCount++
	}

	out := make([]ledger.DriverDepositHistory, 0, len(byDriver))
	for _, h := range byDriver {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID.String() < out[j].DriverID.String() })
	return out, nil
}
