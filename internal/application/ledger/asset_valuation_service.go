package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AssetValuationService values the tenant's receivables and cylinder stock
type AssetValuationService struct {
	deps Dependencies
}

// NewAssetValuationService creates a new AssetValuationService
func NewAssetValuationService(deps Dependencies) *AssetValuationService {
	return &AssetValuationService{deps: deps.withDefaults()}
}

// ValueAssets combines the ledger drivers' latest cash totals with the latest
// inventory snapshot priced at quantity-weighted full prices. Results without
// price overrides are cached per day.
func (s *AssetValuationService) ValueAssets(ctx context.Context, q ValuationQuery) (ledger.AssetValuation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "asset_valuation", "value")
	defer span.End()

	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = s.deps.Clock.Now()
	}
	day := ledger.CalendarDay(asOf)

	key := "asset-valuation:" + day.Format(time.DateOnly)
	cacheable := len(q.PriceOverrides) == 0
	if cacheable {
		var cached ledger.AssetValuation
		if ok, err := s.deps.Cache.Get(ctx, q.TenantID, key, &cached); err != nil {
			s.deps.Logger.Warn("Ledger cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	cash, err := s.cashReceivables(ctx, q.TenantID, day)
	if err != nil {
		telemetry.RecordError(span, err)
		return ledger.AssetValuation{}, err
	}
	inventory, err := s.deps.Inventory.FindLatest(ctx, q.TenantID, day)
	if err != nil {
		telemetry.RecordError(span, err)
		return ledger.AssetValuation{}, fmt.Errorf("load inventory: %w", err)
	}
	prices, err := s.pricePoints(ctx, q.TenantID, day)
	if err != nil {
		telemetry.RecordError(span, err)
		return ledger.AssetValuation{}, err
	}

	valuation := ledger.ValueAssets(ledger.ValuationInput{
		AsOf:            day,
		CashReceivables: cash,
		Inventory:       inventory,
		Prices:          prices,
		PriceOverrides:  q.PriceOverrides,
		EmptyPriceRatio: s.deps.Settings.EmptyPriceRatio,
	})

	if cacheable {
		if err := s.deps.Cache.Set(ctx, q.TenantID, key, valuation, s.deps.Settings.CacheTTL); err != nil {
			s.deps.Logger.Warn("Ledger cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return valuation, nil
}

func (s *AssetValuationService) cashReceivables(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	drivers, err := s.deps.Drivers.FindAll(ctx, ledger.LedgerDrivers(tenantID))
	if err != nil {
		return decimal.Zero, fmt.Errorf("list ledger drivers: %w", err)
	}
	if len(drivers) == 0 {
		return decimal.Zero, nil
	}
	ids := make([]uuid.UUID, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}
	latest, err := s.deps.Records.FindLatestForDrivers(ctx, tenantID, ids, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load latest records: %w", err)
	}
	total := decimal.Zero
	for _, r := range latest {
		total = total.Add(r.TotalCashReceivables)
	}
	return total, nil
}

func (s *AssetValuationService) pricePoints(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]ledger.PricePoint, error) {
	products, err := s.deps.Products.FindActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	sold, err := s.deps.Sales.QuantityByProduct(ctx, tenantID, asOf)
	if err != nil {
		return nil, fmt.Errorf("sum sold quantities: %w", err)
	}
	points := make([]ledger.PricePoint, 0, len(products))
	for _, p := range products {
		if p.Size == ledger.Unsized {
			continue
		}
		points = append(points, ledger.PricePoint{
			Size:         p.Size,
			Company:      p.Company,
			FullPrice:    p.FullPrice,
			QuantitySold: sold[p.ID],
		})
	}
	return points, nil
}
