package ledger

import (
	"time"

	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Settings are the tunables of the ledger services
type Settings struct {
	CashTolerance        decimal.Decimal
	EmptyPriceRatio      decimal.Decimal
	DueSoonWindow        time.Duration
	CacheTTL             time.Duration
	RecalculationLockTTL time.Duration
	DefaultDays          int
}

// DefaultSettings mirrors the configuration defaults
func DefaultSettings() Settings {
	return Settings{
		CashTolerance:        ledger.DefaultCashTolerance,
		EmptyPriceRatio:      ledger.DefaultEmptyCylinderPriceRatio,
		DueSoonWindow:        72 * time.Hour,
		CacheTTL:             10 * time.Minute,
		RecalculationLockTTL: 5 * time.Minute,
		DefaultDays:          30,
	}
}

// Dependencies wires the ledger services. Repositories outside TxScope are
// used for reads and for the best-effort recalculation writes.
type Dependencies struct {
	TxScope     TransactionScope
	Records     ledger.ReceivableRecordRepository
	Sales       ledger.SaleRepository
	Receivables ledger.CustomerReceivableRepository
	Drivers     ledger.DriverRepository
	Products    ledger.ProductRepository
	Inventory   ledger.InventoryRecordRepository
	AuditLogs   ledger.AuditLogRepository

	Cache    LedgerCache
	Locker   BatchLocker
	Metrics  LedgerMetrics
	Exporter ChangesExporter
	// Archive is optional; archiving is refused without it
	Archive  ArchiveStore
	Clock    Clock
	Logger   *zap.Logger
	Settings Settings
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Cache == nil {
		d.Cache = noopCache{}
	}
	if d.Metrics == nil {
		d.Metrics = noopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	def := DefaultSettings()
	if d.Settings.CashTolerance.IsZero() {
		d.Settings.CashTolerance = def.CashTolerance
	}
	if d.Settings.EmptyPriceRatio.IsZero() {
		d.Settings.EmptyPriceRatio = def.EmptyPriceRatio
	}
	if d.Settings.DueSoonWindow <= 0 {
		d.Settings.DueSoonWindow = def.DueSoonWindow
	}
	if d.Settings.CacheTTL <= 0 {
		d.Settings.CacheTTL = def.CacheTTL
	}
	if d.Settings.RecalculationLockTTL <= 0 {
		d.Settings.RecalculationLockTTL = def.RecalculationLockTTL
	}
	if d.Settings.DefaultDays <= 0 {
		d.Settings.DefaultDays = def.DefaultDays
	}
	return d
}
