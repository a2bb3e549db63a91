package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindByDriverAndDate(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) (*ledger.ReceivableRecord, error) {
	args := m.Called(ctx, tenantID, driverID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ReceivableRecord), args.Error(1)
}

func (m *MockRecordRepository) FindByDriver(ctx context.Context, tenantID, driverID uuid.UUID) ([]*ledger.ReceivableRecord, error) {
	args := m.Called(ctx, tenantID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.ReceivableRecord), args.Error(1)
}

func (m *MockRecordRepository) FindLatestForDrivers(ctx context.Context, tenantID uuid.UUID, driverIDs []uuid.UUID, asOf time.Time) (map[uuid.UUID]*ledger.ReceivableRecord, error) {
	args := m.Called(ctx, tenantID, driverIDs, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*ledger.ReceivableRecord), args.Error(1)
}

func (m *MockRecordRepository) FindAll(ctx context.Context, filter ledger.ReceivableRecordFilter) ([]*ledger.ReceivableRecord, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*ledger.ReceivableRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecordRepository) DriversWithRecordsSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, since)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRecordRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRecordRepository) Save(ctx context.Context, record *ledger.ReceivableRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockRecordRepository) UpdateTotals(ctx context.Context, record *ledger.ReceivableRecord) error {
	return m.Called(ctx, record).Error(0)
}

type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindAll(ctx context.Context, filter ledger.SaleFilter) ([]*ledger.Sale, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*ledger.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByDriverAndDate(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) ([]*ledger.Sale, error) {
	args := m.Called(ctx, tenantID, driverID, date)
	return args.Get(0).([]*ledger.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindDepositSale(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time, size ledger.CylinderSize) (*ledger.Sale, error) {
	args := m.Called(ctx, tenantID, driverID, date, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Sale), args.Error(1)
}

func (m *MockSaleRepository) QuantityByProduct(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *ledger.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

type MockCustomerReceivableRepository struct {
	mock.Mock
}

func (m *MockCustomerReceivableRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.CustomerReceivable, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CustomerReceivable), args.Error(1)
}

func (m *MockCustomerReceivableRepository) FindAll(ctx context.Context, filter ledger.CustomerReceivableFilter) ([]*ledger.CustomerReceivable, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*ledger.CustomerReceivable), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerReceivableRepository) Save(ctx context.Context, cr *ledger.CustomerReceivable) error {
	return m.Called(ctx, cr).Error(0)
}

func (m *MockCustomerReceivableRepository) UpdateAgingStatus(ctx context.Context, cr *ledger.CustomerReceivable) error {
	return m.Called(ctx, cr).Error(0)
}

func (m *MockCustomerReceivableRepository) SavePaymentEvent(ctx context.Context, ev *ledger.PaymentEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockCustomerReceivableRepository) SaveReturnEvent(ctx context.Context, ev *ledger.ReturnEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockCustomerReceivableRepository) FindPaymentEvents(ctx context.Context, tenantID, receivableID uuid.UUID) ([]*ledger.PaymentEvent, error) {
	args := m.Called(ctx, tenantID, receivableID)
	return args.Get(0).([]*ledger.PaymentEvent), args.Error(1)
}

func (m *MockCustomerReceivableRepository) FindReturnEvents(ctx context.Context, tenantID, receivableID uuid.UUID) ([]*ledger.ReturnEvent, error) {
	args := m.Called(ctx, tenantID, receivableID)
	return args.Get(0).([]*ledger.ReturnEvent), args.Error(1)
}

func (m *MockCustomerReceivableRepository) FindOpenByDriver(ctx context.Context, tenantID, driverID uuid.UUID) ([]*ledger.CustomerReceivable, error) {
	args := m.Called(ctx, tenantID, driverID)
	return args.Get(0).([]*ledger.CustomerReceivable), args.Error(1)
}

type MockDriverRepository struct {
	mock.Mock
}

func (m *MockDriverRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Driver, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Driver), args.Error(1)
}

func (m *MockDriverRepository) FindAll(ctx context.Context, filter ledger.DriverFilter) ([]*ledger.Driver, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*ledger.Driver), args.Error(1)
}

func (m *MockDriverRepository) Save(ctx context.Context, driver *ledger.Driver) error {
	return m.Called(ctx, driver).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Product), args.Error(1)
}

func (m *MockProductRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]*ledger.Product, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*ledger.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *ledger.Product) error {
	return m.Called(ctx, product).Error(0)
}

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindLatest(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*ledger.InventoryRecord, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) Save(ctx context.Context, record *ledger.InventoryRecord) error {
	return m.Called(ctx, record).Error(0)
}

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *ledger.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAuditLogRepository) FindAll(ctx context.Context, filter ledger.AuditLogFilter) ([]*ledger.AuditLog, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*ledger.AuditLog), args.Get(1).(int64), args.Error(2)
}

// =============================================================================
// Mock Collaborators
// =============================================================================

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n ReceivableNotification) error {
	return m.Called(ctx, n).Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportChanges(rows []ChangeRow) ([]byte, error) {
	args := m.Called(rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockArchiveStore struct {
	mock.Mock
}

func (m *MockArchiveStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockArchiveStore) ObjectExists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockArchiveStore) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// memSaleRepository keeps sales in memory for flows that read back what
// they just wrote
type memSaleRepository struct {
	sales []*ledger.Sale
}

func (r *memSaleRepository) FindAll(_ context.Context, filter ledger.SaleFilter) ([]*ledger.Sale, error) {
	var out []*ledger.Sale
	for _, s := range r.sales {
		if s.TenantID == filter.TenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSaleRepository) FindByDriverAndDate(_ context.Context, tenantID, driverID uuid.UUID, date time.Time) ([]*ledger.Sale, error) {
	var out []*ledger.Sale
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.DriverID == driverID && ledger.SameCalendarDay(s.SaleDate, date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSaleRepository) FindDepositSale(_ context.Context, tenantID, driverID uuid.UUID, date time.Time, size ledger.CylinderSize) (*ledger.Sale, error) {
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.DriverID == driverID && s.DepositOnly && s.Size == size && ledger.SameCalendarDay(s.SaleDate, date) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSaleRepository) QuantityByProduct(context.Context, uuid.UUID, time.Time) (map[uuid.UUID]int, error) {
	out := map[uuid.UUID]int{}
	for _, s := range r.sales {
		if s.ProductID != nil {
			out[*s.ProductID] += s.Quantity
		}
	}
	return out, nil
}

func (r *memSaleRepository) Save(_ context.Context, sale *ledger.Sale) error {
	for i, s := range r.sales {
		if s.ID == sale.ID {
			r.sales[i] = sale
			return nil
		}
	}
	r.sales = append(r.sales, sale)
	return nil
}

// memCache round-trips values through JSON like the Redis cache does
type memCache struct {
	entries map[string][]byte
	gets    int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, tenantID uuid.UUID, key string, dest any) (bool, error) {
	c.gets++
	data, ok := c.entries[tenantID.String()+":"+key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, tenantID uuid.UUID, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[tenantID.String()+":"+key] = data
	return nil
}

func (c *memCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) error {
	for k := range c.entries {
		if strings.HasPrefix(k, tenantID.String()+":") {
			delete(c.entries, k)
		}
	}
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeTxScope runs the unit of work against the mocks and keeps the events
// that would have gone to the outbox
type fakeTxScope struct {
	repos *fakeTxRepos
}

func (s *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.repos.pending = nil
	if err := fn(s.repos); err != nil {
		return err
	}
	s.repos.published = append(s.repos.published, s.repos.pending...)
	return nil
}

type fakeTxRepos struct {
	records     *MockRecordRepository
	sales       ledger.SaleRepository
	receivables *MockCustomerReceivableRepository
	drivers     *MockDriverRepository
	audits      *MockAuditLogRepository
	pending     []shared.DomainEvent
	published   []shared.DomainEvent
}

func (r *fakeTxRepos) Records() ledger.ReceivableRecordRepository               { return r.records }
func (r *fakeTxRepos) Sales() ledger.SaleRepository                             { return r.sales }
func (r *fakeTxRepos) CustomerReceivables() ledger.CustomerReceivableRepository { return r.receivables }
func (r *fakeTxRepos) Drivers() ledger.DriverRepository                         { return r.drivers }
func (r *fakeTxRepos) AuditLogs() ledger.AuditLogRepository                     { return r.audits }

func (r *fakeTxRepos) PublishEvents(_ context.Context, events ...shared.DomainEvent) error {
	r.pending = append(r.pending, events...)
	return nil
}

// =============================================================================
// Fixture
// =============================================================================

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type ledgerFixture struct {
	tenantID    uuid.UUID
	actorID     uuid.UUID
	records     *MockRecordRepository
	sales       *MockSaleRepository
	receivables *MockCustomerReceivableRepository
	drivers     *MockDriverRepository
	products    *MockProductRepository
	inventory   *MockInventoryRepository
	audits      *MockAuditLogRepository
	locker      *MockLocker
	exporter    *MockExporter
	tx          *fakeTxScope
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		tenantID:    uuid.New(),
		actorID:     uuid.New(),
		records:     new(MockRecordRepository),
		sales:       new(MockSaleRepository),
		receivables: new(MockCustomerReceivableRepository),
		drivers:     new(MockDriverRepository),
		products:    new(MockProductRepository),
		inventory:   new(MockInventoryRepository),
		audits:      new(MockAuditLogRepository),
		locker:      new(MockLocker),
		exporter:    new(MockExporter),
	}
	f.tx = &fakeTxScope{repos: &fakeTxRepos{
		records:     f.records,
		sales:       f.sales,
		receivables: f.receivables,
		drivers:     f.drivers,
		audits:      f.audits,
	}}
	return f
}

func (f *ledgerFixture) deps() Dependencies {
	return Dependencies{
		TxScope:     f.tx,
		Records:     f.records,
		Sales:       f.sales,
		Receivables: f.receivables,
		Drivers:     f.drivers,
		Products:    f.products,
		Inventory:   f.inventory,
		AuditLogs:   f.audits,
		Locker:      f.locker,
		Exporter:    f.exporter,
		Clock:       fixedClock{now: testNow},
	}
}

func (f *ledgerFixture) retailDriver(name string) *ledger.Driver {
	d, _ := ledger.NewDriver(f.tenantID, name, ledger.DriverTypeRetail)
	return d
}

func (f *ledgerFixture) cashReceivable(driverID uuid.UUID, amount string) *ledger.CustomerReceivable {
	cr, _ := ledger.NewCustomerReceivable(f.tenantID, ledger.NewCustomerReceivableInput{
		DriverID:     driverID,
		CustomerName: "Mama Ngozi",
		Type:         ledger.ReceivableTypeCash,
		Amount:       decimal.RequireFromString(amount),
	})
	return cr
}

func (f *ledgerFixture) cylinderReceivable(driverID uuid.UUID, size ledger.CylinderSize, qty int) *ledger.CustomerReceivable {
	cr, _ := ledger.NewCustomerReceivable(f.tenantID, ledger.NewCustomerReceivableInput{
		DriverID:     driverID,
		CustomerName: "Corner Kitchen",
		Type:         ledger.ReceivableTypeCylinder,
		Quantity:     qty,
		Size:         size,
	})
	return cr
}

func record(tenantID, driverID uuid.UUID, date time.Time, cashChange string, cylChange int, totalCash string, totalCyl int) *ledger.ReceivableRecord {
	r := ledger.NewReceivableRecord(tenantID, driverID, date)
	r.CashReceivablesChange = decimal.RequireFromString(cashChange)
	r.CylinderReceivablesChange = cylChange
	r.TotalCashReceivables = decimal.RequireFromString(totalCash)
	r.TotalCylinderReceivables = totalCyl
	return r
}
