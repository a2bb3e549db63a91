package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
	"github.com/lpgledger/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	testTenantID = uuid.MustParse("0b6a3a4e-5d55-4d0c-9d43-7a7e0c1f2f10")
	testUserID   = uuid.MustParse("7f1d5c52-93fa-4a9c-8c55-0f3f0b0d9d21")
)

// setJWTContext simulates what JWTAuthMiddlewareWithConfig stores for a valid token
func setJWTContext(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set(middleware.JWTTenantIDKey, tenantID.String())
	c.Set(middleware.JWTUserIDKey, userID.String())
}

// newTestEngine returns an engine whose requests carry the test tenant and user
func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		setJWTContext(c, testTenantID, testUserID)
		c.Next()
	})
	return r
}

// newBareEngine returns an engine without claims
func newBareEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// decodeData re-decodes the data field into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

type MockReceivableService struct {
	mock.Mock
}

func (m *MockReceivableService) CreateCustomerReceivable(ctx context.Context, cmd appledger.CreateCustomerReceivableCommand) (*appledger.ReceivableMutationResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ReceivableMutationResult), args.Error(1)
}

func (m *MockReceivableService) RecordPayment(ctx context.Context, cmd appledger.RecordPaymentCommand) (*appledger.ReceivableMutationResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ReceivableMutationResult), args.Error(1)
}

func (m *MockReceivableService) RecordCylinderReturn(ctx context.Context, cmd appledger.RecordCylinderReturnCommand) (*appledger.ReceivableMutationResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ReceivableMutationResult), args.Error(1)
}

func (m *MockReceivableService) ReconcileDriver(ctx context.Context, cmd appledger.ReconcileCommand) (*appledger.ReconciliationResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ReconciliationResult), args.Error(1)
}

func (m *MockReceivableService) ListCustomerReceivables(ctx context.Context, filter ledger.CustomerReceivableFilter) (shared.Paginated[*ledger.CustomerReceivable], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*ledger.CustomerReceivable]), args.Error(1)
}

func (m *MockReceivableService) GetCustomerReceivable(ctx context.Context, tenantID, id uuid.UUID) (*appledger.CustomerReceivableHistory, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.CustomerReceivableHistory), args.Error(1)
}

func (m *MockReceivableService) ListDriverRecords(ctx context.Context, filter ledger.ReceivableRecordFilter) (shared.Paginated[*ledger.ReceivableRecord], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*ledger.ReceivableRecord]), args.Error(1)
}

type MockRecalculator struct {
	mock.Mock
}

func (m *MockRecalculator) RecalculateTenant(ctx context.Context, cmd appledger.RecalculateCommand) (appledger.RecalculationStats, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(appledger.RecalculationStats), args.Error(1)
}

func (m *MockRecalculator) RecalculateAllTenants(ctx context.Context, actorID uuid.UUID) (appledger.RecalculationStats, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).(appledger.RecalculationStats), args.Error(1)
}

type MockSalesRecorder struct {
	mock.Mock
}

func (m *MockSalesRecorder) RecordSale(ctx context.Context, cmd appledger.RecordSaleCommand) (*appledger.RecordSaleResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.RecordSaleResult), args.Error(1)
}

func (m *MockSalesRecorder) OnboardDriver(ctx context.Context, cmd appledger.OnboardDriverCommand) (*ledger.ReceivableRecord, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ReceivableRecord), args.Error(1)
}

func (m *MockSalesRecorder) SyncDailyRecord(ctx context.Context, tenantID, driverID uuid.UUID, date time.Time) (*ledger.ReceivableRecord, error) {
	args := m.Called(ctx, tenantID, driverID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ReceivableRecord), args.Error(1)
}

type MockBreakdownCalculator struct {
	mock.Mock
}

func (m *MockBreakdownCalculator) CalculateExactReceivablesBySize(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (ledger.SizeBreakdown, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).(ledger.SizeBreakdown), args.Error(1)
}

func (m *MockBreakdownCalculator) ValidateBreakdown(ctx context.Context, tenantID uuid.UUID, asOf time.Time, expected map[ledger.CylinderSize]int, tolerance int) (*appledger.BreakdownValidation, error) {
	args := m.Called(ctx, tenantID, asOf, expected, tolerance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.BreakdownValidation), args.Error(1)
}

type MockAssetValuer struct {
	mock.Mock
}

func (m *MockAssetValuer) ValueAssets(ctx context.Context, q appledger.ValuationQuery) (ledger.AssetValuation, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(ledger.AssetValuation), args.Error(1)
}

type MockChangesReporter struct {
	mock.Mock
}

func (m *MockChangesReporter) ReceivablesChanges(ctx context.Context, filter ledger.AuditLogFilter) (shared.Paginated[appledger.ChangeRow], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[appledger.ChangeRow]), args.Error(1)
}

func (m *MockChangesReporter) ExportReceivablesChanges(ctx context.Context, filter ledger.AuditLogFilter) ([]byte, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockChangesReporter) ArchiveDailyChanges(ctx context.Context, day time.Time) (appledger.ArchiveStats, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(appledger.ArchiveStats), args.Error(1)
}

func (m *MockChangesReporter) ArchivedChangesURL(ctx context.Context, tenantID uuid.UUID, day time.Time) (*appledger.ArchiveLink, error) {
	args := m.Called(ctx, tenantID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ArchiveLink), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// cashReceivable builds an open CASH receivable owned by the test tenant
func cashReceivable(t *testing.T, amount string) *ledger.CustomerReceivable {
	t.Helper()
	cr, err := ledger.NewCustomerReceivable(testTenantID, ledger.NewCustomerReceivableInput{
		DriverID:     uuid.New(),
		CustomerName: "Mama Njeri",
		Type:         ledger.ReceivableTypeCash,
		Amount:       decimalFrom(amount),
	})
	require.NoError(t, err)
	return cr
}

func decimalFrom(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
