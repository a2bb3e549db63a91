package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/logger"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
	"github.com/lpgledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, getRequestID(c))

	c.Set(middleware.RequestIDKey, "ctx-request-id")
	assert.Equal(t, "ctx-request-id", getRequestID(c))
}

func TestBaseHandler_Caller(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*gin.Context)
		wantOK bool
	}{
		{
			name:   "valid claims",
			setup:  func(c *gin.Context) { setJWTContext(c, testTenantID, testUserID) },
			wantOK: true,
		},
		{
			name:  "no claims",
			setup: func(*gin.Context) {},
		},
		{
			name: "malformed tenant",
			setup: func(c *gin.Context) {
				c.Set(middleware.JWTTenantIDKey, "not-a-uuid")
				c.Set(middleware.JWTUserIDKey, testUserID.String())
			},
		},
		{
			name:  "nil user",
			setup: func(c *gin.Context) { setJWTContext(c, testTenantID, uuid.Nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)

			h := &BaseHandler{}
			tenantID, userID, ok := h.caller(c)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, testTenantID, tenantID)
				assert.Equal(t, testUserID, userID)
				return
			}
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
		})
	}
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h := &BaseHandler{}
	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"receivable not found", ledger.ErrReceivableNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"driver not found", fmt.Errorf("load driver: %w", ledger.ErrDriverNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"validation", ledger.NewValidationError("amount exceeds balance"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"optimistic lock", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"recalculation busy", ledger.ErrRecalculationBusy, http.StatusConflict, dto.ErrCodeRecalculationBusy},
		{"unexpected", errors.New("connection reset by peer"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.Empty(t, resp.Error.TraceID)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error.Message, "connection reset")
			}
		})
	}
}

func TestBaseHandler_HandleErrorTraced(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("handler-test").Start(context.Background(), "GET /api/v1/receivables/customers/:id")
	defer span.End()
	traceID := span.SpanContext().TraceID().String()

	core, logs := observer.New(zapcore.ErrorLevel)
	ctx = logger.WithContext(ctx, zap.New(core))

	t.Run("domain error body carries the trace id", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

		(&BaseHandler{}).HandleError(c, ledger.ErrReceivableNotFound)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, traceID, resp.Error.TraceID)
		assert.Zero(t, logs.Len())
	})

	t.Run("unexpected error is logged with the trace id", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

		(&BaseHandler{}).HandleError(c, errors.New("connection reset by peer"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, traceID, decodeResponse(t, w).Error.TraceID)
		entries := logs.FilterMessage("Unhandled request error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, traceID, entries[0].ContextMap()["trace_id"])
	})
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h := &BaseHandler{}
	h.HandleError(c, nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestBaseHandler_DateParam(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantDate string
	}{
		{"empty is the zero date", "", true, ""},
		{"calendar date", "2026-11-01", true, "2026-11-01"},
		{"malformed date", "01/11/2026", false, ""},
		{"impossible date", "2026-02-30", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h := &BaseHandler{}
			got, ok := h.dateParam(c, "due_date", tt.raw)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), "Invalid due_date")
				return
			}
			if tt.wantDate == "" {
				assert.True(t, got.IsZero())
			} else {
				assert.Equal(t, tt.wantDate, got.Format(dateLayout))
			}
		})
	}
}
