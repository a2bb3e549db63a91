package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentBody struct {
	Amount decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Method string          `json:"method" binding:"required,oneof=cash mobile_money bank_transfer"`
	Notes  string          `json:"notes" binding:"max=10"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/payments", func(c *gin.Context) {
		var req paymentBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Amount.String()))
	})
	return router
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError(t *testing.T) {
	router := validationRouter()

	t.Run("reports json field names", func(t *testing.T) {
		w := postJSON(router, "/payments", `{"amount":"-5","method":"cheque","notes":"far too long a note"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-7", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be greater than 0", fields["amount"])
		assert.Equal(t, "Must be one of: cash mobile_money bank_transfer", fields["method"])
		assert.Equal(t, "Must be at most 10 characters", fields["notes"])
	})

	t.Run("decimal amounts pass numeric tags", func(t *testing.T) {
		w := postJSON(router, "/payments", `{"amount":"250.50","method":"cash"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "250.5")
	})

	t.Run("malformed json has no details", func(t *testing.T) {
		w := postJSON(router, "/payments", `{"amount":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Error.Details)
	})
}
