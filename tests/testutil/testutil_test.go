package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("tenant-a"), NewTestUUID("tenant-a"))
	assert.NotEqual(t, NewTestUUID("tenant-a"), NewTestUUID("tenant-b"))
}

func TestIssueToken(t *testing.T) {
	jwt := NewTestJWT()
	tenantID := NewTestUUID("tenant-a")

	claims, err := jwt.Validate(IssueToken(t, jwt, tenantID, auth.RoleManager))
	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, auth.RoleManager, claims.Role)
}

func TestClient_Do(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    gin.H{"auth": c.GetHeader("Authorization"), "name": body["name"]},
		})
	})
	engine.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": gin.H{"code": "CONFLICT", "message": "busy"}})
	})

	client := Client{Handler: engine}

	w := client.Do(t, http.MethodPost, "/echo", "abc", map[string]string{"name": "Juma"})
	got := DecodeData[map[string]string](t, w, http.StatusCreated)
	assert.Equal(t, "Bearer abc", got["auth"])
	assert.Equal(t, "Juma", got["name"])

	AssertError(t, client.Do(t, http.MethodGet, "/fail", "", nil), http.StatusConflict, "CONFLICT")
}

func TestRecordingHandler(t *testing.T) {
	h := NewRecordingHandler(ledger.EventTypeCustomerPaymentRecorded)
	assert.Equal(t, []string{ledger.EventTypeCustomerPaymentRecorded}, h.EventTypes())

	tenantID := uuid.New()
	payment := &shared.BaseDomainEvent{ID: uuid.New(), Type: ledger.EventTypeCustomerPaymentRecorded, TenantIDValue: tenantID}
	changed := &shared.BaseDomainEvent{ID: uuid.New(), Type: ledger.EventTypeDriverReceivablesChanged, TenantIDValue: tenantID}

	h.FailNext(1)
	assert.ErrorIs(t, h.Handle(context.Background(), payment), ErrInjected)
	assert.Zero(t, h.Count())

	require.NoError(t, h.Handle(context.Background(), payment))
	require.NoError(t, h.Handle(context.Background(), changed))
	assert.Equal(t, 2, h.Count())
	assert.Len(t, h.OfType(ledger.EventTypeCustomerPaymentRecorded), 1)

	WaitForEvents(t, h, 2, 100*time.Millisecond)
}
