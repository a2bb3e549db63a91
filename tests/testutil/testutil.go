// Package testutil holds helpers shared by the ledger's integration tests:
// token issuing, an HTTP client for the gin engine and a recording event
// handler.
package testutil

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/infrastructure/auth"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// NewTestJWT returns a JWT service with a fixed test secret
func NewTestJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-test-secret-long-enough-for-hs256",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "lpg-ledger-test",
	})
}

// IssueToken signs a token for a random user of tenantID with role
func IssueToken(t *testing.T, jwt *auth.JWTService, tenantID uuid.UUID, role auth.Role) string {
	t.Helper()

	token, _, err := jwt.Issue(auth.IssueInput{
		TenantID: tenantID,
		UserID:   uuid.New(),
		Username: "tester",
		Role:     role,
	})
	require.NoError(t, err, "Failed to issue token")
	return token
}
