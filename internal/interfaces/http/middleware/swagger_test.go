package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lpgledger/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg SwaggerConfig, jwt gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func swaggerRequest(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	denyAll := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

	tests := []struct {
		name   string
		cfg    SwaggerConfig
		jwt    gin.HandlerFunc
		remote string
		want   int
		code   string
	}{
		{name: "disabled", cfg: SwaggerConfig{}, remote: "10.0.0.1:5000", want: http.StatusNotFound, code: dto.ErrCodeNotFound},
		{name: "open", cfg: SwaggerConfig{Enabled: true}, remote: "10.0.0.1:5000", want: http.StatusOK},
		{name: "exact ip allowed", cfg: SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, remote: "10.0.0.1:5000", want: http.StatusOK},
		{name: "cidr allowed", cfg: SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, remote: "192.168.4.20:5000", want: http.StatusOK},
		{name: "ip rejected", cfg: SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1", "bogus"}}, remote: "10.0.0.2:5000", want: http.StatusForbidden, code: dto.ErrCodeForbidden},
		{name: "auth required", cfg: SwaggerConfig{Enabled: true, RequireAuth: true}, jwt: denyAll, remote: "10.0.0.1:5000", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := swaggerRequest(swaggerRouter(tt.cfg, tt.jwt), tt.remote)
			assert.Equal(t, tt.want, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			}
		})
	}
}
