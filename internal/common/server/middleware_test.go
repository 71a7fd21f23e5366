package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/auth"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/config"
)

func authTestRouter(cfg config.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(cfg, nil))
	r.GET("/api/v1/orders", func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			c.String(http.StatusInternalServerError, "no identity")
			return
		}
		c.String(http.StatusOK, id.UserID)
	})
	r.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.String(http.StatusOK, "public")
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:     true,
		JWTSecret:   "test-secret",
		Issuer:      "order-service",
		PublicPaths: []string{"POST /api/v1/auth/login"},
	}
	r := authTestRouter(cfg)

	// 无 token 拒绝
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", w.Code)
	}

	// 白名单路径放行
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("public path: got %d, want 200", w.Code)
	}

	// 合法 token 放行且身份进上下文
	token, _, err := auth.GenerateAccessToken(cfg, "u-1", []string{auth.RoleCustomer}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: got %d, want 200", w.Code)
	}
	if w.Body.String() != "u-1" {
		t.Fatalf("identity subject: got %q, want %q", w.Body.String(), "u-1")
	}

	// 错误密钥签发的 token 拒绝
	other := cfg
	other.JWTSecret = "wrong-secret"
	badToken, _, err := auth.GenerateAccessToken(other, "u-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+badToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: got %d, want 401", w.Code)
	}
}

func TestJWTAuthDisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(config.AuthConfig{Enabled: false}, nil))
	r.GET("/ping", func(c *gin.Context) {
		if _, ok := IdentityFromContext(c); ok {
			c.String(http.StatusInternalServerError, "unexpected identity")
			return
		}
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("auth disabled: got %d, want 200", w.Code)
	}
}
