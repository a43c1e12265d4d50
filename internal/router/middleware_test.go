package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handlershared "github.com/cashback-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type middlewareTestResponse struct {
	StatusCode int                    `json:"status_code"`
	MsgKey     string                 `json:"msg_key"`
	Data       map[string]interface{} `json:"data"`
}

func signTestToken(t *testing.T, secret string, claims AccessClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return signed
}

func performAuthRequest(t *testing.T, handler gin.HandlerFunc, authHeader string) middlewareTestResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status_code": 0,
			"data": gin.H{
				"admin_id":   c.GetUint(handlershared.ContextKeyAdminID),
				"user_id":    c.GetUint(handlershared.ContextKeyUserID),
				"user_email": c.GetString(handlershared.ContextKeyUserEmail),
			},
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp middlewareTestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	resp := performAuthRequest(t, JWTAuthMiddleware(""), "Bearer whatever")
	if resp.StatusCode != 401 || resp.MsgKey != "error.jwt_secret_missing" {
		t.Fatalf("want 401 jwt_secret_missing, got %d %s", resp.StatusCode, resp.MsgKey)
	}
}

func TestJWTAuthMiddlewareRejectsBadHeaders(t *testing.T) {
	cases := []struct {
		name   string
		header string
		key    string
	}{
		{name: "missing", header: "", key: "error.auth_header_missing"},
		{name: "scheme", header: "Basic abc", key: "error.auth_header_invalid"},
		{name: "garbage", header: "Bearer not-a-token", key: "error.token_invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := performAuthRequest(t, JWTAuthMiddleware("secret"), tc.header)
			if resp.StatusCode != 401 || resp.MsgKey != tc.key {
				t.Fatalf("want 401 %s, got %d %s", tc.key, resp.StatusCode, resp.MsgKey)
			}
		})
	}
}

func TestJWTAuthMiddlewareAcceptsAdminToken(t *testing.T) {
	token := signTestToken(t, "secret", AccessClaims{
		AdminID:          7,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	resp := performAuthRequest(t, JWTAuthMiddleware("secret"), "Bearer "+token)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.MsgKey)
	}
	if resp.Data["admin_id"] != float64(7) {
		t.Fatalf("admin_id want 7 got %v", resp.Data["admin_id"])
	}
}

func TestJWTAuthMiddlewareRejectsUserToken(t *testing.T) {
	token := signTestToken(t, "secret", AccessClaims{UserID: 3})
	resp := performAuthRequest(t, JWTAuthMiddleware("secret"), "Bearer "+token)
	if resp.StatusCode != 401 {
		t.Fatalf("user token must not pass admin auth, got %d", resp.StatusCode)
	}
}

func TestJWTAuthMiddlewareRejectsExpiredOrForeignToken(t *testing.T) {
	expired := signTestToken(t, "secret", AccessClaims{
		AdminID:          7,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	if resp := performAuthRequest(t, JWTAuthMiddleware("secret"), "Bearer "+expired); resp.StatusCode != 401 {
		t.Fatalf("expired token want 401 got %d", resp.StatusCode)
	}

	foreign := signTestToken(t, "other-secret", AccessClaims{AdminID: 7})
	if resp := performAuthRequest(t, JWTAuthMiddleware("secret"), "Bearer "+foreign); resp.StatusCode != 401 {
		t.Fatalf("token signed with another secret want 401 got %d", resp.StatusCode)
	}
}

func TestUserJWTAuthMiddlewareSetsContext(t *testing.T) {
	token := signTestToken(t, "user-secret", AccessClaims{UserID: 42, Email: " Shopper@Example.com "})
	resp := performAuthRequest(t, UserJWTAuthMiddleware("user-secret"), "Bearer "+token)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.MsgKey)
	}
	if resp.Data["user_id"] != float64(42) {
		t.Fatalf("user_id want 42 got %v", resp.Data["user_id"])
	}
	if resp.Data["user_email"] != "shopper@example.com" {
		t.Fatalf("user_email want shopper@example.com got %v", resp.Data["user_email"])
	}

	adminOnly := signTestToken(t, "user-secret", AccessClaims{AdminID: 1})
	if resp := performAuthRequest(t, UserJWTAuthMiddleware("user-secret"), "Bearer "+adminOnly); resp.StatusCode != 401 {
		t.Fatalf("token without user_id want 401 got %d", resp.StatusCode)
	}
}
