package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	service *Service
	tokens  *TokenIssuer
}

func setupMiddleware(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Auth{
		BcryptCost:       4,
		AdminPassword:    "admin-password-123",
		MaxLoginAttempts: 2,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
	service := setupService(t, cfg)
	if err := service.EnsureAdminPassword(); err != nil {
		t.Fatalf("EnsureAdminPassword() error = %v", err)
	}
	if _, err := service.CreateUser("reader", "reader-password", false); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tokens := NewTokenIssuer("test-secret", time.Hour)
	mw := NewMiddleware(service, tokens, NewRateLimiter(cfg))

	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), mw.Handler())
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c),
			"username":  GetUsername(c),
			"auth_type": GetAuthType(c),
		})
	})
	router.POST("/admin", mw.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return &testEnv{router: router, service: service, tokens: tokens}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_Anonymous(t *testing.T) {
	env := setupMiddleware(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user_id"] != float64(0) || body["auth_type"] != string(AuthTypeNone) {
		t.Errorf("body = %v", body)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestMiddleware_BasicAuth(t *testing.T) {
	env := setupMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.SetBasicAuth("admin", "admin-password-123")
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["user_id"] != float64(entities.AdminAccountID) || body["auth_type"] != string(AuthTypeBasic) {
		t.Errorf("body = %v", body)
	}
}

func TestMiddleware_BasicAuth_WrongPassword(t *testing.T) {
	env := setupMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.SetBasicAuth("admin", "wrong-password-1")
	w := env.do(req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("WWW-Authenticate header missing")
	}
}

func TestMiddleware_BasicAuth_RateLimited(t *testing.T) {
	env := setupMiddleware(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.SetBasicAuth("admin", "wrong-password-1")
		env.do(req)
	}

	// correct password is refused while locked out
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.SetBasicAuth("admin", "admin-password-123")
	w := env.do(req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestMiddleware_BearerToken(t *testing.T) {
	env := setupMiddleware(t)
	admin, _ := env.service.GetUserByID(entities.AdminAccountID)
	token, _, err := env.tokens.Issue(admin)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := env.do(req); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	if w := env.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token status = %d, want 401", w.Code)
	}
}

func TestMiddleware_BearerToken_DeletedAccount(t *testing.T) {
	env := setupMiddleware(t)
	reader, err := env.service.Authenticate("reader", "reader-password")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	token, _, _ := env.tokens.Issue(reader)
	if err := env.service.DeleteUser(reader.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := env.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMiddleware_UnknownScheme(t *testing.T) {
	env := setupMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Digest abc")
	if w := env.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	env := setupMiddleware(t)

	tests := []struct {
		name     string
		username string
		password string
		want     int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "non-admin", username: "reader", password: "reader-password", want: http.StatusForbidden},
		{name: "admin", username: "admin", password: "admin-password-123", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tt.username != "" {
				req.SetBasicAuth(tt.username, tt.password)
			}
			if w := env.do(req); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
