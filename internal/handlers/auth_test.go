package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tobyStaff/stafford.dev/internal/metrics"
	"github.com/tobyStaff/stafford.dev/internal/models"
	"github.com/tobyStaff/stafford.dev/internal/service"
	"github.com/tobyStaff/stafford.dev/internal/session"
)

// fakeAuthService lets each test script the service layer's answer.
type fakeAuthService struct {
	registerFn func(ctx context.Context, email, password, username string) (*service.LoginResult, error)
	loginFn    func(ctx context.Context, email, password string) (*service.LoginResult, error)
}

func (f *fakeAuthService) Register(ctx context.Context, email, password, username string) (*service.LoginResult, error) {
	return f.registerFn(ctx, email, password, username)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return f.loginFn(ctx, email, password)
}

// fakeAudit records audit entries in memory.
type fakeAudit struct {
	mu      sync.Mutex
	entries []*models.ActionLog
}

func (f *fakeAudit) Record(_ context.Context, entry *models.ActionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

type authTestEnv struct {
	handler  *AuthHandler
	auth     *fakeAuthService
	audit    *fakeAudit
	sessions *session.Store
	cookies  *session.CookieHelper
}

func setupAuthHandler(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	auth := &fakeAuthService{}
	audit := &fakeAudit{}
	store := session.NewStore(rdb, time.Hour)
	cookies := session.NewCookieHelper(session.CookieConfig{SameSite: http.SameSiteLaxMode, MaxAge: time.Hour})
	m := metrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &authTestEnv{
		handler:  NewAuthHandler(auth, store, cookies, audit, m, log),
		auth:     auth,
		audit:    audit,
		sessions: store,
		cookies:  cookies,
	}
}

func testLoginResult() *service.LoginResult {
	username := "alice"
	return &service.LoginResult{
		Token: "token-abc",
		User: models.SafeUser{
			ID:           "u1",
			Username:     &username,
			Email:        "alice@example.com",
			IsActive:     true,
			AuthProvider: models.ProviderLocal,
		},
	}
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestRegister_Success(t *testing.T) {
	env := setupAuthHandler(t)
	env.auth.registerFn = func(_ context.Context, email, password, username string) (*service.LoginResult, error) {
		if email != "alice@example.com" || password != "Str0ng!pass" || username != "alice" {
			t.Errorf("unexpected register args: %q %q %q", email, password, username)
		}
		return testLoginResult(), nil
	}

	w := postJSON(t, env.handler.Register, "/api/register", gin.H{
		"email":    "alice@example.com",
		"password": "Str0ng!pass",
		"username": "alice",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"token":"token-abc"`) {
		t.Errorf("body missing token: %s", w.Body.String())
	}
	if got := env.audit.actions(); len(got) != 1 || got[0] != models.ActionRegister {
		t.Errorf("audit actions = %v, want [%s]", got, models.ActionRegister)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"duplicate email", service.ErrDuplicateEmail, http.StatusBadRequest, "User with this email already exists"},
		{"duplicate username", service.ErrDuplicateUsername, http.StatusBadRequest, "Username is already taken"},
		{"weak password", service.ErrPasswordPolicy, http.StatusBadRequest, "Password must be"},
		{"validation", service.ErrValidationFailed, http.StatusBadRequest, "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupAuthHandler(t)
			env.auth.registerFn = func(context.Context, string, string, string) (*service.LoginResult, error) {
				return nil, tt.err
			}

			w := postJSON(t, env.handler.Register, "/api/register", gin.H{
				"email":    "alice@example.com",
				"password": "whatever",
			})

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantError) {
				t.Errorf("body = %s, want fragment %q", w.Body.String(), tt.wantError)
			}
		})
	}
}

func TestRegister_MalformedPayload(t *testing.T) {
	env := setupAuthHandler(t)
	env.auth.registerFn = func(context.Context, string, string, string) (*service.LoginResult, error) {
		t.Fatal("service must not be called for a malformed payload")
		return nil, nil
	}

	w := postJSON(t, env.handler.Register, "/api/register", gin.H{"email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestLogin_Success(t *testing.T) {
	env := setupAuthHandler(t)
	env.auth.loginFn = func(_ context.Context, email, password string) (*service.LoginResult, error) {
		return testLoginResult(), nil
	}

	w := postJSON(t, env.handler.Login, "/api/login", gin.H{
		"email":    "alice@example.com",
		"password": "Str0ng!pass",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"token":"token-abc"`) {
		t.Errorf("body missing token: %s", w.Body.String())
	}
	// Plaintext passwords and hashes never appear in responses.
	if strings.Contains(w.Body.String(), "Str0ng!pass") || strings.Contains(w.Body.String(), "password_hash") {
		t.Errorf("response leaks credentials: %s", w.Body.String())
	}
	if got := env.audit.actions(); len(got) != 1 || got[0] != models.ActionLoginSuccess {
		t.Errorf("audit actions = %v, want [%s]", got, models.ActionLoginSuccess)
	}
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked account", service.ErrAccountLocked, http.StatusLocked},
		{"disabled account", service.ErrAccountDisabled, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupAuthHandler(t)
			env.auth.loginFn = func(context.Context, string, string) (*service.LoginResult, error) {
				return nil, tt.err
			}

			w := postJSON(t, env.handler.Login, "/api/login", gin.H{
				"email":    "alice@example.com",
				"password": "wrong",
			})

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := env.audit.actions(); len(got) != 1 || got[0] != models.ActionLoginFailure {
				t.Errorf("audit actions = %v, want [%s]", got, models.ActionLoginFailure)
			}
		})
	}
}

func TestLogin_FailureAuditNeverStoresPassword(t *testing.T) {
	env := setupAuthHandler(t)
	env.auth.loginFn = func(context.Context, string, string) (*service.LoginResult, error) {
		return nil, service.ErrInvalidCredentials
	}

	postJSON(t, env.handler.Login, "/api/login", gin.H{
		"email":    "Alice@Example.com",
		"password": "Sup3r!secret",
	})

	env.audit.mu.Lock()
	defer env.audit.mu.Unlock()
	if len(env.audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(env.audit.entries))
	}
	entry := env.audit.entries[0]
	if entry.Detail != "alice@example.com" {
		t.Errorf("audit detail = %q, want normalized email", entry.Detail)
	}
	if strings.Contains(entry.Detail, "Sup3r!secret") {
		t.Error("audit entry contains the submitted password")
	}
}

func TestCurrentUser_Unauthenticated(t *testing.T) {
	env := setupAuthHandler(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	env.handler.CurrentUser(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "Not authenticated") {
		t.Errorf("body = %s, want Not authenticated", w.Body.String())
	}
}

func TestLogout_DestroysSessionAndClearsCookie(t *testing.T) {
	env := setupAuthHandler(t)

	sid, err := env.sessions.Create(context.Background(), testLoginResult().User)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/logout", nil)
	c.Request.AddCookie(&http.Cookie{Name: session.CookieName, Value: sid})
	env.handler.Logout(c)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect location = %q, want /login", loc)
	}

	if _, err := env.sessions.Get(context.Background(), sid); err != session.ErrNoSession {
		t.Errorf("session still resolvable after logout, err = %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Errorf("expected an expired empty session cookie, got %+v", cookies)
	}
}

func TestLogout_WithoutSessionStillRedirects(t *testing.T) {
	env := setupAuthHandler(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/logout", nil)
	env.handler.Logout(c)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
}
