//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/database"
	"github.com/BradenHooton/vitrine/internal/handlers"
	middlewareCustom "github.com/BradenHooton/vitrine/internal/middleware"
	"github.com/BradenHooton/vitrine/internal/routes"
	"github.com/BradenHooton/vitrine/internal/services"
	"github.com/BradenHooton/vitrine/internal/throttle"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

// ManualClock is a settable clock for the login throttle
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server   *httptest.Server
	DB       *database.DB
	Tracker  *throttle.Tracker
	Clock    *ManualClock
	Notifier *services.MockLockoutNotifier
}

// NewTestServer initializes a complete HTTP server with real database and a
// recording lockout notifier
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	userRepo, loginAttemptRepo, auditLogRepo := InitializeRepositories(db)

	clock := &ManualClock{now: time.Now()}
	tracker := throttle.NewTracker(throttle.DefaultConfig(), throttle.WithClock(clock.Now))
	notifier := &services.MockLockoutNotifier{}

	tokenManager := auth.NewTokenManager("integration-test-secret-with-enough-entropy-42", 15*time.Minute)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{BaseDelayMs: 10, RandomDelayMs: 5})

	auditService := services.NewAuditService(auditLogRepo, pkglogger.NewAuditLogger(logger), logger)
	attemptService := services.NewAttemptService(tracker, loginAttemptRepo, auditService, notifier, 24*time.Hour, logger)
	authService := services.NewAuthService(services.NewPasswordVerifier(userRepo, logger), attemptService, tokenManager, timingDelay, auditService, logger)

	ipConfig := pkghttp.MustIPConfig()

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	r.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(r,
		handlers.NewAuthHandler(authService, ipConfig),
		handlers.NewAdminHandler(attemptService, auditService, logger),
		handlers.NewAuditHandler(auditService),
		tokenManager,
		userRepo,
		routes.Options{IPConfig: ipConfig, LoginRequestsPerMinute: 1000},
	)

	return &TestServer{
		Server:   httptest.NewServer(r),
		DB:       db,
		Tracker:  tracker,
		Clock:    clock,
		Notifier: notifier,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
}

// Login posts credentials to /auth/login
func (ts *TestServer) Login(email, password string) (*http.Response, error) {
	return ts.Request("POST", "/auth/login", handlers.LoginRequest{Email: email, Password: password}, nil)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
