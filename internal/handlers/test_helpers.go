package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/models"
	"github.com/BradenHooton/vitrine/internal/services"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAdminContext adds admin user claims to request context
func WithAdminContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   models.RoleAdmin,
		Type:   "access",
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithChiRouteContext sets chi URL parameters on a request built without a router
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc         func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error)
	AttemptStatusFunc func(ctx context.Context, email string) (models.AttemptStatus, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, client)
}

func (m *MockAuthService) AttemptStatus(ctx context.Context, email string) (models.AttemptStatus, error) {
	if m.AttemptStatusFunc == nil {
		return models.AttemptStatus{Identity: email, RemainingAttempts: 5}, nil
	}
	return m.AttemptStatusFunc(ctx, email)
}

// MockAttemptAdmin implements AttemptAdminInterface for testing
type MockAttemptAdmin struct {
	StatusFunc    func(identity string) models.AttemptStatus
	ThrottledFunc func() []models.AttemptRecord
	HistoryFunc   func(ctx context.Context, identity string, limit int) ([]*models.LoginAttempt, error)
	ResetFunc     func(ctx context.Context, identity, actorID string) error
}

func (m *MockAttemptAdmin) Status(identity string) models.AttemptStatus {
	if m.StatusFunc == nil {
		return models.AttemptStatus{Identity: identity, RemainingAttempts: 5}
	}
	return m.StatusFunc(identity)
}

func (m *MockAttemptAdmin) Throttled() []models.AttemptRecord {
	if m.ThrottledFunc == nil {
		return []models.AttemptRecord{}
	}
	return m.ThrottledFunc()
}

func (m *MockAttemptAdmin) History(ctx context.Context, identity string, limit int) ([]*models.LoginAttempt, error) {
	if m.HistoryFunc == nil {
		return []*models.LoginAttempt{}, nil
	}
	return m.HistoryFunc(ctx, identity, limit)
}

func (m *MockAttemptAdmin) Reset(ctx context.Context, identity, actorID string) error {
	if m.ResetFunc == nil {
		return models.ErrNotFound
	}
	return m.ResetFunc(ctx, identity, actorID)
}

// MockAuditReader implements SecurityEventsReader and IdentityEventsReader for testing
type MockAuditReader struct {
	mu                     sync.Mutex
	ListSecurityEventsFunc func(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error)
	IdentityEventsFunc     func(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error)
}

func (m *MockAuditReader) ListSecurityEvents(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListSecurityEventsFunc == nil {
		return []*models.AuditLog{}, nil
	}
	return m.ListSecurityEventsFunc(ctx, eventTypes, limit, offset)
}

func (m *MockAuditReader) IdentityEvents(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IdentityEventsFunc == nil {
		return []*models.AuditLog{}, nil
	}
	return m.IdentityEventsFunc(ctx, identity, limit)
}

// DiscardLogger returns a logger that drops all output
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
