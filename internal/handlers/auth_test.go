package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/vitrine/internal/handlers"
	"github.com/BradenHooton/vitrine/internal/models"
	"github.com/BradenHooton/vitrine/internal/services"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
)

func loginRequest(t *testing.T) *http.Request {
	return handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "admin@example.com",
		Password: "password123",
	})
}

func TestLogin_Success(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC)
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			return &services.AuthResponse{
				AccessToken: "access_token_123",
				TokenType:   "Bearer",
				ExpiresAt:   expires,
				User:        &services.UserResponse{ID: "u1", Email: email},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t))

	var resp services.AuthResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "access_token_123", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.True(t, expires.Equal(resp.ExpiresAt))
	require.NotNil(t, resp.User)
	assert.Equal(t, "admin@example.com", resp.User.Email)
}

func TestLogin_PassesClientInfo(t *testing.T) {
	var got services.ClientInfo
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			got = client
			return &services.AuthResponse{AccessToken: "t"}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, pkghttp.MustIPConfig("10.0.0.0/8"))
	req := loginRequest(t)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("User-Agent", "dashboard/1.0")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "203.0.113.9", got.IPAddress)
	assert.Equal(t, "dashboard/1.0", got.UserAgent)
}

func TestLogin_TrimsPaddedEmail(t *testing.T) {
	var gotEmail string
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			gotEmail = email
			return &services.AuthResponse{AccessToken: "t"}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "  Foo@Bar.com ",
		Password: "password123",
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, "Foo@Bar.com", gotEmail)
}

func TestLogin_FailedWithRemainingAttempts(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			return nil, &models.LoginFailedError{RemainingAttempts: 3, Cause: models.ErrUnauthorized}
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t))

	resp := handlers.AssertErrorResponse(t, w, 401, "unauthorized")
	assert.Equal(t, "Authentication failed", resp.Message)
	require.NotNil(t, resp.RemainingAttempts)
	assert.Equal(t, 3, *resp.RemainingAttempts)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestLogin_ZeroRemainingAttemptsIsSerialized(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			return nil, &models.LoginFailedError{RemainingAttempts: 0}
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t))

	assert.Equal(t, 401, w.Code)
	assert.Contains(t, w.Body.String(), `"remaining_attempts":0`)
}

func TestLogin_FailureThatBlocksReturns429(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			return nil, &models.LoginFailedError{Blocked: true, RetryAfterSeconds: 60}
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t))

	resp := handlers.AssertErrorResponse(t, w, 429, "too_many_attempts")
	assert.Equal(t, 60, resp.RetryAfterSeconds)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestLogin_Throttled(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			return nil, &models.ThrottledError{RetryAfterSeconds: 42}
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t))

	resp := handlers.AssertErrorResponse(t, w, 429, "too_many_attempts")
	assert.Equal(t, 42, resp.RetryAfterSeconds)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.Nil(t, resp.RemainingAttempts)
}

func TestLogin_AccountStatusErrors_AntiEnumeration(t *testing.T) {
	accountErrors := []error{
		models.ErrUnauthorized,
		models.ErrAccountDisabled,
		models.ErrAccountSuspended,
	}

	for _, accountErr := range accountErrors {
		t.Run("account error: "+accountErr.Error(), func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
					return nil, accountErr
				},
			}

			handler := handlers.NewAuthHandler(mockAuth, nil)
			w := httptest.NewRecorder()
			handler.Login(w, loginRequest(t))

			resp := handlers.AssertErrorResponse(t, w, 401, "unauthorized")
			assert.Equal(t, "Authentication failed", resp.Message)
		})
	}
}

func TestLogin_InternalError(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			return nil, models.ErrInternalServer
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t))

	handlers.AssertErrorResponse(t, w, 500, "internal_error")
}

func TestLogin_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing email", `{"password":"secret"}`},
		{"invalid email", `{"email":"not-an-email","password":"secret"}`},
		{"missing password", `{"email":"admin@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockAuth := &handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
					called = true
					return nil, nil
				},
			}

			handler := handlers.NewAuthHandler(mockAuth, nil)
			req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			handlers.AssertErrorResponse(t, w, 400, "bad_request")
			assert.False(t, called, "service must not be called for invalid input")
		})
	}
}

func TestAttemptStatus_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		AttemptStatusFunc: func(ctx context.Context, email string) (models.AttemptStatus, error) {
			assert.Equal(t, "admin@example.com", email)
			return models.AttemptStatus{
				Identity:             email,
				Blocked:              true,
				RemainingTimeSeconds: 37,
				FailedAttempts:       5,
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := httptest.NewRequest("GET", "/auth/attempts?email=admin@example.com", nil)
	w := httptest.NewRecorder()
	handler.AttemptStatus(w, req)

	var status models.AttemptStatus
	handlers.AssertJSONResponse(t, w, 200, &status)
	assert.True(t, status.Blocked)
	assert.Equal(t, 37, status.RemainingTimeSeconds)
	assert.Equal(t, 5, status.FailedAttempts)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAttemptStatus_TrimsPaddedEmail(t *testing.T) {
	var gotEmail string
	mockAuth := &handlers.MockAuthService{
		AttemptStatusFunc: func(ctx context.Context, email string) (models.AttemptStatus, error) {
			gotEmail = email
			return models.AttemptStatus{Identity: email, RemainingAttempts: 5}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	w := httptest.NewRecorder()
	handler.AttemptStatus(w, httptest.NewRequest("GET", "/auth/attempts?email=%20%20Admin@Example.com%20", nil))

	assert.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, "Admin@Example.com", gotEmail)
}

func TestAttemptStatus_InvalidEmail(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)

	for _, url := range []string{"/auth/attempts", "/auth/attempts?email=nope"} {
		w := httptest.NewRecorder()
		handler.AttemptStatus(w, httptest.NewRequest("GET", url, nil))
		handlers.AssertErrorResponse(t, w, 400, "bad_request")
	}
}
