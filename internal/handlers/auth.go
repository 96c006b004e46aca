package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/vitrine/internal/models"
	"github.com/BradenHooton/vitrine/internal/services"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error)
	AttemptStatus(ctx context.Context, email string) (models.AttemptStatus, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AttemptStatusQuery is the query string of GET /auth/attempts
type AttemptStatusQuery struct {
	Email string `validate:"required,email,max=254"`
}

// Login handles dashboard login
// @Summary Dashboard login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse "remaining_attempts is set"
// @Failure 429 {object} pkghttp.ErrorResponse "retry_after_seconds is set"
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	// surrounding whitespace is not part of the identity
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	client := services.ClientInfo{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password, client)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// writeLoginError maps a Login error to a response. Account state errors
// share the generic message so the response does not reveal which accounts exist.
func writeLoginError(w http.ResponseWriter, err error) {
	var throttled *models.ThrottledError
	var failed *models.LoginFailedError

	switch {
	case errors.As(err, &throttled):
		pkghttp.WriteThrottled(w, "Too many failed login attempts. Please try again later.", throttled.RetryAfterSeconds)
	case errors.As(err, &failed):
		if failed.Blocked {
			pkghttp.WriteThrottled(w, "Too many failed login attempts. Please try again later.", failed.RetryAfterSeconds)
			return
		}
		pkghttp.WriteLoginFailed(w, "Authentication failed", failed.RemainingAttempts)
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Email is required")
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrAccountDisabled),
		errors.Is(err, models.ErrAccountSuspended):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// AttemptStatus reports the throttle state of an email so the login screen
// can render its countdown
// @Summary Login throttle status
// @Param email query string true "Email address"
// @Produce json
// @Success 200 {object} models.AttemptStatus
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /auth/attempts [get]
func (h *AuthHandler) AttemptStatus(w http.ResponseWriter, r *http.Request) {
	query := AttemptStatusQuery{Email: strings.TrimSpace(r.URL.Query().Get("email"))}
	if err := ValidateRequest(query); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	status, err := h.service.AttemptStatus(r.Context(), query.Email)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Email is required")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	pkghttp.WriteJSON(w, http.StatusOK, status)
}
