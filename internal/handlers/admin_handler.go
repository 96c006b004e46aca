package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/models"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

// AttemptAdminInterface defines the throttle operations exposed to admins
type AttemptAdminInterface interface {
	Status(identity string) models.AttemptStatus
	Throttled() []models.AttemptRecord
	History(ctx context.Context, identity string, limit int) ([]*models.LoginAttempt, error)
	Reset(ctx context.Context, identity, actorID string) error
}

// IdentityEventsReader lists the audit events of one identity
type IdentityEventsReader interface {
	IdentityEvents(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error)
}

// AdminHandler handles the throttle administration endpoints
type AdminHandler struct {
	attempts AttemptAdminInterface
	events   IdentityEventsReader
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(attempts AttemptAdminInterface, events IdentityEventsReader, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{attempts: attempts, events: events, logger: logger}
}

// ThrottledResponse lists every identity with live throttle state
type ThrottledResponse struct {
	Records []models.AttemptRecord `json:"records"`
	Count   int                    `json:"count"`
}

// IdentityAttemptsResponse is the admin view of one identity
type IdentityAttemptsResponse struct {
	Status  models.AttemptStatus   `json:"status"`
	History []*models.LoginAttempt `json:"history"`
	Events  []*AuditLogResponse    `json:"events"`
}

// ListThrottled handles GET /admin/throttled
func (h *AdminHandler) ListThrottled(w http.ResponseWriter, r *http.Request) {
	records := h.attempts.Throttled()
	pkghttp.WriteJSON(w, http.StatusOK, ThrottledResponse{Records: records, Count: len(records)})
}

// GetAttempts handles GET /admin/attempts/{email}
// Accepts optional query param ?limit=N (1-100, default 20).
func (h *AdminHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityParam(w, r)
	if !ok {
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	history, err := h.attempts.History(r.Context(), identity, limit)
	if err != nil {
		h.logger.Error("failed to load login history",
			slog.String("identity", pkglogger.SanitizedEmail(identity)),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Failed to retrieve login history")
		return
	}

	logs, err := h.events.IdentityEvents(r.Context(), identity, limit)
	if err != nil {
		h.logger.Error("failed to load identity events",
			slog.String("identity", pkglogger.SanitizedEmail(identity)),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Failed to retrieve security events")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, IdentityAttemptsResponse{
		Status:  h.attempts.Status(identity),
		History: history,
		Events:  auditLogsToResponse(logs),
	})
}

// ResetAttempts handles DELETE /admin/attempts/{email}
func (h *AdminHandler) ResetAttempts(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	identity, ok := identityParam(w, r)
	if !ok {
		return
	}

	if err := h.attempts.Reset(r.Context(), identity, claims.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "No throttle state for this identity")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// identityParam reads and validates the {email} URL parameter
func identityParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid email")
		return "", false
	}

	query := AttemptStatusQuery{Email: strings.TrimSpace(raw)}
	if err := ValidateRequest(query); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return "", false
	}
	return query.Email, true
}
