package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/BradenHooton/vitrine/internal/models"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
)

// SecurityEventsReader lists persisted security events
type SecurityEventsReader interface {
	ListSecurityEvents(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error)
}

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	auditService SecurityEventsReader
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService SecurityEventsReader) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// AuditLogResponse represents an audit log entry in HTTP response
type AuditLogResponse struct {
	ID            string                 `json:"id"`
	EventType     string                 `json:"event_type"`
	ActorID       *string                `json:"actor_id,omitempty"`
	Identity      *string                `json:"identity,omitempty"`
	Action        string                 `json:"action"`
	Success       bool                   `json:"success"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	IPAddress     *string                `json:"ip_address,omitempty"`
	UserAgent     *string                `json:"user_agent,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     string                 `json:"created_at"`
}

var knownEventTypes = map[string]bool{
	models.AuditEventLoginSuccess:    true,
	models.AuditEventLoginFailed:     true,
	models.AuditEventLoginBlocked:    true,
	models.AuditEventThrottleEngaged: true,
	models.AuditEventThrottleReset:   true,
}

// ListSecurityEvents handles GET /admin/security-events
// Query params: limit (1-100, default 50), offset, and type (comma separated event types).
func (h *AuditHandler) ListSecurityEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	offset := 0

	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := q.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	var eventTypes []string
	if typeStr := q.Get("type"); typeStr != "" {
		for _, t := range strings.Split(typeStr, ",") {
			t = strings.TrimSpace(t)
			if !knownEventTypes[t] {
				pkghttp.WriteBadRequest(w, "unknown event type: "+t)
				return
			}
			eventTypes = append(eventTypes, t)
		}
	}

	logs, err := h.auditService.ListSecurityEvents(r.Context(), eventTypes, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": auditLogsToResponse(logs),
		"limit":  limit,
		"offset": offset,
	})
}

func auditLogsToResponse(logs []*models.AuditLog) []*AuditLogResponse {
	response := make([]*AuditLogResponse, len(logs))
	for i, log := range logs {
		response[i] = auditLogToResponse(log)
	}
	return response
}

// auditLogToResponse converts an audit log model to a response DTO
func auditLogToResponse(log *models.AuditLog) *AuditLogResponse {
	resp := &AuditLogResponse{
		ID:            log.ID.String(),
		EventType:     log.EventType,
		Identity:      log.Identity,
		Action:        log.Action,
		Success:       log.Success,
		FailureReason: log.FailureReason,
		IPAddress:     log.IPAddress,
		UserAgent:     log.UserAgent,
		CreatedAt:     log.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Metadata:      log.Metadata,
	}

	if log.ActorID != nil {
		actorStr := log.ActorID.String()
		resp.ActorID = &actorStr
	}

	return resp
}
