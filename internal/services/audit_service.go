package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/BradenHooton/vitrine/internal/models"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

// AuditLogRepository defines the audit log persistence operations
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	List(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error)
	ListByIdentity(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error)
}

// SecurityEvent describes one security-relevant occurrence
type SecurityEvent struct {
	EventType     string
	Action        string
	Identity      string
	ActorID       string
	Success       bool
	FailureReason string
	IPAddress     string
	UserAgent     string
	Metadata      models.AuditMetadata
}

// SecurityEventLogger records security events
type SecurityEventLogger interface {
	LogSecurityEvent(ctx context.Context, event SecurityEvent)
}

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo        AuditLogRepository
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, auditLogger *pkglogger.AuditLogger, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:        repo,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// LogSecurityEvent writes the event to the audit log stream and persists it.
// Persistence failures are logged and never fail the caller.
func (s *AuditService) LogSecurityEvent(ctx context.Context, event SecurityEvent) {
	switch event.EventType {
	case models.AuditEventThrottleEngaged, models.AuditEventThrottleReset:
		retryAfter, _ := event.Metadata["retry_after_seconds"].(int)
		s.auditLogger.LogThrottleEvent(event.EventType, event.Identity, event.ActorID, retryAfter)
	default:
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     event.EventType,
			UserID:        event.ActorID,
			Identity:      event.Identity,
			IPAddress:     event.IPAddress,
			UserAgent:     event.UserAgent,
			Success:       event.Success,
			FailureReason: event.FailureReason,
		})
	}

	if _, err := s.repo.Create(ctx, toAuditLog(event)); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("event_type", event.EventType),
			slog.Any("error", err),
		)
	}
}

// ListSecurityEvents returns recent security events, newest first.
// An empty eventTypes lists every event type.
func (s *AuditService) ListSecurityEvents(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.repo.List(ctx, eventTypes, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	return logs, nil
}

// IdentityEvents returns the security events recorded for one identity
func (s *AuditService) IdentityEvents(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	logs, err := s.repo.ListByIdentity(ctx, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list identity events: %w", err)
	}
	return logs, nil
}

func toAuditLog(event SecurityEvent) *models.AuditLog {
	log := &models.AuditLog{
		EventType:     event.EventType,
		Action:        event.Action,
		Success:       event.Success,
		Identity:      optionalString(event.Identity),
		FailureReason: optionalString(event.FailureReason),
		IPAddress:     optionalString(event.IPAddress),
		UserAgent:     optionalString(event.UserAgent),
		Metadata:      event.Metadata,
	}

	if id, err := uuid.Parse(event.ActorID); err == nil {
		log.ActorID = &id
	}

	return log
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
