package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Identity      string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs authentication attempts. The identity is masked.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := al.baseAttrs("auth", event.EventType, event.Success)
	attrs = append(attrs, event.attrs()...)
	al.emit(event.Success, attrs)
}

// LogThrottleEvent logs a change in the throttle state of an identity
func (al *AuditLogger) LogThrottleEvent(eventType, identity, actorID string, retryAfterSeconds int) {
	attrs := al.baseAttrs("throttle", eventType, true)
	attrs = append(attrs, slog.String("identity", SanitizedEmail(identity)))

	if actorID != "" {
		attrs = append(attrs, slog.String("actor_id", actorID))
	}
	if retryAfterSeconds > 0 {
		attrs = append(attrs, slog.Int("retry_after_seconds", retryAfterSeconds))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
}

func (al *AuditLogger) baseAttrs(auditType, eventType string, success bool) []slog.Attr {
	return []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", eventType),
		slog.Bool("success", success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
}

func (al *AuditLogger) emit(success bool, attrs []slog.Attr) {
	if success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

func (e AuditEvent) attrs() []slog.Attr {
	var attrs []slog.Attr

	if e.UserID != "" {
		attrs = append(attrs, slog.String("user_id", e.UserID))
	}
	if e.Identity != "" {
		attrs = append(attrs, slog.String("identity", SanitizedEmail(e.Identity)))
	}
	if e.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", e.IPAddress))
	}
	if e.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", e.UserAgent))
	}
	if e.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", e.FailureReason))
	}
	for key, val := range e.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}
	return attrs
}
