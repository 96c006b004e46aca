package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Security event types, as shown by the dashboard's security monitor
const (
	AuditEventLoginSuccess    = "login_success"
	AuditEventLoginFailed     = "login_failed"
	AuditEventLoginBlocked    = "login_blocked"
	AuditEventThrottleEngaged = "throttle_engaged"
	AuditEventThrottleReset   = "throttle_reset"
)

// Actions
const (
	AuditActionAuthenticate = "authenticate"
	AuditActionBlock        = "block"
	AuditActionReset        = "reset"
)

type AuditLog struct {
	ID            uuid.UUID     `db:"id"`
	EventType     string        `db:"event_type"`
	ActorID       *uuid.UUID    `db:"actor_id"`
	Identity      *string       `db:"identity"`
	Action        string        `db:"action"`
	Success       bool          `db:"success"`
	FailureReason *string       `db:"failure_reason"`
	IPAddress     *string       `db:"ip_address"`
	UserAgent     *string       `db:"user_agent"`
	Metadata      AuditMetadata `db:"metadata"`
	CreatedAt     time.Time     `db:"created_at"`
}

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]interface{}

// NewThrottleMetadata describes the throttle state attached to a security event.
// blockedUntil is omitted when nil.
func NewThrottleMetadata(attemptCount int, remainingAttempts int, blockedUntil *time.Time) AuditMetadata {
	metadata := AuditMetadata{
		"attempt_count":      attemptCount,
		"remaining_attempts": remainingAttempts,
	}
	if blockedUntil != nil {
		metadata["blocked_until"] = blockedUntil.UTC().Format(time.RFC3339)
	}
	return metadata
}

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value interface{}) error {
	if value == nil {
		*am = make(AuditMetadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (am AuditMetadata) Value() (driver.Value, error) {
	if am == nil {
		return nil, nil
	}
	return json.Marshal(am)
}
