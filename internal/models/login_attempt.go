package models

import "time"

// Failure reasons recorded with login attempts
const (
	FailureReasonInvalidCredentials = "invalid_credentials"
	FailureReasonAccountBlocked     = "account_blocked"
	FailureReasonThrottled          = "throttled"
)

// LoginAttempt is one row of login history. History is kept for the admin
// dashboard only; throttling decisions never read it.
type LoginAttempt struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	IPAddress     string    `db:"ip_address" json:"ip_address"`
	UserAgent     string    `db:"user_agent" json:"user_agent"`
	AttemptTime   time.Time `db:"attempt_time" json:"attempt_time"`
	Success       bool      `db:"success" json:"success"`
	FailureReason *string   `db:"failure_reason" json:"failure_reason,omitempty"`
	ExpiresAt     time.Time `db:"expires_at" json:"-"`
}
