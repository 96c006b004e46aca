package models

import "time"

// AttemptState is the explicit throttle state of an identity
type AttemptState int

const (
	// AttemptStateClear means authentication is permitted
	AttemptStateClear AttemptState = iota
	// AttemptStateThrottled means authentication is refused until BlockedUntil
	AttemptStateThrottled
)

func (s AttemptState) String() string {
	switch s {
	case AttemptStateThrottled:
		return "throttled"
	default:
		return "clear"
	}
}

// AttemptRecord holds the consecutive failed logins of one normalized identity
type AttemptRecord struct {
	Identity      string     `json:"identity"`
	AttemptCount  int        `json:"attempt_count"`
	LastAttemptAt time.Time  `json:"last_attempt_at"`
	BlockedUntil  *time.Time `json:"blocked_until,omitempty"`
}

// State reports whether the record blocks authentication at now.
// A BlockedUntil that has been reached counts as elapsed.
func (r AttemptRecord) State(now time.Time) AttemptState {
	if r.BlockedUntil != nil && now.Before(*r.BlockedUntil) {
		return AttemptStateThrottled
	}
	return AttemptStateClear
}

// Expired reports whether the record carried a block that has since elapsed.
// Expired records are treated as if they did not exist.
func (r AttemptRecord) Expired(now time.Time) bool {
	return r.BlockedUntil != nil && !now.Before(*r.BlockedUntil)
}

// BlockStatus is the answer to "may this identity authenticate right now"
type BlockStatus struct {
	Blocked              bool `json:"blocked"`
	RemainingTimeSeconds int  `json:"remaining_time_seconds,omitempty"`
}

// AttemptStatus aggregates everything the login screen shows for an identity
type AttemptStatus struct {
	Identity             string     `json:"identity"`
	Blocked              bool       `json:"blocked"`
	RemainingTimeSeconds int        `json:"remaining_time_seconds,omitempty"`
	RemainingAttempts    int        `json:"remaining_attempts"`
	FailedAttempts       int        `json:"failed_attempts"`
	LastAttemptAt        *time.Time `json:"last_attempt_at,omitempty"`
}

// AttemptOutcome is the throttle state right after a failed attempt was recorded
type AttemptOutcome struct {
	Status            BlockStatus
	RemainingAttempts int
	AttemptCount      int
	// BlockedUntil is set when the failure left the identity throttled
	BlockedUntil *time.Time
	// NewlyBlocked is true when this failure moved the identity into the throttled state
	NewlyBlocked bool
}
