package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled  = errors.New("account is disabled")
	ErrAccountSuspended = errors.New("account is suspended")

	// Throttling errors
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// ThrottledError is returned when a login is refused because the identity is
// currently blocked. The credential check was not performed.
type ThrottledError struct {
	RetryAfterSeconds int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrTooManyAttempts, e.RetryAfterSeconds)
}

func (e *ThrottledError) Unwrap() error {
	return ErrTooManyAttempts
}

// LoginFailedError is returned when the credentials were rejected. It carries
// the throttle state after the failure was recorded so the client can warn
// the user before the hard block triggers.
type LoginFailedError struct {
	RemainingAttempts int
	Blocked           bool
	RetryAfterSeconds int
	Cause             error
}

func (e *LoginFailedError) Error() string {
	if e.Blocked {
		return fmt.Sprintf("login failed: blocked for %ds", e.RetryAfterSeconds)
	}
	return fmt.Sprintf("login failed: %d attempt(s) remaining", e.RemainingAttempts)
}

// Unwrap exposes both ErrUnauthorized and the underlying credential error
func (e *LoginFailedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnauthorized}
	}
	return []error{ErrUnauthorized, e.Cause}
}
