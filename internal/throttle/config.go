package throttle

import (
	"strings"
	"time"
)

// Defaults applied when a Config field is unset or invalid
const (
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = 30 * time.Second
	DefaultMaxDelay     = 5 * time.Minute
	DefaultMaxTier      = 5
	DefaultIdleTTL      = 24 * time.Hour
)

// Config holds the backoff parameters of a Tracker
type Config struct {
	// MaxAttempts is the number of consecutive failures before the first block
	MaxAttempts int
	// InitialDelay is the base block duration, doubled per tier
	InitialDelay time.Duration
	// MaxDelay caps any single block duration
	MaxDelay time.Duration
	// MaxTier clamps the backoff exponent
	MaxTier int
	// IdleTTL is how long Sweep keeps an unblocked record after its last
	// failure. Zero keeps records until success or block expiry.
	IdleTTL time.Duration
}

// DefaultConfig returns the standard login throttle settings
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		MaxTier:      DefaultMaxTier,
		IdleTTL:      DefaultIdleTTL,
	}
}

// withDefaults replaces invalid fields with their defaults
func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxDelay <= 0 || c.MaxDelay < c.InitialDelay {
		c.MaxDelay = max(DefaultMaxDelay, c.InitialDelay)
	}
	if c.MaxTier < 0 {
		c.MaxTier = DefaultMaxTier
	}
	if c.IdleTTL < 0 {
		c.IdleTTL = 0
	}
	return c
}

// BlockDuration returns how long an identity is blocked after attemptCount
// consecutive failures. It is zero below MaxAttempts.
//
// tier = min(attemptCount/MaxAttempts, MaxTier)
// delay = min(InitialDelay * 2^tier, MaxDelay)
func (c Config) BlockDuration(attemptCount int) time.Duration {
	if attemptCount < c.MaxAttempts || c.MaxAttempts <= 0 {
		return 0
	}

	tier := min(attemptCount/c.MaxAttempts, c.MaxTier)

	delay := c.InitialDelay
	for i := 0; i < tier; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return min(delay, c.MaxDelay)
}

// NormalizeIdentity returns the key under which an identity is tracked.
// Matching is case-insensitive and ignores surrounding whitespace.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
