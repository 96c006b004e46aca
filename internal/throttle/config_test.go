package throttle

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_BlockDuration(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		attempts int
		want     time.Duration
	}{
		{"no failures", 0, 0},
		{"below threshold", 4, 0},
		{"tier 1", 5, 60 * time.Second},
		{"tier 2", 10, 120 * time.Second},
		{"tier 3", 15, 240 * time.Second},
		{"tier 4 capped", 20, 5 * time.Minute},
		{"tier clamp", 30, 5 * time.Minute},
		{"huge count", math.MaxInt, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.BlockDuration(tt.attempts))
		})
	}
}

func TestConfig_BlockDurationMaxTier(t *testing.T) {
	cfg := Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     time.Hour,
		MaxTier:      2,
	}

	assert.Equal(t, 2*time.Second, cfg.BlockDuration(3))
	assert.Equal(t, 4*time.Second, cfg.BlockDuration(6))
	assert.Equal(t, 4*time.Second, cfg.BlockDuration(300), "exponent clamped at MaxTier")
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{
		MaxAttempts:  -1,
		InitialDelay: 0,
		MaxDelay:     -time.Second,
		MaxTier:      -3,
		IdleTTL:      -time.Hour,
	}.withDefaults()

	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultInitialDelay, cfg.InitialDelay)
	assert.Equal(t, DefaultMaxDelay, cfg.MaxDelay)
	assert.Equal(t, DefaultMaxTier, cfg.MaxTier)
	assert.Equal(t, time.Duration(0), cfg.IdleTTL)
}

func TestConfig_WithDefaultsMaxBelowInitial(t *testing.T) {
	cfg := Config{
		MaxAttempts:  5,
		InitialDelay: 10 * time.Minute,
		MaxDelay:     time.Minute,
	}.withDefaults()

	assert.Equal(t, 10*time.Minute, cfg.MaxDelay)
	assert.Equal(t, 10*time.Minute, cfg.BlockDuration(5))
}

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "foo@bar.com", NormalizeIdentity("  Foo@Bar.COM\t"))
	assert.Equal(t, "", NormalizeIdentity("   "))
}
