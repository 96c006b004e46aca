package throttle

import (
	"sort"
	"sync"
	"time"

	"github.com/BradenHooton/vitrine/internal/models"
)

// Clock returns the current time
type Clock func() time.Time

// Option configures a Tracker
type Option func(*Tracker)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock Clock) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.now = clock
		}
	}
}

// Tracker counts consecutive failed logins per identity and blocks an
// identity with exponential backoff once it reaches MaxAttempts.
//
// State is memory only and is lost on restart. Blocks expire lazily: the
// first operation that observes an elapsed block treats the record as absent.
// Sweep removes abandoned records in bulk.
type Tracker struct {
	mu      sync.Mutex
	cfg     Config
	now     Clock
	records map[string]*models.AttemptRecord
	gates   map[string]*gate
}

// NewTracker creates an empty tracker
func NewTracker(cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		records: make(map[string]*models.AttemptRecord),
		gates:   make(map[string]*gate),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the effective configuration
func (t *Tracker) Config() Config {
	return t.cfg
}

// IsBlocked reports whether identity may authenticate now.
// An elapsed block is purged as a side effect.
func (t *Tracker) IsBlocked(identity string) models.BlockStatus {
	key := NormalizeIdentity(identity)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.lookup(key, now, true)
	if rec == nil || rec.State(now) != models.AttemptStateThrottled {
		return models.BlockStatus{Blocked: false}
	}
	return blockedStatus(*rec.BlockedUntil, now)
}

// RecordFailedAttempt counts a failed login and returns the resulting status.
// Every failure at or past MaxAttempts recomputes the block from now.
func (t *Tracker) RecordFailedAttempt(identity string) models.BlockStatus {
	outcome := t.RecordFailure(identity)
	return outcome.Status
}

// RecordFailure is RecordFailedAttempt with the full post-failure state
func (t *Tracker) RecordFailure(identity string) models.AttemptOutcome {
	key := NormalizeIdentity(identity)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.lookup(key, now, true)
	wasBlocked := rec != nil && rec.State(now) == models.AttemptStateThrottled
	if rec == nil {
		rec = &models.AttemptRecord{Identity: key}
		t.records[key] = rec
	}

	rec.AttemptCount++
	rec.LastAttemptAt = now

	outcome := models.AttemptOutcome{
		AttemptCount:      rec.AttemptCount,
		RemainingAttempts: max(0, t.cfg.MaxAttempts-rec.AttemptCount),
	}

	if delay := t.cfg.BlockDuration(rec.AttemptCount); delay > 0 {
		until := now.Add(delay)
		rec.BlockedUntil = &until
		deadline := until
		outcome.BlockedUntil = &deadline
		outcome.Status = blockedStatus(until, now)
		outcome.NewlyBlocked = !wasBlocked
	}
	return outcome
}

// RecordSuccessfulAttempt clears all state for identity
func (t *Tracker) RecordSuccessfulAttempt(identity string) {
	key := NormalizeIdentity(identity)

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, key)
}

// RemainingAttempts returns how many failures are left before a block
func (t *Tracker) RemainingAttempts(identity string) int {
	key := NormalizeIdentity(identity)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.lookup(key, now, false)
	if rec == nil {
		return t.cfg.MaxAttempts
	}
	return max(0, t.cfg.MaxAttempts-rec.AttemptCount)
}

// AttemptInfo returns a copy of the live record for identity
func (t *Tracker) AttemptInfo(identity string) (models.AttemptRecord, bool) {
	key := NormalizeIdentity(identity)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.lookup(key, now, false)
	if rec == nil {
		return models.AttemptRecord{}, false
	}
	return copyRecord(rec), true
}

// Status combines IsBlocked, RemainingAttempts and AttemptInfo under one lock
func (t *Tracker) Status(identity string) models.AttemptStatus {
	key := NormalizeIdentity(identity)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	status := models.AttemptStatus{
		Identity:          key,
		RemainingAttempts: t.cfg.MaxAttempts,
	}

	rec := t.lookup(key, now, true)
	if rec == nil {
		return status
	}

	last := rec.LastAttemptAt
	status.FailedAttempts = rec.AttemptCount
	status.LastAttemptAt = &last
	status.RemainingAttempts = max(0, t.cfg.MaxAttempts-rec.AttemptCount)
	if rec.State(now) == models.AttemptStateThrottled {
		bs := blockedStatus(*rec.BlockedUntil, now)
		status.Blocked = true
		status.RemainingTimeSeconds = bs.RemainingTimeSeconds
	}
	return status
}

// Forget removes identity and reports whether a live record existed
func (t *Tracker) Forget(identity string) bool {
	key := NormalizeIdentity(identity)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.lookup(key, now, true)
	delete(t.records, key)
	return rec != nil
}

// Snapshot returns copies of all live records sorted by identity
func (t *Tracker) Snapshot() []models.AttemptRecord {
	now := t.now()

	t.mu.Lock()
	records := make([]models.AttemptRecord, 0, len(t.records))
	for _, rec := range t.records {
		if rec.Expired(now) {
			continue
		}
		records = append(records, copyRecord(rec))
	}
	t.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Identity < records[j].Identity
	})
	return records
}

// Sweep removes elapsed blocks and unblocked records idle for longer than
// IdleTTL. It returns the number of records removed.
func (t *Tracker) Sweep() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, rec := range t.records {
		if rec.Expired(now) || t.idle(rec, now) {
			delete(t.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored records, including ones not yet purged
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.records)
}

// lookup returns the live record for key, or nil when there is none or its
// block has elapsed. When purge is set an elapsed record is deleted.
// Callers must hold t.mu.
func (t *Tracker) lookup(key string, now time.Time, purge bool) *models.AttemptRecord {
	rec, ok := t.records[key]
	if !ok {
		return nil
	}
	if rec.Expired(now) {
		if purge {
			delete(t.records, key)
		}
		return nil
	}
	return rec
}

func (t *Tracker) idle(rec *models.AttemptRecord, now time.Time) bool {
	if t.cfg.IdleTTL <= 0 || rec.State(now) == models.AttemptStateThrottled {
		return false
	}
	return now.Sub(rec.LastAttemptAt) > t.cfg.IdleTTL
}

func blockedStatus(until, now time.Time) models.BlockStatus {
	return models.BlockStatus{
		Blocked:              true,
		RemainingTimeSeconds: ceilSeconds(until.Sub(now)),
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func copyRecord(rec *models.AttemptRecord) models.AttemptRecord {
	c := *rec
	if rec.BlockedUntil != nil {
		until := *rec.BlockedUntil
		c.BlockedUntil = &until
	}
	return c
}
