package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/vitrine/internal/models"
	"github.com/BradenHooton/vitrine/internal/throttle"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

const notifyTimeout = 5 * time.Second

// LoginAttemptRepository defines the login history operations
type LoginAttemptRepository interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginAttempt, error)
}

// ClientInfo identifies where a login request came from
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AttemptService connects the in-memory throttle tracker to login history,
// audit events and lockout notices
type AttemptService struct {
	tracker          *throttle.Tracker
	repo             LoginAttemptRepository
	audit            SecurityEventLogger
	notifier         LockoutNotifier
	historyRetention time.Duration
	logger           *slog.Logger
}

// NewAttemptService creates a new AttemptService
func NewAttemptService(tracker *throttle.Tracker, repo LoginAttemptRepository, audit SecurityEventLogger, notifier LockoutNotifier, historyRetention time.Duration, logger *slog.Logger) *AttemptService {
	return &AttemptService{
		tracker:          tracker,
		repo:             repo,
		audit:            audit,
		notifier:         notifier,
		historyRetention: historyRetention,
		logger:           logger,
	}
}

// Acquire holds identity until the returned func is called. See
// throttle.Tracker.Acquire.
func (s *AttemptService) Acquire(ctx context.Context, identity string) (func(), error) {
	return s.tracker.Acquire(ctx, identity)
}

// Check reports whether identity may attempt a login now
func (s *AttemptService) Check(identity string) models.BlockStatus {
	return s.tracker.IsBlocked(identity)
}

// RecordFailure counts a failed login. When the failure moves the identity
// into the throttled state a throttle_engaged event is audited and the owner
// is notified.
func (s *AttemptService) RecordFailure(ctx context.Context, identity string, client ClientInfo, reason string) models.AttemptOutcome {
	identity = throttle.NormalizeIdentity(identity)
	outcome := s.tracker.RecordFailure(identity)

	s.recordHistory(ctx, identity, client, false, reason)

	if outcome.NewlyBlocked {
		s.logger.Warn("login throttled",
			slog.String("identity", pkglogger.SanitizedEmail(identity)),
			slog.Int("failed_attempts", outcome.AttemptCount),
			slog.Int("retry_after_seconds", outcome.Status.RemainingTimeSeconds))

		blockedUntil := *outcome.BlockedUntil
		s.audit.LogSecurityEvent(ctx, SecurityEvent{
			EventType: models.AuditEventThrottleEngaged,
			Action:    models.AuditActionBlock,
			Identity:  identity,
			Success:   true,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
			Metadata: s.throttleMetadata(outcome.AttemptCount, outcome.RemainingAttempts, &blockedUntil,
				outcome.Status.RemainingTimeSeconds),
		})

		s.notify(ctx, identity, blockedUntil)
	}

	return outcome
}

// RecordBlocked records a login refused because identity is throttled
func (s *AttemptService) RecordBlocked(ctx context.Context, identity string, client ClientInfo) {
	s.recordHistory(ctx, throttle.NormalizeIdentity(identity), client, false, models.FailureReasonThrottled)
}

// RecordSuccess clears the throttle state of identity
func (s *AttemptService) RecordSuccess(ctx context.Context, identity string, client ClientInfo) {
	identity = throttle.NormalizeIdentity(identity)
	s.tracker.RecordSuccessfulAttempt(identity)
	s.recordHistory(ctx, identity, client, true, "")
}

// Status returns what the login screen shows for identity
func (s *AttemptService) Status(identity string) models.AttemptStatus {
	return s.tracker.Status(identity)
}

// Reset clears the throttle state of identity on behalf of an admin.
// Returns ErrNotFound when there was nothing to clear.
func (s *AttemptService) Reset(ctx context.Context, identity, actorID string) error {
	identity = throttle.NormalizeIdentity(identity)
	if !s.tracker.Forget(identity) {
		return models.ErrNotFound
	}

	s.logger.Info("throttle reset by admin",
		slog.String("identity", pkglogger.SanitizedEmail(identity)),
		slog.String("actor_id", actorID))

	s.audit.LogSecurityEvent(ctx, SecurityEvent{
		EventType: models.AuditEventThrottleReset,
		Action:    models.AuditActionReset,
		Identity:  identity,
		ActorID:   actorID,
		Success:   true,
	})
	return nil
}

// Throttled lists every identity with live throttle state
func (s *AttemptService) Throttled() []models.AttemptRecord {
	return s.tracker.Snapshot()
}

// History returns the most recent login attempts for identity
func (s *AttemptService) History(ctx context.Context, identity string, limit int) ([]*models.LoginAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	attempts, err := s.repo.ListByEmail(ctx, throttle.NormalizeIdentity(identity), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get login history: %w", err)
	}
	return attempts, nil
}

// recordHistory persists a login_attempts row. Failures are logged and
// ignored: the throttle decision never depends on history.
func (s *AttemptService) recordHistory(ctx context.Context, identity string, client ClientInfo, success bool, reason string) {
	attempt := &models.LoginAttempt{
		Email:         identity,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		Success:       success,
		FailureReason: optionalString(reason),
		ExpiresAt:     time.Now().Add(s.historyRetention),
	}

	if err := s.repo.RecordAttempt(ctx, attempt); err != nil {
		s.logger.Error("failed to record login attempt", slog.Any("error", err))
	}
}

func (s *AttemptService) notify(ctx context.Context, identity string, blockedUntil time.Time) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyLockout(ctx, identity, blockedUntil); err != nil {
		s.logger.Error("failed to send lockout notice",
			slog.String("identity", pkglogger.SanitizedEmail(identity)),
			slog.Any("error", err))
	}
}

func (s *AttemptService) throttleMetadata(attemptCount, remaining int, blockedUntil *time.Time, retryAfter int) models.AuditMetadata {
	metadata := models.NewThrottleMetadata(attemptCount, remaining, blockedUntil)
	if retryAfter > 0 {
		metadata["retry_after_seconds"] = retryAfter
	}
	return metadata
}
