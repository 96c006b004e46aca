package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ThrottleSweeper drops throttle state that no longer affects any decision
type ThrottleSweeper interface {
	Sweep() int
}

// LoginAttemptCleaner deletes login history past its retention
type LoginAttemptCleaner interface {
	DeleteExpiredAttempts(ctx context.Context) (int64, error)
}

// AuditLogCleaner deletes audit logs older than the retention period
type AuditLogCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupManager periodically sweeps the in-memory throttle and prunes the
// login history and audit tables
type CleanupManager struct {
	tracker        ThrottleSweeper
	attempts       LoginAttemptCleaner
	auditLogs      AuditLogCleaner
	auditRetention time.Duration
	logger         *slog.Logger
	interval       time.Duration
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// NewCleanupManager creates a new cleanup manager. attempts and auditLogs may
// be nil, in which case only the tracker is swept.
func NewCleanupManager(
	tracker ThrottleSweeper,
	attempts LoginAttemptCleaner,
	auditLogs AuditLogCleaner,
	auditRetention time.Duration,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		tracker:        tracker,
		attempts:       attempts,
		auditLogs:      auditLogs,
		auditRetention: auditRetention,
		logger:         logger,
		interval:       interval,
		stopCh:         make(chan struct{}),
	}
}

// Start begins the periodic cleanup task. It blocks until Stop is called or
// ctx is cancelled.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup performs one cleanup pass. A failing step does not skip the others.
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	if swept := cm.tracker.Sweep(); swept > 0 {
		cm.logger.Info("throttle sweep completed", slog.Int("records_removed", swept))
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cm.attempts != nil {
		rows, err := cm.attempts.DeleteExpiredAttempts(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to cleanup login attempts", slog.Any("error", err))
		} else if rows > 0 {
			cm.logger.Info("login attempt cleanup completed", slog.Int64("rows_deleted", rows))
		}
	}

	if cm.auditLogs != nil && cm.auditRetention > 0 {
		rows, err := cm.auditLogs.Cleanup(cleanupCtx, cm.auditRetention)
		if err != nil {
			cm.logger.Error("failed to cleanup audit logs", slog.Any("error", err))
		} else if rows > 0 {
			cm.logger.Info("audit log cleanup completed", slog.Int64("rows_deleted", rows))
		}
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
