package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/BradenHooton/vitrine/internal/database"
	"github.com/BradenHooton/vitrine/internal/models"
)

// AuditLogRepository handles audit log data access
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{pool: db.Pool}
}

const auditLogColumns = `id, event_type, actor_id, identity, action, success,
	failure_reason, ip_address, user_agent, metadata, created_at`

// scanAuditLogRow handles nullable fields and populates an AuditLog model from a database row
func scanAuditLogRow(row rowScanner) (*models.AuditLog, error) {
	var log models.AuditLog

	err := row.Scan(
		&log.ID, &log.EventType, &log.ActorID, &log.Identity, &log.Action, &log.Success,
		&log.FailureReason, &log.IPAddress, &log.UserAgent, &log.Metadata, &log.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &log, nil
}

// scanAuditLogRows iterates through rows and scans each into AuditLog models
func scanAuditLogRows(rows pgx.Rows) ([]*models.AuditLog, error) {
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)

	for rows.Next() {
		log, err := scanAuditLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}

// Create creates a new audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if log.Metadata == nil {
		log.Metadata = models.AuditMetadata{}
	}

	query := `
		INSERT INTO audit_logs (
			event_type, actor_id, identity, action, success,
			failure_reason, ip_address, user_agent, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + auditLogColumns

	result, err := scanAuditLogRow(r.pool.QueryRow(
		ctx, query,
		log.EventType, log.ActorID, log.Identity, log.Action, log.Success,
		log.FailureReason, log.IPAddress, log.UserAgent, log.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return result, nil
}

// List retrieves audit logs newest first. An empty eventTypes matches every event.
func (r *AuditLogRepository) List(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
	if eventTypes == nil {
		eventTypes = []string{}
	}

	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE cardinality($1::text[]) = 0 OR event_type = ANY($1::text[])
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(eventTypes), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

// ListByIdentity retrieves the security events recorded for one login identity
func (r *AuditLogRepository) ListByIdentity(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE identity = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

// Cleanup removes audit logs older than retention
func (r *AuditLogRepository) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	query := `DELETE FROM audit_logs WHERE created_at < $1`

	result, err := r.pool.Exec(ctx, query, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	return result.RowsAffected(), nil
}
