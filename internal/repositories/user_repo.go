package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BradenHooton/vitrine/internal/database"
	"github.com/BradenHooton/vitrine/internal/models"
)

type UserRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, email, password_hash, name, role, status, created_at, updated_at`

// scanUserRow populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail looks a user up by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return r.create(ctx, r.pool, user)
}

// EnsureAdmin creates the admin account if no user holds that email.
// An existing account is promoted to admin and reactivated; its password is
// left untouched. Returns true when a new account was created.
func (r *UserRepository) EnsureAdmin(ctx context.Context, user *models.User) (bool, error) {
	created := false

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM users WHERE LOWER(email) = LOWER($1) FOR UPDATE`, user.Email,
		).Scan(&id)

		if errors.Is(err, pgx.ErrNoRows) {
			user.Role = models.RoleAdmin
			if _, err := r.create(ctx, tx, user); err != nil {
				return err
			}
			created = true
			return nil
		}
		if err != nil {
			return database.MapPostgresError(err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET role = $1, status = $2, updated_at = $3 WHERE id = $4`,
			models.RoleAdmin, models.StatusActive, time.Now(), id,
		)
		return database.MapPostgresError(err)
	})
	if err != nil {
		return false, fmt.Errorf("failed to ensure admin user: %w", err)
	}

	return created, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *UserRepository) create(ctx context.Context, q queryRower, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if user.Status == "" {
		user.Status = models.StatusActive
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	return scanUserRow(q.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.Role, user.Status, user.CreatedAt, user.UpdatedAt,
	))
}
