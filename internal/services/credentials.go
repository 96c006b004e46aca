package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/vitrine/internal/models"
	pkgauth "github.com/BradenHooton/vitrine/pkg/auth"
)

// UserRepository defines the user lookups the services need
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordVerifier checks an email and password against stored bcrypt hashes
type PasswordVerifier struct {
	repo   UserRepository
	logger *slog.Logger
}

// NewPasswordVerifier creates a new PasswordVerifier
func NewPasswordVerifier(repo UserRepository, logger *slog.Logger) *PasswordVerifier {
	return &PasswordVerifier{repo: repo, logger: logger}
}

// VerifyCredentials returns the user when the password matches.
//
// Errors: ErrUnauthorized for an unknown email or wrong password,
// ErrAccountDisabled / ErrAccountSuspended for a correct password on an
// inactive account, ErrInternalServer when the lookup fails.
func (v *PasswordVerifier) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := v.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// same bcrypt cost as a real comparison
			_ = pkgauth.CompareDummyPassword(password)
			return nil, models.ErrUnauthorized
		}
		v.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, models.ErrUnauthorized
	}

	if err := validateAccountState(user); err != nil {
		v.logger.Info("login refused due to account state",
			slog.String("user_id", user.ID),
			slog.String("status", user.Status))
		return nil, err
	}

	return user, nil
}

// validateAccountState checks if user account is in valid state for authentication
func validateAccountState(user *models.User) error {
	switch user.Status {
	case models.StatusActive:
		return nil
	case models.StatusSuspended:
		return models.ErrAccountSuspended
	default:
		return models.ErrAccountDisabled
	}
}

// isCredentialError reports whether err means the caller presented bad
// credentials, as opposed to an infrastructure failure
func isCredentialError(err error) bool {
	return errors.Is(err, models.ErrUnauthorized) ||
		errors.Is(err, models.ErrAccountDisabled) ||
		errors.Is(err, models.ErrAccountSuspended)
}
