package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/models"
	"github.com/BradenHooton/vitrine/internal/throttle"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

// CredentialVerifier checks an identity and secret. Credential errors
// (ErrUnauthorized and the account state errors) count toward throttling;
// any other error does not.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
}

// AuthService runs the throttled login flow
type AuthService struct {
	verifier CredentialVerifier
	attempts *AttemptService
	tm       *auth.TokenManager
	timing   *auth.TimingDelay
	audit    SecurityEventLogger
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(verifier CredentialVerifier, attempts *AttemptService, tm *auth.TokenManager, timing *auth.TimingDelay, audit SecurityEventLogger, logger *slog.Logger) *AuthService {
	return &AuthService{
		verifier: verifier,
		attempts: attempts,
		tm:       tm,
		timing:   timing,
		audit:    audit,
		logger:   logger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AuthResponse represents the response from a successful login
type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        *UserResponse `json:"user"`
}

// Login authenticates email and password behind the attempt throttle.
//
// A blocked identity gets *models.ThrottledError without its credentials
// being checked. Rejected credentials get *models.LoginFailedError carrying
// the throttle state after the failure was counted.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResponse, error) {
	start := time.Now()

	identity := throttle.NormalizeIdentity(email)
	if identity == "" {
		return nil, models.ErrBadRequest
	}

	release, err := s.attempts.Acquire(ctx, identity)
	if err != nil {
		return nil, err
	}
	user, err := s.authenticate(ctx, identity, password, client)
	release()
	if err != nil {
		var failed *models.LoginFailedError
		if errors.As(err, &failed) {
			s.timing.WaitFrom(ctx, start, false)
		}
		return nil, err
	}

	accessToken, expiresAt, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.LogSecurityEvent(ctx, SecurityEvent{
		EventType: models.AuditEventLoginSuccess,
		Action:    models.AuditActionAuthenticate,
		Identity:  identity,
		ActorID:   user.ID,
		Success:   true,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	s.timing.WaitFrom(ctx, start, true)

	return &AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        userModelToResponse(user),
	}, nil
}

// authenticate runs the block check, the credential check and the recording
// of the outcome. Callers must hold identity via AttemptService.Acquire.
func (s *AuthService) authenticate(ctx context.Context, identity, password string, client ClientInfo) (*models.User, error) {
	if status := s.attempts.Check(identity); status.Blocked {
		s.logger.Info("login refused: identity throttled",
			slog.String("identity", pkglogger.SanitizedEmail(identity)),
			slog.Int("retry_after_seconds", status.RemainingTimeSeconds))
		s.attempts.RecordBlocked(ctx, identity, client)
		s.audit.LogSecurityEvent(ctx, SecurityEvent{
			EventType:     models.AuditEventLoginBlocked,
			Action:        models.AuditActionAuthenticate,
			Identity:      identity,
			FailureReason: models.FailureReasonThrottled,
			IPAddress:     client.IPAddress,
			UserAgent:     client.UserAgent,
			Metadata:      models.AuditMetadata{"retry_after_seconds": status.RemainingTimeSeconds},
		})
		return nil, &models.ThrottledError{RetryAfterSeconds: status.RemainingTimeSeconds}
	}

	user, err := s.verifier.VerifyCredentials(ctx, identity, password)
	if err != nil {
		if !isCredentialError(err) {
			s.logger.Error("credential check failed", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		return nil, s.loginFailed(ctx, identity, client, err)
	}

	s.attempts.RecordSuccess(ctx, identity, client)
	return user, nil
}

func (s *AuthService) loginFailed(ctx context.Context, identity string, client ClientInfo, cause error) error {
	reason := models.FailureReasonInvalidCredentials
	if !errors.Is(cause, models.ErrUnauthorized) {
		reason = models.FailureReasonAccountBlocked
	}

	outcome := s.attempts.RecordFailure(ctx, identity, client, reason)

	s.logger.Info("login failed",
		slog.String("identity", pkglogger.SanitizedEmail(identity)),
		slog.String("reason", reason),
		slog.Int("remaining_attempts", outcome.RemainingAttempts))
	s.audit.LogSecurityEvent(ctx, SecurityEvent{
		EventType:     models.AuditEventLoginFailed,
		Action:        models.AuditActionAuthenticate,
		Identity:      identity,
		FailureReason: reason,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		Metadata:      models.NewThrottleMetadata(outcome.AttemptCount, outcome.RemainingAttempts, nil),
	})

	return &models.LoginFailedError{
		RemainingAttempts: outcome.RemainingAttempts,
		Blocked:           outcome.Status.Blocked,
		RetryAfterSeconds: outcome.Status.RemainingTimeSeconds,
		Cause:             cause,
	}
}

// AttemptStatus returns the throttle state shown on the login screen
func (s *AuthService) AttemptStatus(ctx context.Context, email string) (models.AttemptStatus, error) {
	identity := throttle.NormalizeIdentity(email)
	if identity == "" {
		return models.AttemptStatus{}, models.ErrBadRequest
	}
	return s.attempts.Status(identity), nil
}

// userModelToResponse converts a user model to response DTO
func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
