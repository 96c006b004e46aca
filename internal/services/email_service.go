package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/BradenHooton/vitrine/internal/models"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

// LockoutNotifier tells an account owner that their login has been throttled
type LockoutNotifier interface {
	NotifyLockout(ctx context.Context, identity string, blockedUntil time.Time) error
}

// SESAPI is the subset of the SES client used to send mail
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESLockoutNotifier sends lockout notices using AWS SES. Identities that do
// not belong to a registered user are skipped, so the login form cannot be
// used to send mail to arbitrary addresses.
type SESLockoutNotifier struct {
	client       SESAPI
	users        UserRepository
	fromAddress  string
	dashboardURL string
	logger       *slog.Logger
}

// NewSESLockoutNotifier creates a notifier using the default AWS credential chain
func NewSESLockoutNotifier(ctx context.Context, region, fromAddress, dashboardURL string, users UserRepository, logger *slog.Logger) (*SESLockoutNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESLockoutNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, dashboardURL, users, logger), nil
}

// NewSESLockoutNotifierWithClient creates a notifier around an existing client
func NewSESLockoutNotifierWithClient(client SESAPI, fromAddress, dashboardURL string, users UserRepository, logger *slog.Logger) *SESLockoutNotifier {
	return &SESLockoutNotifier{
		client:       client,
		users:        users,
		fromAddress:  fromAddress,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
}

// NotifyLockout emails the account owner
func (n *SESLockoutNotifier) NotifyLockout(ctx context.Context, identity string, blockedUntil time.Time) error {
	user, err := n.users.GetByEmail(ctx, identity)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up lockout recipient: %w", err)
	}

	until := blockedUntil.UTC().Format("15:04:05 MST")

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Sign-in temporarily locked</h2>
    <p>We blocked sign-in to your dashboard account after several failed password attempts.</p>
    <p>You can try again after <strong>%s</strong>.</p>
    <p>If this was not you, someone may be guessing your password. Sign in at
    <a href="%s">%s</a> once the lock expires and consider changing it.</p>
    <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply.</p>
</body>
</html>
`, until, n.dashboardURL, n.dashboardURL)

	textBody := fmt.Sprintf(`Sign-in temporarily locked

We blocked sign-in to your dashboard account after several failed password attempts.
You can try again after %s.

If this was not you, someone may be guessing your password. Sign in at
%s once the lock expires and consider changing it.

This is an automated message. Please do not reply.
`, until, n.dashboardURL)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{user.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Sign-in to your account was temporarily locked"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		n.logger.Error("failed to send lockout email via SES",
			slog.String("email", pkglogger.SanitizedEmail(user.Email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("lockout email sent",
		slog.String("email", pkglogger.SanitizedEmail(user.Email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// LogLockoutNotifier only logs lockouts. Used when email is disabled.
type LogLockoutNotifier struct {
	logger *slog.Logger
}

// NewLogLockoutNotifier creates a new LogLockoutNotifier
func NewLogLockoutNotifier(logger *slog.Logger) *LogLockoutNotifier {
	return &LogLockoutNotifier{logger: logger}
}

// NotifyLockout logs the lockout
func (n *LogLockoutNotifier) NotifyLockout(ctx context.Context, identity string, blockedUntil time.Time) error {
	n.logger.InfoContext(ctx, "lockout notice (email disabled)",
		slog.String("identity", pkglogger.SanitizedEmail(identity)),
		slog.Time("blocked_until", blockedUntil))
	return nil
}
