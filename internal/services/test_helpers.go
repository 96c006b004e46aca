package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"golang.org/x/crypto/bcrypt"

	"github.com/BradenHooton/vitrine/internal/models"
	"github.com/BradenHooton/vitrine/internal/throttle"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

// MockLoginAttemptRepository records attempts in memory
type MockLoginAttemptRepository struct {
	mu              sync.Mutex
	Attempts        []*models.LoginAttempt
	RecordErr       error
	ListByEmailFunc func(ctx context.Context, email string, limit int) ([]*models.LoginAttempt, error)
}

func (m *MockLoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Attempts = append(m.Attempts, attempt)
	return nil
}

func (m *MockLoginAttemptRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginAttempt, error) {
	if m.ListByEmailFunc != nil {
		return m.ListByEmailFunc(ctx, email, limit)
	}
	return []*models.LoginAttempt{}, nil
}

func (m *MockLoginAttemptRepository) Recorded() []*models.LoginAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.LoginAttempt(nil), m.Attempts...)
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc         func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListFunc           func(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error)
	ListByIdentityFunc func(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error)
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return log, nil
}

func (m *MockAuditLogRepository) List(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, eventTypes, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAuditLogRepository) ListByIdentity(ctx context.Context, identity string, limit int) ([]*models.AuditLog, error) {
	if m.ListByIdentityFunc != nil {
		return m.ListByIdentityFunc(ctx, identity, limit)
	}
	return []*models.AuditLog{}, nil
}

// RecordingAuditLogger captures security events
type RecordingAuditLogger struct {
	mu     sync.Mutex
	Events []SecurityEvent
}

func (r *RecordingAuditLogger) LogSecurityEvent(ctx context.Context, event SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// EventTypes returns the recorded event types in order
func (r *RecordingAuditLogger) EventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.EventType)
	}
	return types
}

// MockLockoutNotifier implements LockoutNotifier for testing
type MockLockoutNotifier struct {
	mu       sync.Mutex
	Notified []string
	Until    []time.Time
	Err      error
}

func (m *MockLockoutNotifier) NotifyLockout(ctx context.Context, identity string, blockedUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, identity)
	m.Until = append(m.Until, blockedUntil)
	return m.Err
}

// MockCredentialVerifier implements CredentialVerifier for testing
type MockCredentialVerifier struct {
	mu                    sync.Mutex
	VerifyCredentialsFunc func(ctx context.Context, email, password string) (*models.User, error)
	Calls                 int
}

func (m *MockCredentialVerifier) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.VerifyCredentialsFunc != nil {
		return m.VerifyCredentialsFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

// MockSESClient implements SESAPI for testing
type MockSESClient struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	Sent          []*ses.SendEmailInput
}

func (m *MockSESClient) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.Sent = append(m.Sent, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	messageID := "msg-123"
	return &ses.SendEmailOutput{MessageId: &messageID}, nil
}

// discardLogger returns a logger that drops all output
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestUser creates an active user whose password is password
func NewTestUser(id, email, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// testClock is a manually advanced clock for the tracker
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestTracker returns a tracker with default settings on a manual clock
func newTestTracker() (*throttle.Tracker, *testClock) {
	clock := newTestClock()
	return throttle.NewTracker(throttle.DefaultConfig(), throttle.WithClock(clock.Now)), clock
}
