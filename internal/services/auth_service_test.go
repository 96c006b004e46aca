package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/models"
)

type authServiceFixture struct {
	service  *AuthService
	verifier *MockCredentialVerifier
	history  *MockLoginAttemptRepository
	audit    *RecordingAuditLogger
	notifier *MockLockoutNotifier
	clock    *testClock
	tm       *auth.TokenManager
}

func newAuthServiceFixture(t *testing.T, user *models.User) *authServiceFixture {
	t.Helper()

	tracker, clock := newTestTracker()
	f := &authServiceFixture{
		history:  &MockLoginAttemptRepository{},
		audit:    &RecordingAuditLogger{},
		notifier: &MockLockoutNotifier{},
		clock:    clock,
		tm:       auth.NewTokenManager("test-secret-32-characters-long!!", 15*time.Minute),
	}
	f.verifier = &MockCredentialVerifier{
		VerifyCredentialsFunc: func(ctx context.Context, email, password string) (*models.User, error) {
			if user != nil && email == user.Email && password == "CorrectP@ss1" {
				return user, nil
			}
			return nil, models.ErrUnauthorized
		},
	}

	attempts := NewAttemptService(tracker, f.history, f.audit, f.notifier, time.Hour, discardLogger())
	f.service = NewAuthService(f.verifier, attempts, f.tm, nil, f.audit, discardLogger())
	return f
}

var testClient = ClientInfo{IPAddress: "203.0.113.7", UserAgent: "test-agent"}

func TestAuthService_Login_Success(t *testing.T) {
	user := NewTestUser("11111111-1111-1111-1111-111111111111", "admin@example.com", "CorrectP@ss1")
	f := newAuthServiceFixture(t, user)

	resp, err := f.service.Login(context.Background(), "  Admin@Example.com ", "CorrectP@ss1", testClient)

	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := f.tm.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	assert.Equal(t, []string{models.AuditEventLoginSuccess}, f.audit.EventTypes())
	recorded := f.history.Recorded()
	require.Len(t, recorded, 1)
	assert.True(t, recorded[0].Success)
	assert.Equal(t, "admin@example.com", recorded[0].Email)
}

func TestAuthService_Login_EmptyEmail(t *testing.T) {
	f := newAuthServiceFixture(t, nil)

	_, err := f.service.Login(context.Background(), "   ", "whatever", testClient)

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Equal(t, 0, f.verifier.Calls)
}

func TestAuthService_Login_FailureCountsDown(t *testing.T) {
	f := newAuthServiceFixture(t, nil)

	for want := 4; want >= 1; want-- {
		_, err := f.service.Login(context.Background(), "victim@example.com", "wrong", testClient)

		var failed *models.LoginFailedError
		require.ErrorAs(t, err, &failed)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.Equal(t, want, failed.RemainingAttempts)
		assert.False(t, failed.Blocked)
	}
}

func TestAuthService_Login_FifthFailureBlocks(t *testing.T) {
	f := newAuthServiceFixture(t, nil)

	var err error
	for i := 0; i < 5; i++ {
		_, err = f.service.Login(context.Background(), "victim@example.com", "wrong", testClient)
	}

	var failed *models.LoginFailedError
	require.ErrorAs(t, err, &failed)
	assert.True(t, failed.Blocked)
	assert.Equal(t, 0, failed.RemainingAttempts)
	assert.Equal(t, 60, failed.RetryAfterSeconds)

	assert.Equal(t, []string{"victim@example.com"}, f.notifier.Notified)
	assert.Contains(t, f.audit.EventTypes(), models.AuditEventThrottleEngaged)
}

func TestAuthService_Login_BlockedSkipsCredentialCheck(t *testing.T) {
	user := NewTestUser("11111111-1111-1111-1111-111111111111", "admin@example.com", "CorrectP@ss1")
	f := newAuthServiceFixture(t, user)

	for i := 0; i < 5; i++ {
		_, _ = f.service.Login(context.Background(), "admin@example.com", "wrong", testClient)
	}
	callsBefore := f.verifier.Calls

	// even the right password is refused while blocked
	_, err := f.service.Login(context.Background(), "ADMIN@example.com", "CorrectP@ss1", testClient)

	var throttled *models.ThrottledError
	require.ErrorAs(t, err, &throttled)
	assert.ErrorIs(t, err, models.ErrTooManyAttempts)
	assert.Equal(t, 60, throttled.RetryAfterSeconds)
	assert.Equal(t, callsBefore, f.verifier.Calls)

	types := f.audit.EventTypes()
	assert.Equal(t, models.AuditEventLoginBlocked, types[len(types)-1])

	recorded := f.history.Recorded()
	require.NotNil(t, recorded[len(recorded)-1].FailureReason)
	assert.Equal(t, models.FailureReasonThrottled, *recorded[len(recorded)-1].FailureReason)
}

func TestAuthService_Login_SucceedsAfterBlockExpires(t *testing.T) {
	user := NewTestUser("11111111-1111-1111-1111-111111111111", "admin@example.com", "CorrectP@ss1")
	f := newAuthServiceFixture(t, user)

	for i := 0; i < 5; i++ {
		_, _ = f.service.Login(context.Background(), "admin@example.com", "wrong", testClient)
	}

	f.clock.Advance(61 * time.Second)

	resp, err := f.service.Login(context.Background(), "admin@example.com", "CorrectP@ss1", testClient)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	status, err := f.service.AttemptStatus(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStatus{Identity: "admin@example.com", RemainingAttempts: 5}, status)
}

func TestAuthService_Login_SuccessResetsCounter(t *testing.T) {
	user := NewTestUser("11111111-1111-1111-1111-111111111111", "admin@example.com", "CorrectP@ss1")
	f := newAuthServiceFixture(t, user)

	for i := 0; i < 4; i++ {
		_, _ = f.service.Login(context.Background(), "admin@example.com", "wrong", testClient)
	}
	_, err := f.service.Login(context.Background(), "admin@example.com", "CorrectP@ss1", testClient)
	require.NoError(t, err)

	_, err = f.service.Login(context.Background(), "admin@example.com", "wrong", testClient)
	var failed *models.LoginFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 4, failed.RemainingAttempts)
}

func TestAuthService_Login_AccountStateCountsAsFailure(t *testing.T) {
	f := newAuthServiceFixture(t, nil)
	f.verifier.VerifyCredentialsFunc = func(ctx context.Context, email, password string) (*models.User, error) {
		return nil, models.ErrAccountSuspended
	}

	_, err := f.service.Login(context.Background(), "suspended@example.com", "CorrectP@ss1", testClient)

	var failed *models.LoginFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, models.ErrAccountSuspended)
	assert.Equal(t, 4, failed.RemainingAttempts)

	recorded := f.history.Recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, models.FailureReasonAccountBlocked, *recorded[0].FailureReason)
}

func TestAuthService_Login_InfrastructureErrorDoesNotCount(t *testing.T) {
	f := newAuthServiceFixture(t, nil)
	f.verifier.VerifyCredentialsFunc = func(ctx context.Context, email, password string) (*models.User, error) {
		return nil, models.ErrInternalServer
	}

	for i := 0; i < 10; i++ {
		_, err := f.service.Login(context.Background(), "admin@example.com", "whatever", testClient)
		assert.ErrorIs(t, err, models.ErrInternalServer)
	}

	status, err := f.service.AttemptStatus(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.False(t, status.Blocked)
	assert.Equal(t, 5, status.RemainingAttempts)
	assert.Empty(t, f.history.Recorded())
}

func TestAuthService_Login_HistoryFailureIsIgnored(t *testing.T) {
	f := newAuthServiceFixture(t, nil)
	f.history.RecordErr = errors.New("connection refused")

	_, err := f.service.Login(context.Background(), "victim@example.com", "wrong", testClient)

	var failed *models.LoginFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 4, failed.RemainingAttempts)
}

func TestAuthService_AttemptStatus(t *testing.T) {
	f := newAuthServiceFixture(t, nil)

	_, err := f.service.AttemptStatus(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	for i := 0; i < 5; i++ {
		_, _ = f.service.Login(context.Background(), "victim@example.com", "wrong", testClient)
	}
	f.clock.Advance(10 * time.Second)

	status, err := f.service.AttemptStatus(context.Background(), "Victim@Example.com")
	require.NoError(t, err)
	assert.True(t, status.Blocked)
	assert.Equal(t, 50, status.RemainingTimeSeconds)
	assert.Equal(t, 5, status.FailedAttempts)
}

func TestAuthService_Login_ConcurrentGuessesStopAtMaxAttempts(t *testing.T) {
	f := newAuthServiceFixture(t, nil)
	f.verifier.VerifyCredentialsFunc = func(ctx context.Context, email, password string) (*models.User, error) {
		time.Sleep(5 * time.Millisecond)
		return nil, models.ErrUnauthorized
	}

	const workers = 40
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := f.service.Login(context.Background(), "victim@example.com", "guess", testClient)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	failed, throttled := 0, 0
	for err := range errs {
		var lf *models.LoginFailedError
		var te *models.ThrottledError
		switch {
		case errors.As(err, &lf):
			failed++
		case errors.As(err, &te):
			throttled++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 5, f.verifier.Calls)
	assert.Equal(t, 5, failed)
	assert.Equal(t, workers-5, throttled)
	assert.Equal(t, []string{"victim@example.com"}, f.notifier.Notified)
}

func TestAuthService_Login_CanceledWhileWaitingDoesNotCount(t *testing.T) {
	f := newAuthServiceFixture(t, nil)
	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.verifier.VerifyCredentialsFunc = func(ctx context.Context, email, password string) (*models.User, error) {
		close(entered)
		<-proceed
		return nil, models.ErrUnauthorized
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.service.Login(context.Background(), "victim@example.com", "guess", testClient)
		done <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.service.Login(ctx, "victim@example.com", "guess", testClient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(proceed)
	var failed *models.LoginFailedError
	require.ErrorAs(t, <-done, &failed)
	assert.Equal(t, 4, failed.RemainingAttempts)
	assert.Equal(t, 1, f.verifier.Calls)
}
