package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio-server-go/internal/platform/kv"
	ptesting "portfolio-server-go/internal/platform/testing"
)

// admin123, hex-encoded SHA-256.
const testPasswordDigest = "240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingDigest struct{}

func (failingDigest) Sum(string) (string, error) {
	return "", errors.New("digest backend unavailable")
}

func newTestService(t *testing.T) (*Service, kv.Store, *fakeClock) {
	t.Helper()

	logger := ptesting.SetupTestLogger(t)
	store := kv.NewMemory()
	clock := newFakeClock()

	svc, err := NewService(Options{
		Store:          store,
		Logger:         logger,
		PasswordDigest: testPasswordDigest,
		Clock:          clock.Now,
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Close()
	})
	return svc, store, clock
}

func TestAuthenticateSuccess(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	result := svc.Authenticate(ctx, "admin123")
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if !svc.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated state after login")
	}

	remaining := svc.SessionTimeRemaining(ctx)
	if remaining != 30*time.Minute {
		t.Fatalf("expected full session timeout remaining, got %v", remaining)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	result := svc.Authenticate(ctx, "nope")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Invalid password, 4 attempts remaining" {
		t.Fatalf("unexpected error message: %s", result.Error)
	}
	if svc.IsAuthenticated(ctx) {
		t.Fatal("failed login must not authenticate")
	}
}

func TestEmptyPasswordConsumesAttempt(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	result := svc.Authenticate(ctx, "")
	if result.Success {
		t.Fatal("empty password must fail")
	}
	if !strings.Contains(result.Error, "4 attempts remaining") {
		t.Fatalf("empty password should consume an attempt: %s", result.Error)
	}
}

func TestLockoutThreshold(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t)

	var last Result
	for i := 0; i < 5; i++ {
		last = svc.Authenticate(ctx, "wrong")
	}
	if last.Success {
		t.Fatal("fifth failure must not succeed")
	}
	if !strings.Contains(last.Error, "Too many failed attempts") {
		t.Fatalf("fifth failure should report lockout, got: %s", last.Error)
	}

	// Even the correct password fails while locked, without consuming an attempt.
	locked := svc.Authenticate(ctx, "admin123")
	if locked.Success {
		t.Fatal("locked account must reject correct password")
	}
	if !strings.Contains(locked.Error, "Try again in 15 minutes") {
		t.Fatalf("expected remaining-time message, got: %s", locked.Error)
	}

	info := svc.Lockout(ctx)
	if !info.IsLockedOut {
		t.Fatal("expected lockout to be reported")
	}
	if info.RemainingMinutes != 15 {
		t.Fatalf("expected 15 minutes remaining, got %d", info.RemainingMinutes)
	}

	// Lockout expires; the correct password works again.
	clock.Advance(15*time.Minute + time.Second)

	info = svc.Lockout(ctx)
	if info.IsLockedOut {
		t.Fatal("lockout should have lapsed")
	}

	result := svc.Authenticate(ctx, "admin123")
	if !result.Success {
		t.Fatalf("expected success after lockout expiry, got: %s", result.Error)
	}
}

func TestLockoutRemainingMinutesCeiling(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t)

	for i := 0; i < 5; i++ {
		svc.Authenticate(ctx, "wrong")
	}
	clock.Advance(14*time.Minute + 30*time.Second)

	info := svc.Lockout(ctx)
	if !info.IsLockedOut {
		t.Fatal("expected active lockout")
	}
	if info.RemainingMinutes != 1 {
		t.Fatalf("expected ceiling to 1 minute, got %d", info.RemainingMinutes)
	}
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t)

	if result := svc.Authenticate(ctx, "admin123"); !result.Success {
		t.Fatalf("login failed: %s", result.Error)
	}

	clock.Advance(30*time.Minute + time.Second)

	if svc.IsAuthenticated(ctx) {
		t.Fatal("session should have expired")
	}
	// Expired record is deleted, not retained.
	if ok, _ := store.Has(ctx, sessionKey); ok {
		t.Fatal("expired session record should be deleted")
	}
}

func TestSessionTimeRemainingMonotonic(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t)

	if result := svc.Authenticate(ctx, "admin123"); !result.Success {
		t.Fatalf("login failed: %s", result.Error)
	}

	previous := svc.SessionTimeRemaining(ctx)
	for i := 0; i < 5; i++ {
		clock.Advance(7 * time.Minute)
		remaining := svc.SessionTimeRemaining(ctx)
		if remaining > previous {
			t.Fatalf("remaining time increased: %v -> %v", previous, remaining)
		}
		previous = remaining
	}
	if previous != 0 {
		t.Fatalf("expected zero remaining after expiry, got %v", previous)
	}
}

func TestExtendSession(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t)

	if svc.ExtendSession(ctx) {
		t.Fatal("extend without session must return false")
	}

	if result := svc.Authenticate(ctx, "admin123"); !result.Success {
		t.Fatalf("login failed: %s", result.Error)
	}

	clock.Advance(20 * time.Minute)
	if !svc.ExtendSession(ctx) {
		t.Fatal("extend with active session must return true")
	}
	if remaining := svc.SessionTimeRemaining(ctx); remaining != 30*time.Minute {
		t.Fatalf("extend should reset expiry, got %v remaining", remaining)
	}

	clock.Advance(31 * time.Minute)
	if svc.ExtendSession(ctx) {
		t.Fatal("extend after expiry must return false")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	svc.Logout(ctx)
	if svc.IsAuthenticated(ctx) {
		t.Fatal("logout without session must leave unauthenticated state")
	}

	if result := svc.Authenticate(ctx, "admin123"); !result.Success {
		t.Fatalf("login failed: %s", result.Error)
	}
	svc.Logout(ctx)
	svc.Logout(ctx)
	if svc.IsAuthenticated(ctx) {
		t.Fatal("expected unauthenticated state after logout")
	}
	if svc.SessionTimeRemaining(ctx) != 0 {
		t.Fatal("expected zero remaining time after logout")
	}
}

func TestCorruptSessionRecovered(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	if err := store.Set(ctx, sessionKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt session: %v", err)
	}

	if svc.IsAuthenticated(ctx) {
		t.Fatal("corrupt session must read as unauthenticated")
	}
	if ok, _ := store.Has(ctx, sessionKey); ok {
		t.Fatal("corrupt session record should be deleted")
	}
}

func TestCorruptLockoutRecovered(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	if err := store.Set(ctx, lockoutKey, "not-a-number"); err != nil {
		t.Fatalf("seed corrupt lockout: %v", err)
	}
	if err := store.Set(ctx, attemptsKey, "3"); err != nil {
		t.Fatalf("seed attempts: %v", err)
	}

	info := svc.Lockout(ctx)
	if info.IsLockedOut {
		t.Fatal("corrupt lockout must not lock the account")
	}
	if ok, _ := store.Has(ctx, lockoutKey); ok {
		t.Fatal("corrupt lockout record should be deleted")
	}
	if ok, _ := store.Has(ctx, attemptsKey); ok {
		t.Fatal("attempt counter should be cleared with the lockout")
	}
}

func TestDigestFailureReturnsTechnicalError(t *testing.T) {
	ctx := context.Background()

	logger := ptesting.SetupTestLogger(t)
	store := kv.NewMemory()
	clock := newFakeClock()

	svc, err := NewService(Options{
		Store:          store,
		Logger:         logger,
		Digest:         failingDigest{},
		PasswordDigest: testPasswordDigest,
		Clock:          clock.Now,
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	result := svc.Authenticate(ctx, "admin123")
	if result.Success {
		t.Fatal("digest failure must not authenticate")
	}
	if result.Error != technicalErrorMessage {
		t.Fatalf("unexpected error message: %s", result.Error)
	}
	// A technical failure is not a failed attempt.
	if ok, _ := store.Has(ctx, attemptsKey); ok {
		t.Fatal("digest failure must not consume an attempt")
	}
}

func TestUpdateConfig(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	maxAttempts := 2
	timeout := 5 * time.Minute
	svc.UpdateConfig(ConfigUpdate{
		MaxLoginAttempts: &maxAttempts,
		SessionTimeout:   &timeout,
	})

	cfg := svc.Config()
	if cfg.MaxLoginAttempts != 2 || cfg.SessionTimeout != 5*time.Minute {
		t.Fatalf("config update not applied: %+v", cfg)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Fatalf("untouched field changed: %v", cfg.LockoutDuration)
	}

	svc.Authenticate(ctx, "wrong")
	second := svc.Authenticate(ctx, "wrong")
	if !strings.Contains(second.Error, "Too many failed attempts") {
		t.Fatalf("expected lockout at the updated threshold, got: %s", second.Error)
	}
}

func TestNewServiceValidation(t *testing.T) {
	logger := ptesting.SetupTestLogger(t)

	if _, err := NewService(Options{Logger: logger, PasswordDigest: testPasswordDigest}); err == nil {
		t.Fatal("expected error for missing store")
	}
	if _, err := NewService(Options{Store: kv.NewMemory(), PasswordDigest: testPasswordDigest}); err == nil {
		t.Fatal("expected error for missing logger")
	}
	if _, err := NewService(Options{Store: kv.NewMemory(), Logger: logger}); err == nil {
		t.Fatal("expected error for missing password digest")
	}
}
