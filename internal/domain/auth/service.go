package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"portfolio-server-go/internal/domain/eventbus"
	"portfolio-server-go/internal/platform/kv"
	"portfolio-server-go/internal/platform/logging"
)

const (
	defaultSessionTimeout   = 30 * time.Minute
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 15 * time.Minute

	defaultCheckInterval = 30 * time.Second
	minCheckInterval     = time.Second
)

const technicalErrorMessage = "Authentication failed due to a technical error"

// Config tunes the login state machine. Mutable at runtime via UpdateConfig.
type Config struct {
	SessionTimeout   time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

// ConfigUpdate carries a partial configuration change; nil fields keep their
// current value.
type ConfigUpdate struct {
	SessionTimeout   *time.Duration
	MaxLoginAttempts *int
	LockoutDuration  *time.Duration
}

// Options encapsulates the dependencies required to construct a Service.
type Options struct {
	Store          kv.Store
	Logger         *logging.Logger
	Bus            *eventbus.Bus
	Digest         Digest
	PasswordDigest string
	Config         Config
	Clock          func() time.Time
	CheckInterval  time.Duration
}

// Service gates the edit-mode capability behind a single shared password,
// with session expiry and brute-force lockout. The application wires up
// exactly one instance at startup.
type Service struct {
	store          kv.Store
	logger         *logging.Logger
	bus            *eventbus.Bus
	digest         Digest
	passwordDigest string
	clock          func() time.Time

	mu  sync.Mutex
	cfg Config

	checkInterval time.Duration
	watchStop     chan struct{}
	watchOnce     sync.Once
}

// NewService wires a Service using the supplied options.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("auth service requires a store")
	}
	if opts.Logger == nil {
		return nil, errors.New("auth service requires a logger")
	}
	if opts.PasswordDigest == "" {
		return nil, errors.New("auth service requires a password digest")
	}
	if opts.Digest == nil {
		opts.Digest = SHA256Digest{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	cfg := opts.Config
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = defaultSessionTimeout
	}
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = defaultMaxLoginAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaultLockoutDuration
	}

	checkInterval := opts.CheckInterval
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	} else if checkInterval < minCheckInterval {
		opts.Logger.WarnTag("auth", "session check interval too small, adjusting to %s", minCheckInterval)
		checkInterval = minCheckInterval
	}

	svc := &Service{
		store:          opts.Store,
		logger:         opts.Logger,
		bus:            opts.Bus,
		digest:         opts.Digest,
		passwordDigest: strings.ToLower(opts.PasswordDigest),
		clock:          opts.Clock,
		cfg:            cfg,
		checkInterval:  checkInterval,
		watchStop:      make(chan struct{}),
	}

	go svc.watchSession()
	return svc, nil
}

// watchSession periodically re-validates the session so an expired login is
// torn down even while the caller is idle. The read-time check in
// IsAuthenticated stays authoritative; a missed tick cannot leave the state
// machine wrong.
func (s *Service) watchSession() {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.IsAuthenticated(context.Background())
		case <-s.watchStop:
			return
		}
	}
}

// Authenticate verifies the password and transitions the state machine.
// It never lets an internal failure escape: every outcome is a Result.
func (s *Service) Authenticate(ctx context.Context, password string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()

	if deadline, ok := s.readLockout(ctx); ok {
		if now.UnixMilli() < deadline {
			remaining := ceilMinutes(time.Duration(deadline-now.UnixMilli()) * time.Millisecond)
			return Result{
				Success: false,
				Error:   fmt.Sprintf("Account locked. Try again in %d minutes", remaining),
			}
		}
		// Lockout has lapsed; clear it and the attempt counter before the
		// attempt below is evaluated.
		s.clearLockout(ctx)
	}

	sum, err := s.digest.Sum(password)
	if err != nil {
		s.logger.ErrorTag("auth", "password digest failed: %v", err)
		return Result{Success: false, Error: technicalErrorMessage}
	}

	if strings.ToLower(sum) == s.passwordDigest {
		s.clearLockout(ctx)
		record := sessionRecord{
			IsAuthenticated: true,
			LoginTime:       now.UnixMilli(),
			ExpiresAt:       now.Add(s.cfg.SessionTimeout).UnixMilli(),
		}
		s.writeSession(ctx, record)
		s.bus.Publish(eventbus.TopicAuthLogin)
		s.logger.InfoTag("auth", "authentication succeeded")
		return Result{Success: true}
	}

	attempts := s.readAttempts(ctx) + 1
	s.writeKey(ctx, attemptsKey, strconv.Itoa(attempts))

	if attempts >= s.cfg.MaxLoginAttempts {
		deadline := now.Add(s.cfg.LockoutDuration)
		s.writeKey(ctx, lockoutKey, strconv.FormatInt(deadline.UnixMilli(), 10))
		s.bus.Publish(eventbus.TopicAuthLockout)
		s.logger.WarnTag("auth", "too many failed attempts, locked for %s", s.cfg.LockoutDuration)
		return Result{
			Success: false,
			Error: fmt.Sprintf("Too many failed attempts. Account locked for %d minutes",
				ceilMinutes(s.cfg.LockoutDuration)),
		}
	}

	return Result{
		Success: false,
		Error:   fmt.Sprintf("Invalid password, %d attempts remaining", s.cfg.MaxLoginAttempts-attempts),
	}
}

// IsAuthenticated reports whether a live session exists. An expired session
// is deleted as a side effect.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	record, ok := s.readSession(ctx)
	if !ok {
		return false
	}
	if record.expired(s.clock()) {
		s.deleteKey(ctx, sessionKey)
		s.bus.Publish(eventbus.TopicAuthSessionExpired)
		s.logger.InfoTag("auth", "session expired")
		return false
	}
	return true
}

// SessionTimeRemaining returns how long the current session stays valid.
// Zero when no session exists.
func (s *Service) SessionTimeRemaining(ctx context.Context) time.Duration {
	record, ok := s.readSession(ctx)
	if !ok {
		return 0
	}
	remaining := time.Duration(record.ExpiresAt-s.clock().UnixMilli()) * time.Millisecond
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ExtendSession resets the expiry of an active session to a full timeout.
// Returns false when no active session exists.
func (s *Service) ExtendSession(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.readSession(ctx)
	if !ok || record.expired(s.clock()) {
		return false
	}
	record.ExpiresAt = s.clock().Add(s.cfg.SessionTimeout).UnixMilli()
	s.writeSession(ctx, record)
	return true
}

// Logout deletes the session unconditionally. Idempotent.
func (s *Service) Logout(ctx context.Context) {
	_, had := s.readSession(ctx)
	s.deleteKey(ctx, sessionKey)
	if had {
		s.bus.Publish(eventbus.TopicAuthLogout)
		s.logger.InfoTag("auth", "logged out")
	}
}

// Lockout reports the current lockout state, lazily clearing an expired
// lockout record and its attempt counter.
func (s *Service) Lockout(ctx context.Context) LockoutInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.readLockout(ctx)
	if !ok {
		return LockoutInfo{IsLockedOut: false}
	}
	remaining := time.Duration(deadline-s.clock().UnixMilli()) * time.Millisecond
	if remaining <= 0 {
		s.clearLockout(ctx)
		return LockoutInfo{IsLockedOut: false}
	}
	return LockoutInfo{
		IsLockedOut:      true,
		RemainingMinutes: ceilMinutes(remaining),
	}
}

// UpdateConfig applies a partial configuration change. Non-positive values
// are ignored.
func (s *Service) UpdateConfig(update ConfigUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.SessionTimeout != nil && *update.SessionTimeout > 0 {
		s.cfg.SessionTimeout = *update.SessionTimeout
	}
	if update.MaxLoginAttempts != nil && *update.MaxLoginAttempts > 0 {
		s.cfg.MaxLoginAttempts = *update.MaxLoginAttempts
	}
	if update.LockoutDuration != nil && *update.LockoutDuration > 0 {
		s.cfg.LockoutDuration = *update.LockoutDuration
	}
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Close stops the background session watcher.
func (s *Service) Close() error {
	s.watchOnce.Do(func() {
		close(s.watchStop)
	})
	return nil
}

// --- store access helpers -------------------------------------------------
//
// Store failures never escape a public method: reads degrade to "absent",
// writes are logged and the state machine carries on with what it has.

func (s *Service) readSession(ctx context.Context) (sessionRecord, bool) {
	raw, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WarnTag("auth", "failed to read session: %v", err)
		}
		return sessionRecord{}, false
	}
	var record sessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil || !record.IsAuthenticated {
		s.logger.WarnTag("auth", "discarding corrupt session record")
		s.deleteKey(ctx, sessionKey)
		return sessionRecord{}, false
	}
	return record, true
}

func (s *Service) writeSession(ctx context.Context, record sessionRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		s.logger.ErrorTag("auth", "failed to encode session: %v", err)
		return
	}
	s.writeKey(ctx, sessionKey, string(data))
}

func (s *Service) readLockout(ctx context.Context) (int64, bool) {
	raw, err := s.store.Get(ctx, lockoutKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WarnTag("auth", "failed to read lockout: %v", err)
		}
		return 0, false
	}
	deadline, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.WarnTag("auth", "discarding corrupt lockout record")
		s.clearLockout(ctx)
		return 0, false
	}
	return deadline, true
}

func (s *Service) readAttempts(ctx context.Context) int {
	raw, err := s.store.Get(ctx, attemptsKey)
	if err != nil {
		return 0
	}
	attempts, err := strconv.Atoi(raw)
	if err != nil || attempts < 0 {
		return 0
	}
	return attempts
}

func (s *Service) clearLockout(ctx context.Context) {
	s.deleteKey(ctx, lockoutKey)
	s.deleteKey(ctx, attemptsKey)
}

func (s *Service) writeKey(ctx context.Context, key, value string) {
	if err := s.store.Set(ctx, key, value); err != nil {
		s.logger.ErrorTag("auth", "failed to persist %s: %v", key, err)
	}
}

func (s *Service) deleteKey(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.ErrorTag("auth", "failed to delete %s: %v", key, err)
	}
}
