// ABOUTME: Session manager state machine: bootstrap, login throttling, lockout, logout
// ABOUTME: Persists credentials and throttle state through a store.Store

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/markalston/cleanops-admin/internal/store"
)

// Storage keys
const (
	KeyToken       = "authToken"
	KeyUser        = "userData"
	KeyAttempts    = "loginAttempts"
	KeyLockedUntil = "lockedUntil"
)

const (
	defaultMaxAttempts     = 5
	defaultLockoutDuration = 15 * time.Minute
	defaultPollInterval    = time.Second

	transportMessage = "Login failed. Unable to reach the server, please try again."
)

// Config holds the throttle policy
type Config struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultConfig returns 5 attempts and a 15 minute lockout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     defaultMaxAttempts,
		LockoutDuration: defaultLockoutDuration,
	}
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithPollInterval sets how often WatchLockout re-checks the lock
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.poll = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager owns the admin session and the login throttle. It is safe for
// concurrent use; backend calls are made without holding the lock.
type Manager struct {
	backend Backend
	store   store.Store
	cfg     Config
	now     func() time.Time
	poll    time.Duration
	logger  *slog.Logger

	bootOnce sync.Once

	mu          sync.RWMutex
	booted      bool
	token       string
	user        User
	attempts    int
	lockedUntil time.Time
	inflight    int
	authActions int
	nextSubID   int
	subscribers map[int]func()
}

// New creates a manager. Call Bootstrap before use.
func New(backend Backend, st store.Store, cfg Config, opts ...Option) *Manager {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaultLockoutDuration
	}
	m := &Manager{
		backend:     backend,
		store:       st,
		cfg:         cfg,
		now:         time.Now,
		poll:        defaultPollInterval,
		logger:      slog.Default(),
		subscribers: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the throttle policy in effect
func (m *Manager) Config() Config {
	return m.cfg
}

// Bootstrap restores the persisted session and throttle. It runs once;
// later calls return immediately. It never fails: unreadable or malformed
// data is discarded and the manager starts anonymous.
func (m *Manager) Bootstrap(_ context.Context) {
	m.bootOnce.Do(m.bootstrap)
}

func (m *Manager) bootstrap() {
	token, hasToken := m.read(KeyToken)
	rawUser, hasUser := m.read(KeyUser)
	rawAttempts, hasAttempts := m.read(KeyAttempts)
	rawLocked, hasLocked := m.read(KeyLockedUntil)

	cleanup := store.Batch{Set: map[string][]byte{}}

	var user User
	switch {
	case !hasToken && !hasUser:
	case hasToken && hasUser:
		if err := json.Unmarshal(rawUser, &user); err != nil || user == nil || strings.TrimSpace(string(token)) == "" {
			m.logger.Warn("discarding corrupt persisted credential", "error", err)
			user = nil
			cleanup.Delete = append(cleanup.Delete, KeyToken, KeyUser)
		}
	default:
		m.logger.Warn("discarding incomplete persisted credential", "has_token", hasToken, "has_user", hasUser)
		cleanup.Delete = append(cleanup.Delete, KeyToken, KeyUser)
	}

	attempts := 0
	if hasAttempts {
		n, err := strconv.Atoi(strings.TrimSpace(string(rawAttempts)))
		if err != nil || n < 0 {
			m.logger.Warn("resetting corrupt login attempt counter", "value", string(rawAttempts))
			cleanup.Set[KeyAttempts] = []byte("0")
		} else {
			attempts = n
		}
	}

	var lockedUntil time.Time
	if hasLocked {
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(rawLocked)))
		if err != nil {
			m.logger.Warn("discarding corrupt lockout timestamp", "error", err)
			cleanup.Delete = append(cleanup.Delete, KeyLockedUntil)
		} else {
			lockedUntil = t
		}
	}

	if !lockedUntil.IsZero() && !m.now().Before(lockedUntil) {
		m.logger.Info("persisted lockout has expired")
		attempts = 0
		lockedUntil = time.Time{}
		cleanup.Set[KeyAttempts] = []byte("0")
		cleanup.Delete = append(cleanup.Delete, KeyLockedUntil)
	}

	if len(cleanup.Set) > 0 || len(cleanup.Delete) > 0 {
		if err := m.store.Write(cleanup); err != nil {
			m.logger.Error("failed to clean up persisted session state", "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if user != nil {
		m.token = string(token)
		m.user = user
	}
	m.attempts = attempts
	m.lockedUntil = lockedUntil
	m.booted = true

	m.logger.Debug("session bootstrapped",
		"authenticated", user != nil,
		"attempts", attempts,
		"locked", !lockedUntil.IsZero(),
	)
}

// read returns the value for key and whether it is present. Storage
// errors are logged and treated as absence.
func (m *Manager) read(key string) ([]byte, bool) {
	v, err := m.store.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Error("failed to read persisted session state", "key", key, "error", err)
		}
		return nil, false
	}
	return v, true
}

// Login authenticates against the backend, applying the attempt throttle.
// While locked out it fails without contacting the backend.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	m.mu.Lock()
	if remaining, locked := m.remainingLocked(m.now()); locked {
		m.mu.Unlock()
		m.logger.Info("login refused while locked out", "remaining", remaining.Round(time.Second))
		return lockedResult(remaining)
	}
	m.inflight++
	m.mu.Unlock()
	defer m.finish()

	creds, err := m.backend.Authenticate(ctx, email, password)
	if err != nil {
		return m.recordFailure(err)
	}

	m.establish(creds)
	m.logger.Info("admin signed in")
	return succeeded(creds.User, "Login successful")
}

// establish persists credentials, resets the throttle, and sets the session
func (m *Manager) establish(creds Credentials) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persistSession(creds); err != nil {
		m.logger.Error("failed to persist session; it will not survive a restart", "error", err)
	}
	m.token = creds.Token
	m.user = creds.User
	m.attempts = 0
	m.lockedUntil = time.Time{}
}

func (m *Manager) persistSession(creds Credentials) error {
	raw, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return m.store.Write(store.Batch{
		Set: map[string][]byte{
			KeyToken:    []byte(creds.Token),
			KeyUser:     raw,
			KeyAttempts: []byte("0"),
		},
		Delete: []string{KeyLockedUntil},
	})
}

// recordFailure classifies a failed login and updates the throttle when
// the backend rejected the credentials.
func (m *Manager) recordFailure(err error) Result {
	if !errors.Is(err, ErrCredentialsInvalid) {
		m.logger.Warn("login failed without a credential verdict", "error", err)
		r := failed(KindTransport, ErrTransport, userMessage(err, transportMessage))
		r.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	// Another attempt may have engaged the lock while this one was in flight.
	if remaining, locked := m.remainingLocked(now); locked {
		return lockedResult(remaining)
	}

	m.attempts++
	update := store.Batch{Set: map[string][]byte{KeyAttempts: []byte(strconv.Itoa(m.attempts))}}

	if m.attempts >= m.cfg.MaxAttempts {
		m.lockedUntil = now.Add(m.cfg.LockoutDuration)
		update.Set[KeyLockedUntil] = []byte(m.lockedUntil.Format(time.RFC3339Nano))
		m.persistThrottle(update)
		m.logger.Warn("login locked out", "attempts", m.attempts, "locked_until", m.lockedUntil)

		msg := fmt.Sprintf("Too many failed attempts. Account locked for %s.", minutes(m.cfg.LockoutDuration))
		r := failed(KindLockedOut, ErrLockedOut, msg)
		r.RetryAfter = m.cfg.LockoutDuration
		return r
	}
	m.persistThrottle(update)

	remaining := m.cfg.MaxAttempts - m.attempts
	m.logger.Info("login rejected", "attempts", m.attempts, "remaining", remaining)

	reason := strings.TrimRight(strings.TrimSpace(rejectionMessage(err)), ".")
	if reason == "" {
		reason = "Invalid credentials"
	}
	msg := fmt.Sprintf("%s. %d %s remaining.", reason, remaining, plural(remaining, "attempt"))
	r := failed(KindCredentialsInvalid, ErrCredentialsInvalid, msg)
	r.AttemptsRemaining = remaining
	return r
}

func rejectionMessage(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return ""
}

func (m *Manager) persistThrottle(b store.Batch) {
	if err := m.store.Write(b); err != nil {
		m.logger.Error("failed to persist login throttle", "error", err)
	}
}

func lockedResult(remaining time.Duration) Result {
	msg := fmt.Sprintf("Account locked. Try again in %s.", minutes(remaining))
	r := failed(KindLockedOut, ErrLockedOut, msg)
	r.RetryAfter = remaining
	return r
}

// minutes renders d as whole minutes, rounded up
func minutes(d time.Duration) string {
	n := int(math.Ceil(d.Minutes()))
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%d %s", n, plural(n, "minute"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Logout invalidates the token server-side on a best-effort basis, then
// clears the local session and throttle and notifies sign-out subscribers.
// It always succeeds locally.
func (m *Manager) Logout(ctx context.Context) Result {
	m.mu.Lock()
	token := m.token
	m.inflight++
	m.mu.Unlock()
	defer m.finish()

	if token != "" {
		if err := m.backend.Invalidate(ctx, token); err != nil {
			m.logger.Warn("server-side logout failed; clearing local session anyway", "error", err)
		}
	}

	m.signOut()
	m.logger.Info("admin signed out")
	return succeeded(nil, "Logout successful")
}

// signOut clears memory and storage, then notifies subscribers
func (m *Manager) signOut() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.attempts = 0
	m.lockedUntil = time.Time{}
	err := m.store.Write(store.Batch{
		Set:    map[string][]byte{KeyAttempts: []byte("0")},
		Delete: []string{KeyToken, KeyUser, KeyLockedUntil},
	})
	subs := make([]func(), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to clear persisted session", "error", err)
	}
	for _, fn := range subs {
		fn()
	}
}

func (m *Manager) finish() {
	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()
}

// OnSignOut registers fn to run after every logout. The returned function
// removes the subscription.
func (m *Manager) OnSignOut(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// remainingLocked reports the time left on the lock, resetting the throttle
// if the lock has expired. Callers must hold mu for writing.
func (m *Manager) remainingLocked(now time.Time) (time.Duration, bool) {
	if m.lockedUntil.IsZero() {
		return 0, false
	}
	if now.Before(m.lockedUntil) {
		return m.lockedUntil.Sub(now), true
	}
	m.attempts = 0
	m.lockedUntil = time.Time{}
	m.persistThrottle(store.Batch{
		Set:    map[string][]byte{KeyAttempts: []byte("0")},
		Delete: []string{KeyLockedUntil},
	})
	m.logger.Info("login lockout expired")
	return 0, false
}

// IsLockedOut reports whether login is currently refused
func (m *Manager) IsLockedOut() bool {
	_, locked := m.RemainingLock()
	return locked
}

// RemainingLock returns the time left on the lockout
func (m *Manager) RemainingLock() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked(m.now())
}

// WatchLockout calls onTick with the remaining lock time once per poll
// interval until the lock expires or ctx is cancelled. The final call on
// expiry reports zero. It returns immediately when not locked.
func (m *Manager) WatchLockout(ctx context.Context, onTick func(time.Duration)) {
	remaining, locked := m.RemainingLock()
	if !locked {
		return
	}
	if onTick != nil {
		onTick(remaining)
	}

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining, locked = m.RemainingLock()
			if onTick != nil {
				onTick(remaining)
			}
			if !locked {
				return
			}
		}
	}
}

// User returns the signed-in profile or nil
func (m *Manager) User() User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Token returns the bearer token or "". It satisfies client.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// IsAuthenticated reports whether both a token and a profile are held
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authenticatedLocked()
}

func (m *Manager) authenticatedLocked() bool {
	return m.token != "" && m.user != nil
}

// Attempts returns the current failed attempt count
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remainingLocked(m.now())
	return m.attempts
}

// LockedUntil returns the lock expiry, or the zero time when not locked
func (m *Manager) LockedUntil() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remainingLocked(m.now())
	return m.lockedUntil
}

// Loading is true until bootstrap completes and while login or logout runs
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.booted || m.inflight > 0
}

// LoadingAuthActions is true while a password action runs
func (m *Manager) LoadingAuthActions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authActions > 0
}

// State returns the lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked(m.now())
}

func (m *Manager) stateLocked(now time.Time) State {
	if !m.booted {
		return StateBootstrapping
	}
	if m.authenticatedLocked() {
		return StateAuthenticated
	}
	if _, locked := m.remainingLocked(now); locked {
		return StateLockedOut
	}
	return StateAnonymous
}

// Snapshot returns a consistent copy of the observable state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	remaining, _ := m.remainingLocked(now)
	return Snapshot{
		State:              m.stateLocked(now),
		User:               m.user,
		IsAuthenticated:    m.authenticatedLocked(),
		Attempts:           m.attempts,
		LockedUntil:        m.lockedUntil,
		RemainingLock:      remaining,
		Loading:            !m.booted || m.inflight > 0,
		LoadingAuthActions: m.authActions > 0,
	}
}
