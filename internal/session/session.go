// ABOUTME: Session types shared by the session manager and its consumers
// ABOUTME: Defines states, the admin profile record, results, and failure kinds

package session

import (
	"errors"
	"fmt"
	"time"
)

// State is the session manager's lifecycle state
type State int

const (
	StateBootstrapping State = iota
	StateAnonymous
	StateAuthenticated
	StateLockedOut
)

// String returns the lowercase state name
func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateLockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// User is the admin profile returned by the backend. The shape belongs to
// the backend, so it is kept as a generic JSON object.
type User map[string]any

// Name returns a display name from the usual profile fields
func (u User) Name() string {
	if n := u.str("name"); n != "" {
		return n
	}
	first, last := u.str("first_name"), u.str("last_name")
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return u.Email()
}

// Email returns the profile email, if any
func (u User) Email() string {
	return u.str("email")
}

func (u User) str(key string) string {
	if u == nil {
		return ""
	}
	if v, ok := u[key].(string); ok {
		return v
	}
	return ""
}

// Kind classifies a failed operation
type Kind int

const (
	KindNone Kind = iota
	KindCredentialsInvalid
	KindLockedOut
	KindTransport
	KindInvalidInput
	KindSessionExpired
)

// String returns the kind name used in JSON output
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCredentialsInvalid:
		return "credentials_invalid"
	case KindLockedOut:
		return "locked_out"
	case KindTransport:
		return "transport_failure"
	case KindInvalidInput:
		return "invalid_input"
	case KindSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

var (
	ErrCredentialsInvalid = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("too many failed login attempts")
	ErrTransport          = errors.New("backend request failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionExpired     = errors.New("session expired")
)

// Result is the outcome of a session operation. Operations report every
// failure through a Result instead of returning errors.
type Result struct {
	Success bool
	User    User
	Kind    Kind
	Message string
	Err     error

	// AttemptsRemaining is set on KindCredentialsInvalid
	AttemptsRemaining int
	// RetryAfter is set on KindLockedOut
	RetryAfter time.Duration
}

func succeeded(u User, msg string) Result {
	return Result{Success: true, User: u, Message: msg}
}

func failed(kind Kind, sentinel error, msg string) Result {
	return Result{
		Kind:    kind,
		Message: msg,
		Err:     fmt.Errorf("%w: %s", sentinel, msg),
	}
}

// Snapshot is a read-only copy of the manager's observable state
type Snapshot struct {
	State              State
	User               User
	IsAuthenticated    bool
	Attempts           int
	LockedUntil        time.Time
	RemainingLock      time.Duration
	Loading            bool
	LoadingAuthActions bool
}
