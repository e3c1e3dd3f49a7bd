// ABOUTME: Tests for the sign-in screen
// ABOUTME: Covers the lockout countdown and how login results are handled

package login

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/markalston/cleanops-admin/internal/session"
)

type fakeAuth struct {
	result    session.Result
	remaining time.Duration
	calls     int
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) session.Result {
	f.calls++
	return f.result
}

func (f *fakeAuth) RemainingLock() (time.Duration, bool) {
	return f.remaining, f.remaining > 0
}

func TestCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{time.Second, "0:01"},
		{1500 * time.Millisecond, "0:02"},
		{59 * time.Second, "0:59"},
		{time.Minute, "1:00"},
		{5*time.Minute - 100*time.Millisecond, "5:00"},
		{12*time.Minute + 3*time.Second, "12:03"},
	}

	for _, tt := range tests {
		if got := Countdown(tt.in); got != tt.want {
			t.Errorf("Countdown(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInitWhileLockedShowsCountdown(t *testing.T) {
	auth := &fakeAuth{remaining: 90 * time.Second}
	l := New(auth, time.Second, "")

	if cmd := l.Init(); cmd == nil {
		t.Fatal("expected a tick command while locked")
	}
	if !l.Locked() {
		t.Fatal("expected screen to be locked")
	}
	view := l.View()
	if !strings.Contains(view, "Try again in 1:30") {
		t.Errorf("expected countdown in view\nView:\n%s", view)
	}
	if strings.Contains(view, "Password") {
		t.Error("form should be hidden while locked")
	}
}

func TestLockTickUnlocks(t *testing.T) {
	auth := &fakeAuth{remaining: time.Second}
	l := New(auth, time.Second, "")
	l.Init()

	auth.remaining = 0
	l.Update(lockTickMsg{})

	if l.Locked() {
		t.Fatal("expected screen to unlock")
	}
	if !strings.Contains(l.View(), "You can sign in again.") {
		t.Errorf("expected unlock message\nView:\n%s", l.View())
	}
}

func TestLockTickKeepsCounting(t *testing.T) {
	auth := &fakeAuth{remaining: 10 * time.Second}
	l := New(auth, time.Second, "")
	l.Init()

	auth.remaining = 9 * time.Second
	_, cmd := l.Update(lockTickMsg{})

	if cmd == nil {
		t.Fatal("expected the tick to be re-armed")
	}
	if !strings.Contains(l.View(), "0:09") {
		t.Errorf("expected updated countdown\nView:\n%s", l.View())
	}
}

func TestLockedOutResultStartsCountdown(t *testing.T) {
	auth := &fakeAuth{}
	l := New(auth, time.Second, "")
	l.busy = true

	auth.remaining = 5 * time.Minute
	_, cmd := l.Update(resultMsg{result: session.Result{Kind: session.KindLockedOut, Message: "Too many failed attempts"}})

	if cmd == nil {
		t.Fatal("expected a tick command")
	}
	if !l.Locked() || l.Busy() {
		t.Errorf("expected locked and idle, got locked=%v busy=%v", l.Locked(), l.Busy())
	}
	if !strings.Contains(l.View(), "5:00") {
		t.Errorf("expected countdown\nView:\n%s", l.View())
	}
}

func TestFailedResultShowsMessage(t *testing.T) {
	auth := &fakeAuth{}
	l := New(auth, time.Second, "")
	l.busy = true

	l.Update(resultMsg{result: session.Result{Kind: session.KindCredentialsInvalid, Message: "Invalid credentials. 4 attempts remaining."}})

	if l.Locked() || l.Busy() {
		t.Error("expected the form to be usable again")
	}
	if !strings.Contains(l.View(), "4 attempts remaining") {
		t.Errorf("expected failure message\nView:\n%s", l.View())
	}
}

func TestSuccessEmitsLoggedIn(t *testing.T) {
	auth := &fakeAuth{}
	l := New(auth, time.Second, "")
	user := session.User{"name": "Operations Admin"}

	_, cmd := l.Update(resultMsg{result: session.Result{Success: true, User: user}})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(LoggedInMsg)
	if !ok {
		t.Fatalf("expected LoggedInMsg, got %T", msg)
	}
	if msg.User.Name() != "Operations Admin" {
		t.Errorf("unexpected user %v", msg.User)
	}
}

func TestSubmitCallsAuthenticator(t *testing.T) {
	auth := &fakeAuth{result: session.Result{Success: true}}
	l := New(auth, time.Second, "")
	l.email = "  admin@example.com "
	l.password = "secret"

	cmd := l.submit()
	if !l.Busy() {
		t.Error("expected busy while the attempt is in flight")
	}
	if !strings.Contains(l.View(), "Signing in...") {
		t.Errorf("expected progress text\nView:\n%s", l.View())
	}
	if l.password != "" {
		t.Error("expected password to be cleared")
	}

	if _, ok := cmd().(resultMsg); !ok {
		t.Fatal("expected resultMsg")
	}
	if auth.calls != 1 {
		t.Errorf("expected one login call, got %d", auth.calls)
	}
}

func TestNoticeShown(t *testing.T) {
	l := New(&fakeAuth{}, time.Second, "Your session has expired. Please sign in again.")

	if !strings.Contains(l.View(), "Your session has expired") {
		t.Errorf("expected notice\nView:\n%s", l.View())
	}
}
