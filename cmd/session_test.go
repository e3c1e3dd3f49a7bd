// ABOUTME: Tests for the login, logout, whoami, and lockout commands
// ABOUTME: The session and throttle persist between commands through the state file

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/markalston/cleanops-admin/internal/devserver"
)

func TestLoginWhoamiLogout(t *testing.T) {
	newBackend(t)
	ctx := context.Background()

	loginEmail, loginPassword = devserver.DefaultAdminEmail, devserver.DefaultAdminPassword
	defer func() { loginEmail, loginPassword = "", "" }()

	var buf bytes.Buffer
	if code := runLogin(ctx, &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Signed in as Operations Admin <admin@cleanops.test>") {
		t.Errorf("unexpected login output: %q", buf.String())
	}

	buf.Reset()
	if code := runWhoami(ctx, &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	for _, check := range []string{"Operations Admin", "admin@cleanops.test", "Expires:"} {
		if !strings.Contains(buf.String(), check) {
			t.Errorf("expected whoami output to contain %q, got %q", check, buf.String())
		}
	}

	buf.Reset()
	if code := runLogout(ctx, &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "Signed out.") {
		t.Errorf("unexpected logout output: %q", buf.String())
	}

	buf.Reset()
	if code := runWhoami(ctx, &buf); code != exitRejected {
		t.Errorf("expected exit code %d after logout, got %d", exitRejected, code)
	}
	if !strings.Contains(buf.String(), "Not signed in") {
		t.Errorf("unexpected whoami output: %q", buf.String())
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	newBackend(t)
	loginEmail, loginPassword = devserver.DefaultAdminEmail, "wrong-password"
	defer func() { loginEmail, loginPassword = "", "" }()

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf)

	if code != exitRejected {
		t.Errorf("expected exit code %d, got %d", exitRejected, code)
	}
	if !strings.Contains(buf.String(), "These credentials do not match our records. 4 attempts remaining.") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLogin_JSON(t *testing.T) {
	newBackend(t)
	jsonOutput = true
	loginEmail, loginPassword = devserver.DefaultAdminEmail, devserver.DefaultAdminPassword
	defer func() { loginEmail, loginPassword = "", "" }()

	var buf bytes.Buffer
	if code := runLogin(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	var out resultOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !out.Success || out.User.Name() != "Operations Admin" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestLogin_TransportFailure(t *testing.T) {
	newBackend(t)
	apiURL = "http://127.0.0.1:1"
	loginEmail, loginPassword = devserver.DefaultAdminEmail, devserver.DefaultAdminPassword
	defer func() { loginEmail, loginPassword = "", "" }()

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf)

	if code != exitError {
		t.Errorf("expected exit code %d, got %d: %s", exitError, code, buf.String())
	}

	// Transport failures never count toward the lockout
	jsonOutput = true
	buf.Reset()
	runLockout(context.Background(), &buf)
	var out lockoutOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Attempts != 0 {
		t.Errorf("expected no counted attempts, got %d", out.Attempts)
	}
}

func TestLockoutPersistsBetweenCommands(t *testing.T) {
	newBackend(t)
	t.Setenv("CLEANOPS_MAX_LOGIN_ATTEMPTS", "2")
	ctx := context.Background()
	defer func() { loginEmail, loginPassword = "", "" }()

	loginEmail, loginPassword = devserver.DefaultAdminEmail, "wrong-password"
	var buf bytes.Buffer
	runLogin(ctx, &buf)
	buf.Reset()
	if code := runLogin(ctx, &buf); code != exitRejected {
		t.Fatalf("expected exit code %d, got %d", exitRejected, code)
	}
	if !strings.Contains(buf.String(), "Account locked for 15 minutes") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	// The correct password is refused while locked
	loginPassword = devserver.DefaultAdminPassword
	buf.Reset()
	if code := runLogin(ctx, &buf); code != exitRejected {
		t.Errorf("expected locked login to be rejected, got %d", code)
	}
	if !strings.Contains(buf.String(), "Try again in 15 minutes") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	if code := runLockout(ctx, &buf); code != exitRejected {
		t.Errorf("expected lockout to exit %d, got %d", exitRejected, code)
	}
	for _, check := range []string{"locked_out", "2 of 2", "Locked until"} {
		if !strings.Contains(buf.String(), check) {
			t.Errorf("expected lockout output to contain %q, got %q", check, buf.String())
		}
	}
}

func TestLockout_NotLocked(t *testing.T) {
	newBackend(t)

	var buf bytes.Buffer
	code := runLockout(context.Background(), &buf)

	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "0 of 5") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLockout_WatchCancelled(t *testing.T) {
	newBackend(t)
	t.Setenv("CLEANOPS_MAX_LOGIN_ATTEMPTS", "1")
	loginEmail, loginPassword = devserver.DefaultAdminEmail, "wrong-password"
	defer func() { loginEmail, loginPassword = "", "" }()
	var buf bytes.Buffer
	runLogin(context.Background(), &buf)

	watchLockout = true
	defer func() { watchLockout = false }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf.Reset()
	if code := runLockout(ctx, &buf); code != exitRejected {
		t.Errorf("expected a cancelled watch to exit %d, got %d", exitRejected, code)
	}
	if !strings.Contains(buf.String(), "Try again in 15:00") {
		t.Errorf("expected countdown, got %q", buf.String())
	}
}
