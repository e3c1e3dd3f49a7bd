// ABOUTME: Tests for the password commands
// ABOUTME: Walks the forgot/verify/reset recovery flow and the change flow against the dev server

package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/devserver"
)

func resetPasswordFlags() {
	currentPassword, newPassword, confirmPassword = "", "", ""
	recoveryEmail, recoveryOTP = "", ""
}

func TestPasswordRecovery(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	defer resetPasswordFlags()

	recoveryEmail = devserver.DefaultAdminEmail
	var buf bytes.Buffer
	if code := runPasswordForgot(ctx, &buf); code != 0 {
		t.Fatalf("forgot: expected exit code 0, got %d: %s", code, buf.String())
	}

	otp, ok := b.srv.OTP(devserver.DefaultAdminEmail)
	if !ok {
		t.Fatal("expected an OTP to be issued")
	}
	recoveryOTP = otp
	buf.Reset()
	if code := runPasswordVerify(ctx, &buf); code != 0 {
		t.Fatalf("verify: expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "cleanops password reset") {
		t.Errorf("expected next-step hint, got %q", buf.String())
	}

	newPassword, confirmPassword = "brand-new-pass", "brand-new-pass"
	buf.Reset()
	if code := runPasswordReset(ctx, &buf); code != 0 {
		t.Fatalf("reset: expected exit code 0, got %d: %s", code, buf.String())
	}

	// The reset signs out; only the new password works now
	buf.Reset()
	if code := runWhoami(ctx, &buf); code != exitRejected {
		t.Errorf("expected to be signed out after reset, whoami exited %d", code)
	}

	loginEmail, loginPassword = devserver.DefaultAdminEmail, devserver.DefaultAdminPassword
	defer func() { loginEmail, loginPassword = "", "" }()
	buf.Reset()
	if code := runLogin(ctx, &buf); code != exitRejected {
		t.Errorf("expected the old password to be rejected, got %d", code)
	}

	loginPassword = "brand-new-pass"
	buf.Reset()
	if code := runLogin(ctx, &buf); code != 0 {
		t.Errorf("expected the new password to work, got %d: %s", code, buf.String())
	}
}

func TestPasswordReset_RequiresVerification(t *testing.T) {
	newBackend(t)
	defer resetPasswordFlags()
	newPassword, confirmPassword = "brand-new-pass", "brand-new-pass"

	var buf bytes.Buffer
	code := runPasswordReset(context.Background(), &buf)

	if code != exitRejected {
		t.Errorf("expected exit code %d, got %d", exitRejected, code)
	}
	if !strings.Contains(buf.String(), "password verify") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestPasswordChange(t *testing.T) {
	newBackend(t)
	signIn(t)
	ctx := context.Background()
	defer resetPasswordFlags()

	currentPassword, newPassword, confirmPassword = "not-my-password", "another-pass-1", "another-pass-1"
	var buf bytes.Buffer
	if code := runPasswordChange(ctx, &buf); code == 0 {
		t.Fatalf("expected a wrong current password to fail: %s", buf.String())
	}

	currentPassword = devserver.DefaultAdminPassword
	buf.Reset()
	if code := runPasswordChange(ctx, &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Signed out") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	if code := runWhoami(ctx, &buf); code != exitRejected {
		t.Errorf("expected to be signed out after the change, whoami exited %d", code)
	}
}

func TestPasswordChange_ExpiredSessionSignsOut(t *testing.T) {
	b := newBackend(t)
	signIn(t)
	ctx := context.Background()
	defer resetPasswordFlags()

	e, err := openEnv(ctx)
	if err != nil {
		t.Fatalf("openEnv: %v", err)
	}
	token := e.session.Token()
	e.Close()
	if err := client.New(b.url).Logout(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	currentPassword, newPassword, confirmPassword = devserver.DefaultAdminPassword, "another-pass-1", "another-pass-1"
	var buf bytes.Buffer
	if code := runPasswordChange(ctx, &buf); code != exitRejected {
		t.Fatalf("expected exit code %d, got %d: %s", exitRejected, code, buf.String())
	}
	if !strings.Contains(buf.String(), "Your session has expired") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	if code := runWhoami(ctx, &buf); code != exitRejected {
		t.Errorf("expected the local session to be cleared, whoami exited %d", code)
	}
}

func TestPasswordChange_Mismatch(t *testing.T) {
	newBackend(t)
	signIn(t)
	defer resetPasswordFlags()
	currentPassword, newPassword, confirmPassword = devserver.DefaultAdminPassword, "another-pass-1", "another-pass-2"

	var buf bytes.Buffer
	code := runPasswordChange(context.Background(), &buf)

	if code != exitError {
		t.Errorf("expected exit code %d, got %d", exitError, code)
	}
	if !strings.Contains(buf.String(), "Passwords do not match") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
