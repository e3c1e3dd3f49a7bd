// ABOUTME: Password recovery and change actions of the session manager
// ABOUTME: OTP request and verification, post-OTP reset, and authenticated change

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/markalston/cleanops-admin/internal/client"
)

// authAction marks a password action in flight for LoadingAuthActions
func (m *Manager) authAction() func() {
	m.mu.Lock()
	m.authActions++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.authActions--
		m.mu.Unlock()
	}
}

func actionFailure(err error, fallback string) Result {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		r := failed(KindInvalidInput, ErrInvalidInput, apiErr.Message)
		r.Err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		return r
	}
	r := failed(KindTransport, ErrTransport, userMessage(err, fallback))
	r.Err = fmt.Errorf("%w: %w", ErrTransport, err)
	return r
}

// RequestPasswordReset asks the backend to email a one-time code
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) Result {
	if email == "" {
		return failed(KindInvalidInput, ErrInvalidInput, "Email is required")
	}
	defer m.authAction()()

	msg, err := m.backend.RequestOTP(ctx, email)
	if err != nil {
		m.logger.Warn("password reset request failed", "error", err)
		return actionFailure(err, "Failed to send OTP. Please try again.")
	}
	if msg == "" {
		msg = "OTP sent to your email"
	}
	return succeeded(nil, msg)
}

// VerifyOTP exchanges a one-time code for a session, which is established
// the same way a successful login is.
func (m *Manager) VerifyOTP(ctx context.Context, email, otp string) Result {
	if email == "" || otp == "" {
		return failed(KindInvalidInput, ErrInvalidInput, "Email and OTP are required")
	}
	defer m.authAction()()

	creds, err := m.backend.VerifyOTP(ctx, email, otp)
	if err != nil {
		m.logger.Warn("otp verification failed", "error", err)
		return actionFailure(err, "OTP verification failed. Please try again.")
	}

	m.establish(creds)
	m.logger.Info("admin verified by otp")
	return succeeded(creds.User, "OTP verified successfully")
}

// ResetPassword sets a new password after OTP verification. The verified
// session is used when present and cleared on success.
func (m *Manager) ResetPassword(ctx context.Context, password, confirmation string) Result {
	return m.updatePassword(ctx, client.PasswordUpdate{
		Password:             password,
		PasswordConfirmation: confirmation,
	}, false)
}

// ChangePassword changes the signed-in admin's password. On success the
// session is cleared and the admin must sign in with the new password.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, password, confirmation string) Result {
	if oldPassword == "" {
		return failed(KindInvalidInput, ErrInvalidInput, "Current password is required")
	}
	return m.updatePassword(ctx, client.PasswordUpdate{
		OldPassword:          oldPassword,
		Password:             password,
		PasswordConfirmation: confirmation,
	}, true)
}

func (m *Manager) updatePassword(ctx context.Context, update client.PasswordUpdate, requireSession bool) Result {
	if update.Password == "" {
		return failed(KindInvalidInput, ErrInvalidInput, "New password is required")
	}
	if update.Password != update.PasswordConfirmation {
		return failed(KindInvalidInput, ErrInvalidInput, "Passwords do not match")
	}

	token := m.Token()
	if requireSession && token == "" {
		return failed(KindInvalidInput, ErrInvalidInput, "Not signed in")
	}
	defer m.authAction()()

	msg, err := m.backend.UpdatePassword(ctx, token, update)
	if err != nil {
		m.logger.Warn("password update failed", "error", err)
		if token != "" && errors.Is(err, client.ErrUnauthorized) {
			m.signOut()
			r := failed(KindSessionExpired, ErrSessionExpired, "Your session has expired. Please sign in again.")
			r.Err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
			return r
		}
		return actionFailure(err, "Failed to update password. Please try again.")
	}

	if token != "" {
		m.signOut()
	}
	m.logger.Info("admin password updated")
	if msg == "" {
		msg = "Password updated successfully"
	}
	return succeeded(nil, msg)
}
