// ABOUTME: Authentication endpoints of the admin API
// ABOUTME: Login, logout, OTP-based password reset, and password change

package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// LoginRequest is the body of POST /admin/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the success body of POST /admin/login and /admin/verify-otp.
// AdminDetails is kept raw because the profile shape is owned by the backend.
type LoginResponse struct {
	Token        string          `json:"token"`
	AdminDetails json.RawMessage `json:"admin_details"`
	Message      string          `json:"message,omitempty"`
}

// Login calls POST /admin/login
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, request{
		op:       "login",
		method:   http.MethodPost,
		path:     "/admin/login",
		body:     LoginRequest{Email: email, Password: password},
		fallback: "Invalid email or password",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout calls GET /admin/logout to invalidate token server-side
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, request{
		op:       "logout",
		method:   http.MethodGet,
		path:     "/admin/logout",
		auth:     true,
		token:    token,
		fallback: "Failed to logout",
	})
	return err
}

// ResendOTP calls POST /admin/resend-otp to start a password reset
func (c *Client) ResendOTP(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	err := c.doJSON(ctx, request{
		op:       "resend otp",
		method:   http.MethodPost,
		path:     "/admin/resend-otp",
		body:     map[string]string{"email": email},
		fallback: "Failed to send OTP",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP calls POST /admin/verify-otp. The backend answers with a token
// and profile when the code is accepted.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, request{
		op:       "verify otp",
		method:   http.MethodPost,
		path:     "/admin/verify-otp",
		body:     map[string]string{"email": email, "otp": otp},
		fallback: "OTP verification failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PasswordUpdate is the body of POST /admin/update-password.
// OldPassword is only sent for an authenticated change.
type PasswordUpdate struct {
	OldPassword          string `json:"old_password,omitempty"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdatePassword calls POST /admin/update-password. When token is empty the
// call is unauthenticated (reset after OTP verification).
func (c *Client) UpdatePassword(ctx context.Context, token string, in PasswordUpdate) (*MessageResponse, error) {
	var out MessageResponse
	err := c.doJSON(ctx, request{
		op:       "update password",
		method:   http.MethodPost,
		path:     "/admin/update-password",
		body:     in,
		auth:     token != "",
		token:    token,
		fallback: "Failed to update password",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
