// ABOUTME: Backend contract consumed by the session manager
// ABOUTME: Adapts the admin API client and classifies its failures

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/markalston/cleanops-admin/internal/client"
)

// Credentials is a bearer token with the profile it belongs to
type Credentials struct {
	Token string
	User  User
}

// Backend is the authentication surface of the marketplace API
type Backend interface {
	Authenticate(ctx context.Context, email, password string) (Credentials, error)
	Invalidate(ctx context.Context, token string) error
	RequestOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (Credentials, error)
	UpdatePassword(ctx context.Context, token string, update client.PasswordUpdate) (string, error)
}

// RejectedError reports that the backend explicitly refused the credentials.
// Only this error counts toward the lockout threshold.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return ErrCredentialsInvalid.Error()
	}
	return e.Message
}

// Is matches ErrCredentialsInvalid
func (e *RejectedError) Is(target error) bool {
	return target == ErrCredentialsInvalid
}

// rejectionStatuses are the responses treated as a verdict on the credentials
var rejectionStatuses = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusUnauthorized:        true,
	http.StatusForbidden:           true,
	http.StatusUnprocessableEntity: true,
}

// APIBackend implements Backend over the admin API client
type APIBackend struct {
	client *client.Client
}

// NewAPIBackend wraps an API client
func NewAPIBackend(c *client.Client) *APIBackend {
	return &APIBackend{client: c}
}

// Authenticate calls the login endpoint
func (b *APIBackend) Authenticate(ctx context.Context, email, password string) (Credentials, error) {
	resp, err := b.client.Login(ctx, email, password)
	if err != nil {
		return Credentials{}, classify(err)
	}
	return credentialsFrom(resp)
}

// Invalidate calls the logout endpoint
func (b *APIBackend) Invalidate(ctx context.Context, token string) error {
	return b.client.Logout(ctx, token)
}

// RequestOTP asks the backend to email a one-time code
func (b *APIBackend) RequestOTP(ctx context.Context, email string) (string, error) {
	resp, err := b.client.ResendOTP(ctx, email)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyOTP exchanges a one-time code for credentials
func (b *APIBackend) VerifyOTP(ctx context.Context, email, otp string) (Credentials, error) {
	resp, err := b.client.VerifyOTP(ctx, email, otp)
	if err != nil {
		return Credentials{}, err
	}
	return credentialsFrom(resp)
}

// UpdatePassword changes the password of the token's owner
func (b *APIBackend) UpdatePassword(ctx context.Context, token string, update client.PasswordUpdate) (string, error) {
	resp, err := b.client.UpdatePassword(ctx, token, update)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func classify(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && rejectionStatuses[apiErr.StatusCode] {
		return &RejectedError{Message: apiErr.Message}
	}
	return err
}

var (
	errNoToken   = errors.New("no token in login response")
	errNoProfile = errors.New("no admin profile in login response")
)

func credentialsFrom(resp *client.LoginResponse) (Credentials, error) {
	if strings.TrimSpace(resp.Token) == "" {
		return Credentials{}, errNoToken
	}
	var u User
	if len(resp.AdminDetails) > 0 {
		if err := json.Unmarshal(resp.AdminDetails, &u); err != nil {
			return Credentials{}, errNoProfile
		}
	}
	if u == nil {
		return Credentials{}, errNoProfile
	}
	return Credentials{Token: resp.Token, User: u}, nil
}

// userMessage extracts the text to show for a non-credential failure.
// Backend messages are surfaced verbatim; anything else gets a generic line.
func userMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, errNoToken):
		return "No token received from server"
	case errors.Is(err, errNoProfile):
		return "No admin profile received from server"
	}
	return fallback
}
