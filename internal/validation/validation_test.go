// ABOUTME: Tests for form validation
// ABOUTME: Table-driven checks of each form and the single-field helper

package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/markalston/cleanops-admin/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Login(t *testing.T) {
	tests := []struct {
		name    string
		input   validation.LoginInput
		field   string
		message string
	}{
		{"valid", validation.LoginInput{Email: "ada@example.com", Password: "x"}, "", ""},
		{"missing email", validation.LoginInput{Password: "x"}, "email", "is required"},
		{"bad email", validation.LoginInput{Email: "ada", Password: "x"}, "email", "must be a valid email address"},
		{"missing password", validation.LoginInput{Email: "ada@example.com"}, "password", "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.input)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *validation.Error
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Fields[0].Field)
			assert.Equal(t, tt.message, ve.Fields[0].Message)
		})
	}
}

func TestValidate_PasswordConfirmation(t *testing.T) {
	err := validation.Validate(validation.PasswordChangeInput{
		Password:     "long-enough",
		Confirmation: "different!!",
	})

	var ve *validation.Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "confirmation", ve.Fields[0].Field)
	assert.Equal(t, "does not match", ve.Fields[0].Message)
}

func TestValidate_PasswordLength(t *testing.T) {
	err := validation.Validate(validation.PasswordChangeInput{Password: "short", Confirmation: "short"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum of 8 characters")
}

func TestValidate_OTP(t *testing.T) {
	assert.NoError(t, validation.Validate(validation.OTPInput{Email: "a@b.co", OTP: "123456"}))
	assert.Error(t, validation.Validate(validation.OTPInput{Email: "a@b.co", OTP: "12ab56"}))
}

func TestValidate_Notification(t *testing.T) {
	err := validation.Validate(validation.NotificationInput{Title: strings.Repeat("x", 121), Body: "b"})

	var ve *validation.Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Fields[0].Field)
}

func TestField(t *testing.T) {
	check := validation.Field("email", "required,email")

	assert.NoError(t, check("ada@example.com"))
	err := check("nope")
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email address", err.Error())
}
