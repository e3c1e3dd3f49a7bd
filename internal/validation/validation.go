// ABOUTME: Input validation for forms submitted from the CLI and TUI
// ABOUTME: Wraps go-playground/validator with user-friendly messages

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginInput is the sign-in form
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// OTPInput is the one-time code form
type OTPInput struct {
	Email string `validate:"required,email"`
	OTP   string `validate:"required,numeric,min=4,max=8"`
}

// PasswordChangeInput is the change-password form. OldPassword is omitted
// for a reset after OTP verification.
type PasswordChangeInput struct {
	OldPassword  string
	Password     string `validate:"required,min=8,max=128"`
	Confirmation string `validate:"required,eqfield=Password"`
}

// NotificationInput is the broadcast form
type NotificationInput struct {
	Title string `validate:"required,max=120"`
	Body  string `validate:"required,max=2000"`
}

// RejectInput is the reason attached to a rejection
type RejectInput struct {
	ID     string `validate:"required"`
	Reason string `validate:"required,max=500"`
}

// FieldError is one failed field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every failed field
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
}

// Global validator instance, reused by every form
var validate = validator.New()

// Validate checks a form struct. It returns *Error for field failures.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validation failed: %w", err)
	}
	out := &Error{}
	for _, fe := range ve {
		out.Fields = append(out.Fields, FieldError{
			Field:   label(fe.Field()),
			Message: formatValidationError(fe),
		})
	}
	return out
}

// Field returns a validator for a single value, for use by form widgets.
// The tag uses validator syntax, e.g. "required,email".
func Field(name, tag string) func(string) error {
	return func(v string) error {
		if err := validate.Var(v, tag); err != nil {
			var ve validator.ValidationErrors
			if errors.As(err, &ve) && len(ve) > 0 {
				return fmt.Errorf("%s %s", name, formatValidationError(ve[0]))
			}
			return err
		}
		return nil
	}
}

func label(field string) string {
	switch field {
	case "OTP":
		return "otp"
	case "OldPassword":
		return "old_password"
	}
	return strings.ToLower(field)
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "numeric":
		return "must contain only digits"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
