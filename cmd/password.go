// ABOUTME: Password commands: change, and the forgot/verify/reset recovery flow
// ABOUTME: Any password update signs the admin out

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/markalston/cleanops-admin/internal/validation"
)

var (
	currentPassword string
	newPassword     string
	confirmPassword string
	recoveryEmail   string
	recoveryOTP     string
)

// promptPasswords asks for the password fields the flags left out.
// current is nil when no current password is needed.
var promptPasswords = func(current, password, confirmation *string) error {
	var fields []huh.Field
	if current != nil && *current == "" {
		fields = append(fields, huh.NewInput().
			Title("Current password").
			EchoMode(huh.EchoModePassword).
			Value(current).
			Validate(validation.Field("current password", "required")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("New password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(validation.Field("password", "required,min=8,max=128")))
	}
	if *confirmation == "" {
		fields = append(fields, huh.NewInput().
			Title("Confirm new password").
			EchoMode(huh.EchoModePassword).
			Value(confirmation).
			Validate(validation.Field("confirmation", "required")))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change or recover the administrator password",
	Long: `Change the password while signed in, or recover it:

  cleanops password forgot --email admin@example.com
  cleanops password verify --email admin@example.com --otp 123456
  cleanops password reset

Updating the password signs you out everywhere this session was kept.`,
}

var passwordChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the signed-in administrator's password",
	Args:  cobra.NoArgs,
	Run:   run(func(ctx context.Context, w io.Writer, _ []string) int { return runPasswordChange(ctx, w) }),
}

var passwordForgotCmd = &cobra.Command{
	Use:   "forgot",
	Short: "Email a one-time code for password recovery",
	Args:  cobra.NoArgs,
	Run:   run(func(ctx context.Context, w io.Writer, _ []string) int { return runPasswordForgot(ctx, w) }),
}

var passwordVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the one-time code and start a recovery session",
	Args:  cobra.NoArgs,
	Run:   run(func(ctx context.Context, w io.Writer, _ []string) int { return runPasswordVerify(ctx, w) }),
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set a new password after verifying the one-time code",
	Args:  cobra.NoArgs,
	Run:   run(func(ctx context.Context, w io.Writer, _ []string) int { return runPasswordReset(ctx, w) }),
}

func init() {
	rootCmd.AddCommand(passwordCmd)
	passwordCmd.AddCommand(passwordChangeCmd, passwordForgotCmd, passwordVerifyCmd, passwordResetCmd)

	passwordChangeCmd.Flags().StringVar(&currentPassword, "current", "", "Current password (prompted when omitted)")
	for _, c := range []*cobra.Command{passwordChangeCmd, passwordResetCmd} {
		c.Flags().StringVar(&newPassword, "new", "", "New password (prompted when omitted)")
		c.Flags().StringVar(&confirmPassword, "confirm", "", "New password again (prompted when omitted)")
	}
	for _, c := range []*cobra.Command{passwordForgotCmd, passwordVerifyCmd} {
		c.Flags().StringVarP(&recoveryEmail, "email", "e", "", "Administrator email")
		_ = c.MarkFlagRequired("email")
	}
	passwordVerifyCmd.Flags().StringVar(&recoveryOTP, "otp", "", "One-time code from the email")
	_ = passwordVerifyCmd.MarkFlagRequired("otp")
}

// runPasswordChange changes the password and returns exit code
func runPasswordChange(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if !requireSession(w, e) {
			return exitRejected
		}
		current, password, confirmation := currentPassword, newPassword, confirmPassword
		if err := promptPasswords(&current, &password, &confirmation); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		r := e.session.ChangePassword(ctx, current, password, confirmation)
		return printResult(w, r, r.Message+". Signed out; sign in with the new password.")
	})
}

// runPasswordForgot requests a one-time code and returns exit code
func runPasswordForgot(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		r := e.session.RequestPasswordReset(ctx, recoveryEmail)
		return printResult(w, r, r.Message+". Continue with 'cleanops password verify'.")
	})
}

// runPasswordVerify exchanges the code for a session and returns exit code
func runPasswordVerify(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		r := e.session.VerifyOTP(ctx, recoveryEmail, recoveryOTP)
		return printResult(w, r, r.Message+". Set a new password with 'cleanops password reset'.")
	})
}

// runPasswordReset sets the new password and returns exit code
func runPasswordReset(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if !e.session.IsAuthenticated() {
			fmt.Fprintln(w, "No verified session. Run 'cleanops password verify' first.")
			return exitRejected
		}
		password, confirmation := newPassword, confirmPassword
		if err := promptPasswords(nil, &password, &confirmation); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		r := e.session.ResetPassword(ctx, password, confirmation)
		return printResult(w, r, r.Message+". Sign in with the new password.")
	})
}
