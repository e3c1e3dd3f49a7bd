// ABOUTME: Session commands: login, logout, whoami, and lockout
// ABOUTME: Drive the session manager and report results with the CLI exit codes

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/markalston/cleanops-admin/internal/session"
	"github.com/markalston/cleanops-admin/internal/tui/login"
	"github.com/markalston/cleanops-admin/internal/validation"
)

var (
	loginEmail    string
	loginPassword string
	watchLockout  bool
)

// promptCredentials asks for whatever the flags left out
var promptCredentials = func(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(email).
			Validate(validation.Field("email", "required,email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(validation.Field("password", "required")))
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as a marketplace administrator",
	Long: `Sign in and keep the session for later commands.

Repeated failures lock sign-in for the configured lockout duration
(default: 5 attempts, 15 minutes). Missing flags are prompted for.`,
	Args: cobra.NoArgs,
	Run:  run(func(ctx context.Context, w io.Writer, _ []string) int { return runLogin(ctx, w) }),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	Run:   run(func(ctx context.Context, w io.Writer, _ []string) int { return runLogout(ctx, w) }),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in administrator",
	Args:  cobra.NoArgs,
	Run:   run(func(ctx context.Context, w io.Writer, _ []string) int { return runWhoami(ctx, w) }),
}

var lockoutCmd = &cobra.Command{
	Use:   "lockout",
	Short: "Show failed sign-in attempts and any active lockout",
	Long: `Show the sign-in throttle.

Exits 1 while sign-in is locked. With --watch, counts down until the
lockout ends and then exits 0.`,
	Args: cobra.NoArgs,
	Run:  run(func(ctx context.Context, w io.Writer, _ []string) int { return runLockout(ctx, w) }),
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, lockoutCmd)
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Administrator email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Administrator password (prompted when omitted)")
	lockoutCmd.Flags().BoolVarP(&watchLockout, "watch", "w", false, "Count down until the lockout ends")
}

// resultOutput is the JSON form of a session result
type resultOutput struct {
	Success           bool         `json:"success"`
	Kind              string       `json:"kind,omitempty"`
	Message           string       `json:"message,omitempty"`
	User              session.User `json:"user,omitempty"`
	AttemptsRemaining int          `json:"attempts_remaining,omitempty"`
	RetryAfterSeconds int          `json:"retry_after_seconds,omitempty"`
}

// resultExitCode maps a result to the CLI exit codes
func resultExitCode(r session.Result) int {
	if r.Success {
		return exitOK
	}
	switch r.Kind {
	case session.KindCredentialsInvalid, session.KindLockedOut, session.KindSessionExpired:
		return exitRejected
	}
	return exitError
}

// printResult reports r and returns its exit code; text replaces the
// result message on success when set
func printResult(w io.Writer, r session.Result, text string) int {
	if IsJSONOutput() {
		out := resultOutput{
			Success:           r.Success,
			Message:           r.Message,
			User:              r.User,
			AttemptsRemaining: r.AttemptsRemaining,
			RetryAfterSeconds: int((r.RetryAfter + time.Second - 1) / time.Second),
		}
		if !r.Success {
			out.Kind = r.Kind.String()
		}
		printJSON(w, out)
		return resultExitCode(r)
	}

	switch {
	case r.Success && text != "":
		fmt.Fprintln(w, text)
	case r.Success:
		fmt.Fprintln(w, r.Message)
	case resultExitCode(r) == exitRejected:
		fmt.Fprintln(w, r.Message)
	default:
		fmt.Fprintf(w, "Error: %s\n", r.Message)
	}
	return resultExitCode(r)
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		email, password := loginEmail, loginPassword
		// A locked manager answers without the backend, so skip the prompt
		if _, locked := e.session.RemainingLock(); !locked && (email == "" || password == "") {
			if err := promptCredentials(&email, &password); err != nil {
				fmt.Fprintf(w, "Error: %v\n", err)
				return exitError
			}
		}

		r := e.session.Login(ctx, email, password)
		if r.Success {
			return printResult(w, r, fmt.Sprintf("Signed in as %s <%s>", r.User.Name(), r.User.Email()))
		}
		return printResult(w, r, "")
	})
}

// runLogout signs out and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		wasSignedIn := e.session.IsAuthenticated()
		r := e.session.Logout(ctx)
		if !wasSignedIn {
			return printResult(w, r, "Not signed in.")
		}
		return printResult(w, r, "Signed out.")
	})
}

// whoamiOutput is the JSON form of whoami
type whoamiOutput struct {
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	User      session.User `json:"user"`
}

// runWhoami prints the signed-in admin and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if !requireSession(w, e) {
			return exitRejected
		}
		u := e.session.User()
		out := whoamiOutput{Name: u.Name(), Email: u.Email(), User: u}
		if exp, ok := session.TokenExpiry(e.session.Token()); ok {
			out.ExpiresAt = &exp
		}

		if IsJSONOutput() {
			printJSON(w, out)
			return exitOK
		}
		fmt.Fprintf(w, "Signed in as %s\n", out.Name)
		fmt.Fprintf(w, "Email:    %s\n", out.Email)
		fmt.Fprintf(w, "Backend:  %s\n", e.cfg.APIURL)
		if out.ExpiresAt != nil {
			fmt.Fprintf(w, "Expires:  %s (in %s)\n", out.ExpiresAt.Local().Format(time.RFC1123), time.Until(*out.ExpiresAt).Round(time.Minute))
		}
		return exitOK
	})
}

// lockoutOutput is the JSON form of the throttle state
type lockoutOutput struct {
	State            string     `json:"state"`
	Attempts         int        `json:"attempts"`
	MaxAttempts      int        `json:"max_attempts"`
	Locked           bool       `json:"locked"`
	LockedUntil      *time.Time `json:"locked_until,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds,omitempty"`
}

// runLockout prints the throttle state and returns exit code
func runLockout(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		snap := e.session.Snapshot()
		locked := snap.RemainingLock > 0
		out := lockoutOutput{
			State:       snap.State.String(),
			Attempts:    snap.Attempts,
			MaxAttempts: e.session.Config().MaxAttempts,
			Locked:      locked,
		}
		if locked {
			until := snap.LockedUntil
			out.LockedUntil = &until
			out.RemainingSeconds = int((snap.RemainingLock + time.Second - 1) / time.Second)
		}

		if IsJSONOutput() {
			printJSON(w, out)
		} else {
			fmt.Fprintf(w, "State:            %s\n", out.State)
			fmt.Fprintf(w, "Failed attempts:  %d of %d\n", out.Attempts, out.MaxAttempts)
			if locked {
				fmt.Fprintf(w, "Locked until:     %s (%s left)\n", snap.LockedUntil.Local().Format(time.Kitchen), login.Countdown(snap.RemainingLock))
			}
		}

		if !locked {
			return exitOK
		}
		if !watchLockout {
			return exitRejected
		}

		e.session.WatchLockout(ctx, func(remaining time.Duration) {
			if !IsJSONOutput() && remaining > 0 {
				fmt.Fprintf(w, "\rTry again in %s ", login.Countdown(remaining))
			}
		})
		if _, stillLocked := e.session.RemainingLock(); stillLocked {
			fmt.Fprintln(w)
			return exitRejected
		}
		if !IsJSONOutput() {
			fmt.Fprintln(w, "\rYou can sign in again.")
		}
		return exitOK
	})
}
