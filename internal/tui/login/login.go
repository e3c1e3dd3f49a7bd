// ABOUTME: Sign-in screen as a bubbletea model
// ABOUTME: Wraps a huh form and shows a live countdown while the account is locked out

package login

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/cleanops-admin/internal/session"
	"github.com/markalston/cleanops-admin/internal/tui/icons"
	"github.com/markalston/cleanops-admin/internal/tui/styles"
	"github.com/markalston/cleanops-admin/internal/validation"
)

// LoggedInMsg is sent once the manager holds a session
type LoggedInMsg struct {
	User session.User
}

// lockTickMsg re-checks the lockout once a second
type lockTickMsg struct{}

// resultMsg carries the outcome of a login attempt
type resultMsg struct {
	result session.Result
}

// Authenticator is the part of the session manager the screen uses
type Authenticator interface {
	Login(ctx context.Context, email, password string) session.Result
	RemainingLock() (time.Duration, bool)
}

// Login is the sign-in screen
type Login struct {
	auth    Authenticator
	timeout time.Duration
	form    *huh.Form

	email    string
	password string

	busy      bool
	remaining time.Duration
	message   string
	failed    bool
}

// New creates the sign-in screen. The notice is shown above the form,
// e.g. after a session expired.
func New(auth Authenticator, timeout time.Duration, notice string) *Login {
	l := &Login{auth: auth, timeout: timeout, message: notice}
	l.form = l.newForm()
	return l
}

func (l *Login) newForm() *huh.Form {
	l.password = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("admin@example.com").
				Value(&l.email).
				Validate(validation.Field("email", "required,email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password).
				Validate(validation.Field("password", "required")),
		).Title("Sign in").
			Description("Marketplace administrators only"),
	).WithShowHelp(false).WithTheme(huh.ThemeBase())
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	if remaining, locked := l.auth.RemainingLock(); locked {
		l.remaining = remaining
		return tick()
	}
	return l.form.Init()
}

// tick schedules the next lockout check; it is re-armed only while locked
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return lockTickMsg{} })
}

// Locked reports whether the countdown is showing
func (l *Login) Locked() bool {
	return l.remaining > 0
}

// Busy reports whether a login attempt is in flight
func (l *Login) Busy() bool {
	return l.busy
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lockTickMsg:
		remaining, locked := l.auth.RemainingLock()
		if !locked {
			l.remaining = 0
			l.message = "You can sign in again."
			l.failed = false
			l.form = l.newForm()
			return l, l.form.Init()
		}
		l.remaining = remaining
		return l, tick()

	case resultMsg:
		l.busy = false
		r := msg.result
		if r.Success {
			return l, func() tea.Msg { return LoggedInMsg{User: r.User} }
		}
		l.message = r.Message
		l.failed = true
		if r.Kind == session.KindLockedOut {
			if remaining, locked := l.auth.RemainingLock(); locked {
				l.remaining = remaining
				return l, tick()
			}
		}
		l.form = l.newForm()
		return l, l.form.Init()
	}

	// The form is disabled while locked or while an attempt is in flight
	if l.Locked() || l.busy {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}
	if l.form.State == huh.StateCompleted {
		return l, l.submit()
	}
	return l, cmd
}

func (l *Login) submit() tea.Cmd {
	l.busy = true
	l.message = ""
	email, password := strings.TrimSpace(l.email), l.password
	l.password = ""
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		return resultMsg{result: l.auth.Login(ctx, email, password)}
	}
}

// View implements tea.Model
func (l *Login) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.User.String() + " Administrator sign-in"))
	sb.WriteString("\n")

	if l.message != "" {
		style := styles.StatusOK
		if l.failed {
			style = styles.StatusCritical
		}
		sb.WriteString(style.Render(l.message))
		sb.WriteString("\n\n")
	}

	switch {
	case l.Locked():
		sb.WriteString(styles.StatusWarning.Render(fmt.Sprintf("%s Too many failed attempts. Try again in %s", icons.Lock.String(), Countdown(l.remaining))))
		sb.WriteString("\n")
	case l.busy:
		sb.WriteString(styles.Subtitle.Render("Signing in..."))
	default:
		sb.WriteString(l.form.View())
	}
	return sb.String()
}

// Countdown formats a remaining duration as m:ss, rounding partial seconds up
func Countdown(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
