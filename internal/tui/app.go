// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state, session transitions, and routes input to child components

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/resource"
	"github.com/markalston/cleanops-admin/internal/session"
	"github.com/markalston/cleanops-admin/internal/tui/browser"
	"github.com/markalston/cleanops-admin/internal/tui/dashboard"
	"github.com/markalston/cleanops-admin/internal/tui/icons"
	"github.com/markalston/cleanops-admin/internal/tui/login"
	"github.com/markalston/cleanops-admin/internal/tui/menu"
	"github.com/markalston/cleanops-admin/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenMenu
	ScreenDashboard
	ScreenResource
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before the frame stops shrinking
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
	pendingPreview   = 5  // Rows of pending work shown on the dashboard
)

// SessionManager is the part of the session manager the TUI drives
type SessionManager interface {
	login.Authenticator
	Logout(ctx context.Context) session.Result
	User() session.User
	IsAuthenticated() bool
}

// Options configures the app
type Options struct {
	PageSize int
	Timeout  time.Duration
}

// dashboardLoadedMsg is sent when the dashboard data arrives
type dashboardLoadedMsg struct {
	data *dashboard.Data
	err  error
}

// signedOutMsg is sent when the session ends, whatever ended it
type signedOutMsg struct{}

// loggedOutMsg is sent when a logout requested from the TUI completes
type loggedOutMsg struct {
	notice string
}

// App is the root model for the TUI
type App struct {
	session SessionManager
	api     resource.API
	opts    Options

	screen     Screen
	width      int
	height     int
	err        error
	lastUpdate time.Time
	lastChoice menu.Choice

	// Child models
	login     *login.Login
	menu      *menu.Menu
	dashboard *dashboard.Dashboard
	browser   *browser.Browser
}

// New creates a new TUI application. A bootstrapped, authenticated manager
// starts at the menu; otherwise the sign-in screen is shown.
func New(sm SessionManager, api resource.API, opts Options) *App {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	a := &App{session: sm, api: api, opts: opts}
	if sm.IsAuthenticated() {
		a.showMenu()
	} else {
		a.showLogin("")
	}
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	switch a.screen {
	case ScreenLogin:
		return a.login.Init()
	case ScreenMenu:
		return a.menu.Init()
	}
	return nil
}

func (a *App) showLogin(notice string) {
	a.screen = ScreenLogin
	a.login = login.New(a.session, a.opts.Timeout, notice)
	a.dashboard = nil
	a.browser = nil
	a.err = nil
}

func (a *App) showMenu() {
	a.screen = ScreenMenu
	a.menu = menu.New(a.lastChoice)
	a.err = nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.dashboard != nil {
			a.dashboard.SetSize(a.contentWidth(), a.contentHeight())
		}
		if a.browser != nil {
			a.browser.SetSize(a.contentWidth(), a.contentHeight())
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.screen {
		case ScreenDashboard:
			return a.updateDashboard(msg)
		case ScreenMenu:
			if msg.String() == "q" {
				return a, tea.Quit
			}
		}

	case login.LoggedInMsg:
		a.showMenu()
		return a, a.menu.Init()

	case menu.SelectedMsg:
		return a.handleSelection(msg.Choice)

	case dashboardLoadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrUnauthorized) {
				return a, a.expire()
			}
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.lastUpdate = time.Now()
		a.dashboard = dashboard.New(msg.data, a.contentWidth(), a.contentHeight())
		return a, nil

	case browser.BackMsg:
		a.browser = nil
		a.showMenu()
		return a, a.menu.Init()

	case browser.SessionExpiredMsg:
		return a, a.expire()

	case signedOutMsg:
		if a.screen != ScreenLogin {
			a.showLogin("You have been signed out.")
			return a, a.login.Init()
		}
		return a, nil

	case loggedOutMsg:
		a.showLogin(msg.notice)
		return a, a.login.Init()
	}

	return a.forward(msg)
}

// forward passes a message to the active child
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case ScreenLogin:
		_, cmd = a.login.Update(msg)
	case ScreenMenu:
		_, cmd = a.menu.Update(msg)
	case ScreenResource:
		if a.browser != nil {
			_, cmd = a.browser.Update(msg)
			a.lastUpdate = time.Now()
		}
	}
	return a, cmd
}

func (a *App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		return a, a.loadDashboard()
	case "b", "esc":
		a.dashboard = nil
		a.showMenu()
		return a, a.menu.Init()
	}
	return a, nil
}

func (a *App) handleSelection(choice menu.Choice) (tea.Model, tea.Cmd) {
	a.lastChoice = choice
	switch choice {
	case menu.ChoiceQuit:
		return a, tea.Quit
	case menu.ChoiceLogout:
		return a, a.logout("Signed out.")
	case menu.ChoiceDashboard:
		a.screen = ScreenDashboard
		a.dashboard = nil
		return a, a.loadDashboard()
	}

	d, ok := choice.Resource()
	if !ok {
		return a, nil
	}
	a.browser = browser.New(a.api, d, a.opts.PageSize, a.opts.Timeout)
	a.browser.SetSize(a.contentWidth(), a.contentHeight())
	a.screen = ScreenResource
	return a, a.browser.Init()
}

// expire ends a session the backend no longer accepts
func (a *App) expire() tea.Cmd {
	return a.logout("Your session has expired. Please sign in again.")
}

func (a *App) logout(notice string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.opts.Timeout)
		defer cancel()
		a.session.Logout(ctx)
		return loggedOutMsg{notice: notice}
	}
}

// loadDashboard fetches the summary and the pending work lists concurrently
func (a *App) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.opts.Timeout)
		defer cancel()

		var data dashboard.Data
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			data.Summary, err = resource.LoadDashboard(ctx, a.api)
			return err
		})
		g.Go(func() error {
			var err error
			data.Requests, err = resource.NewCollection(resource.MustLookup(resource.KindRequests), a.api, pendingPreview).Load(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			data.Withdrawals, err = resource.NewCollection(resource.MustLookup(resource.KindWithdrawals), a.api, pendingPreview).Load(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return dashboardLoadedMsg{err: err}
		}
		return dashboardLoadedMsg{data: &data}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = styles.ActivePanel.Width(min(a.contentWidth(), 72)).Render(a.login.View())
	case ScreenMenu:
		content = styles.Panel.Width(min(a.contentWidth(), 48)).Render(a.menu.View())
	case ScreenDashboard:
		content = a.viewDashboard()
	case ScreenResource:
		if a.browser != nil {
			content = styles.ActivePanel.Width(a.contentWidth()).Render(a.browser.View())
		}
	}

	return a.wrapWithFrame(content)
}

// viewDashboard renders the dashboard panel
func (a *App) viewDashboard() string {
	if a.err != nil {
		return styles.StatusCritical.Render("Error: " + a.err.Error())
	}
	if a.dashboard == nil {
		return styles.Panel.Width(a.contentWidth()).Render("Loading...")
	}
	return styles.ActivePanel.Width(a.contentWidth()).Render(a.dashboard.View())
}

// contentWidth calculates the width inside the frame
func (a *App) contentWidth() int {
	w := a.width
	if w < minTerminalWidth {
		w = minTerminalWidth
	}
	return w - panelPadding
}

// contentHeight calculates the height available for screen content
func (a *App) contentHeight() int {
	// Header, footer, the newlines around content, and panel border+padding
	return a.height - 8
}

// renderHeader creates the header bar with app branding and the signed-in admin
func (a *App) renderHeader() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftRendered := fmt.Sprintf(" %s %s", icons.App.String(), titleStyle.Render("CleanOps Admin"))

	rightRendered := ""
	if a.screen != ScreenLogin {
		if u := a.session.User(); u != nil {
			rightRendered = contextStyle.Render(icons.User.String()+" "+u.Name()) + " "
		}
	}

	fillWidth := width - 4 - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftRendered + strings.Repeat("─", fillWidth) + rightRendered + "─╮"
	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch a.screen {
	case ScreenLogin:
		shortcuts = []string{"Tab Next", "Enter Sign-in", "ctrl+c Quit"}
	case ScreenMenu:
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenDashboard:
		shortcuts = []string{"r Refresh", "b Back", "q Quit"}
	case ScreenResource:
		shortcuts = a.resourceShortcuts()
	}

	var styled []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}

	leftText := " " + strings.Join(styled, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	rightText, rightPlainText := "", ""
	if !a.lastUpdate.IsZero() && (a.screen == ScreenDashboard || a.screen == ScreenResource) {
		elapsed := formatTimeSince(time.Since(a.lastUpdate))
		rightText = statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = "Updated " + elapsed + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftPlainText) - lipgloss.Width(rightPlainText) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// resourceShortcuts lists the keys the current resource supports
func (a *App) resourceShortcuts() []string {
	keys := []string{"/ Search", "n/p Page", "r Refresh"}
	if a.browser == nil {
		return append(keys, "b Back")
	}
	d := a.browser.Descriptor()
	if d.HasDetail() {
		keys = append(keys, "Enter Details")
	}
	actionKeys := []struct {
		action resource.Action
		key    string
	}{
		{resource.ActionApprove, "a Approve"},
		{resource.ActionReject, "x Reject"},
		{resource.ActionDeactivate, "d Deactivate"},
		{resource.ActionReactivate, "e Reactivate"},
		{resource.ActionMarkRead, "m Mark-read"},
		{resource.ActionSend, "s Send"},
	}
	for _, ak := range actionKeys {
		if d.Supports(ak.action) {
			keys = append(keys, ak.key)
		}
	}
	return append(keys, "b Back")
}

// formatTimeSince formats an elapsed duration in human-readable form
func formatTimeSince(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI. Sign-outs that happen outside the TUI's own flow,
// such as a password change, bring the sign-in screen back.
func Run(m *session.Manager, api resource.API, opts Options) error {
	app := New(m, api, opts)

	p := tea.NewProgram(app, tea.WithAltScreen())
	unsubscribe := m.OnSignOut(func() {
		go p.Send(signedOutMsg{})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}
