// ABOUTME: Section menu shown after sign-in
// ABOUTME: A huh select embedded as a bubbletea model listing the dashboard and every resource

package menu

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/cleanops-admin/internal/resource"
)

// Choice identifies a menu entry: a resource kind or one of the fixed entries
type Choice string

const (
	ChoiceDashboard Choice = "dashboard"
	ChoiceLogout    Choice = "logout"
	ChoiceQuit      Choice = "quit"
)

// SelectedMsg is sent when an entry is chosen
type SelectedMsg struct {
	Choice Choice
}

type option struct {
	label string
	value Choice
}

// Menu is the section picker
type Menu struct {
	options  []option
	selected Choice
	form     *huh.Form
}

// New creates the menu with the cursor on last
func New(last Choice) *Menu {
	opts := []option{{label: "Dashboard", value: ChoiceDashboard}}
	for _, d := range resource.All() {
		opts = append(opts, option{label: d.Title, value: Choice(d.Kind)})
	}
	opts = append(opts,
		option{label: "Sign out", value: ChoiceLogout},
		option{label: "Quit", value: ChoiceQuit},
	)

	if last == "" {
		last = ChoiceDashboard
	}
	m := &Menu{options: opts, selected: last}
	m.form = m.newForm()
	return m
}

func (m *Menu) newForm() *huh.Form {
	var options []huh.Option[Choice]
	for _, opt := range m.options {
		options = append(options, huh.NewOption(opt.label, opt.value))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Choice]().
				Title("Go to").
				Options(options...).
				Value(&m.selected),
		),
	).WithShowHelp(false).WithTheme(huh.ThemeBase())
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		choice := m.selected
		m.form = m.newForm()
		return m, tea.Batch(m.form.Init(), func() tea.Msg { return SelectedMsg{Choice: choice} })
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	return m.form.View()
}

// Resource returns the descriptor for a resource choice
func (c Choice) Resource() (resource.Descriptor, bool) {
	d, err := resource.Lookup(string(c))
	if err != nil {
		return resource.Descriptor{}, false
	}
	return d, true
}
