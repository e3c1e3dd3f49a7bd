// ABOUTME: Resource browser: a paginated table over one admin resource
// ABOUTME: Handles search, paging, detail view, and the resource's actions

package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/tidwall/gjson"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/resource"
	"github.com/markalston/cleanops-admin/internal/tui/icons"
	"github.com/markalston/cleanops-admin/internal/tui/styles"
	"github.com/markalston/cleanops-admin/internal/tui/widgets"
	"github.com/markalston/cleanops-admin/internal/validation"
)

// BackMsg asks the app to return to the menu
type BackMsg struct{}

// SessionExpiredMsg reports that the backend rejected the bearer token
type SessionExpiredMsg struct{}

type loadedMsg struct {
	page resource.Page
	err  error
}

type actionDoneMsg struct {
	message string
	err     error
}

type detailMsg struct {
	record resource.Record
	err    error
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeForm
	modeDetail
)

// Browser is the table screen for one resource
type Browser struct {
	api        resource.API
	collection *resource.Collection
	desc       resource.Descriptor
	timeout    time.Duration

	table   table.Model
	spinner spinner.Model
	search  textinput.Model
	form    *huh.Form

	mode    mode
	loading bool
	page    resource.Page
	detail  resource.Record
	status  string
	err     error

	// form state
	pending resource.ActionRequest
	reason  string
	title   string
	body    string
}

// New creates a browser over d
func New(api resource.API, d resource.Descriptor, perPage int, timeout time.Duration) *Browser {
	cols := make([]table.Column, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(perPage),
	)
	t.SetStyles(styles.Table())

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "name, email, id..."
	ti.Prompt = icons.Search.String() + " "
	ti.CharLimit = 100

	return &Browser{
		api:        api,
		collection: resource.NewCollection(d, api, perPage),
		desc:       d,
		timeout:    timeout,
		table:      t,
		spinner:    sp,
		search:     ti,
	}
}

// Descriptor returns the browsed resource
func (b *Browser) Descriptor() resource.Descriptor {
	return b.desc
}

// SetSize fits the table to the available area
func (b *Browser) SetSize(width, height int) {
	b.table.SetWidth(width)
	if h := height - 8; h > 3 {
		b.table.SetHeight(h)
	}
}

// Init implements tea.Model
func (b *Browser) Init() tea.Cmd {
	return b.load(func(ctx context.Context) (resource.Page, error) { return b.collection.Load(ctx) })
}

func (b *Browser) load(fn func(context.Context) (resource.Page, error)) tea.Cmd {
	b.loading = true
	b.err = nil
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		page, err := fn(ctx)
		return loadedMsg{page: page, err: err}
	}
	return tea.Batch(fetch, b.spinner.Tick)
}

// Update implements tea.Model
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !b.loading {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd

	case loadedMsg:
		b.loading = false
		if msg.err != nil {
			return b, b.fail(msg.err)
		}
		b.setPage(msg.page)
		return b, nil

	case actionDoneMsg:
		b.loading = false
		if msg.err != nil {
			return b, b.fail(msg.err)
		}
		b.status = msg.message
		return b, b.load(func(ctx context.Context) (resource.Page, error) { return b.collection.Load(ctx) })

	case detailMsg:
		b.loading = false
		if msg.err != nil {
			return b, b.fail(msg.err)
		}
		b.detail = msg.record
		b.mode = modeDetail
		return b, nil
	}

	switch b.mode {
	case modeSearch:
		return b.updateSearch(msg)
	case modeForm:
		return b.updateForm(msg)
	case modeDetail:
		if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "esc" || key.String() == "b" || key.String() == "enter") {
			b.mode = modeBrowse
		}
		return b, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}
	return b.updateBrowse(key)
}

// fail records an error; a rejected token ends the session
func (b *Browser) fail(err error) tea.Cmd {
	if errors.Is(err, client.ErrUnauthorized) {
		return func() tea.Msg { return SessionExpiredMsg{} }
	}
	b.err = err
	b.status = ""
	return nil
}

func (b *Browser) setPage(p resource.Page) {
	b.page = p
	rows := make([]table.Row, len(p.Items))
	for i, rec := range p.Items {
		row := make(table.Row, len(b.desc.Columns))
		for j, c := range b.desc.Columns {
			row[j] = rec.Cell(c)
		}
		rows[i] = row
	}
	b.table.SetRows(rows)
	if b.table.Cursor() >= len(rows) {
		b.table.SetCursor(max(0, len(rows)-1))
	}
}

func (b *Browser) updateBrowse(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if b.loading {
		if key.String() == "esc" || key.String() == "b" {
			return b, func() tea.Msg { return BackMsg{} }
		}
		return b, nil
	}

	switch key.String() {
	case "esc", "b":
		return b, func() tea.Msg { return BackMsg{} }
	case "r":
		b.status = ""
		return b, b.load(func(ctx context.Context) (resource.Page, error) { return b.collection.Load(ctx) })
	case "n", "right":
		return b, b.load(func(ctx context.Context) (resource.Page, error) { return b.collection.Next(ctx) })
	case "p", "left":
		return b, b.load(func(ctx context.Context) (resource.Page, error) { return b.collection.Prev(ctx) })
	case "/":
		b.mode = modeSearch
		b.search.SetValue(b.collection.Query().Search)
		return b, b.search.Focus()
	case "enter":
		return b, b.openDetail()
	case "a":
		return b, b.act(resource.ActionApprove)
	case "x":
		return b, b.act(resource.ActionReject)
	case "d":
		return b, b.act(resource.ActionDeactivate)
	case "e":
		return b, b.act(resource.ActionReactivate)
	case "m":
		return b, b.act(resource.ActionMarkRead)
	case "s":
		return b, b.act(resource.ActionSend)
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(key)
	return b, cmd
}

func (b *Browser) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			b.mode = modeBrowse
			b.search.Blur()
			return b, nil
		case "enter":
			b.mode = modeBrowse
			b.search.Blur()
			term := strings.TrimSpace(b.search.Value())
			return b, b.load(func(ctx context.Context) (resource.Page, error) { return b.collection.SetSearch(ctx, term) })
		}
	}
	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	return b, cmd
}

// selectedID returns the id of the highlighted record
func (b *Browser) selectedID() string {
	i := b.table.Cursor()
	if i < 0 || i >= len(b.page.Items) {
		return ""
	}
	return b.page.Items[i].Get(b.desc.IDPath)
}

func (b *Browser) openDetail() tea.Cmd {
	id := b.selectedID()
	if !b.desc.HasDetail() || id == "" {
		return nil
	}
	b.loading = true
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		rec, err := resource.Detail(ctx, b.api, b.desc, id, 1)
		return detailMsg{record: rec, err: err}
	}
	return tea.Batch(fetch, b.spinner.Tick)
}

// act starts an action; reject and send collect input first
func (b *Browser) act(a resource.Action) tea.Cmd {
	if !b.desc.Supports(a) {
		return nil
	}
	req := resource.ActionRequest{Action: a, ID: b.selectedID()}
	switch a {
	case resource.ActionSend:
		b.pending = req
		b.title, b.body = "", ""
		b.form = b.notificationForm()
		b.mode = modeForm
		return b.form.Init()
	case resource.ActionReject:
		if req.ID == "" {
			return nil
		}
		b.pending = req
		b.reason = ""
		b.form = b.reasonForm()
		b.mode = modeForm
		return b.form.Init()
	}
	if req.ID == "" {
		return nil
	}
	return b.perform(req)
}

func (b *Browser) perform(req resource.ActionRequest) tea.Cmd {
	b.loading = true
	b.status = ""
	run := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		msg, err := resource.Perform(ctx, b.api, b.desc, req)
		return actionDoneMsg{message: msg, err: err}
	}
	return tea.Batch(run, b.spinner.Tick)
}

func (b *Browser) reasonForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Reject %s #%s", strings.TrimSuffix(strings.ToLower(b.desc.Title), "s"), b.pending.ID)).
				Description("The reason is sent to the provider").
				Value(&b.reason).
				Validate(validation.Field("reason", "required,max=500")),
		),
	).WithShowHelp(false).WithTheme(huh.ThemeBase())
}

func (b *Browser) notificationForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&b.title).
				Validate(validation.Field("title", "required,max=120")),
			huh.NewText().
				Title("Message").
				Value(&b.body).
				Validate(validation.Field("body", "required,max=2000")),
		).Title("New notification"),
	).WithShowHelp(false).WithTheme(huh.ThemeBase())
}

func (b *Browser) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		b.mode = modeBrowse
		b.form = nil
		return b, nil
	}

	form, cmd := b.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		b.form = f
	}
	if b.form.State != huh.StateCompleted {
		return b, cmd
	}

	b.mode = modeBrowse
	b.form = nil
	req := b.pending
	switch req.Action {
	case resource.ActionReject:
		req.Reason = strings.TrimSpace(b.reason)
	case resource.ActionSend:
		req.Notification = client.NewNotification(strings.TrimSpace(b.title), strings.TrimSpace(b.body), time.Now())
	}
	return b, b.perform(req)
}

// View implements tea.Model
func (b *Browser) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(b.desc.Title))
	sb.WriteString("\n")

	if stats := b.statsLine(); stats != "" {
		sb.WriteString(stats)
		sb.WriteString("\n\n")
	}

	switch b.mode {
	case modeForm:
		if b.form != nil {
			sb.WriteString(b.form.View())
		}
		return sb.String()
	case modeDetail:
		sb.WriteString(b.detailView())
		return sb.String()
	case modeSearch:
		sb.WriteString(b.search.View())
		sb.WriteString("\n")
	default:
		if q := b.collection.Query().Search; q != "" {
			sb.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%s %q", icons.Search.String(), q)))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(b.table.View())
	sb.WriteString("\n")
	sb.WriteString(styles.LabelStyle.Render(fmt.Sprintf("Page %d of %d · %d total", max(b.page.CurrentPage, 1), max(b.page.LastPage, 1), b.page.Total)))
	sb.WriteString("\n")

	switch {
	case b.loading:
		sb.WriteString(b.spinner.View() + " Loading...")
	case b.err != nil:
		sb.WriteString(styles.StatusCritical.Render("Error: " + b.err.Error()))
	case b.status != "":
		sb.WriteString(styles.StatusOK.Render(b.status))
	}
	return sb.String()
}

func (b *Browser) statsLine() string {
	var parts []string
	for _, s := range b.desc.Stats {
		v, ok := b.page.Stats[s.Key]
		if !ok {
			continue
		}
		parts = append(parts, styles.LabelStyle.Render(s.Label+": ")+styles.ValueStyle.Render(v))
	}
	return strings.Join(parts, "   ")
}

func (b *Browser) detailView() string {
	var sb strings.Builder
	root := gjson.Parse(b.detail.Raw())
	root.ForEach(func(key, value gjson.Result) bool {
		sb.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%-20s", key.String())))
		sb.WriteString(" ")
		sb.WriteString(fieldValue(key.String(), value))
		sb.WriteString("\n")
		return true
	})
	if sb.Len() == 0 {
		sb.WriteString(styles.LabelStyle.Render("No details"))
	}
	return sb.String()
}

// fieldValue renders one detail field; nested lists are summarized
func fieldValue(key string, v gjson.Result) string {
	switch {
	case v.Type == gjson.Null || !v.Exists():
		return "-"
	case key == "status":
		return widgets.StatusBadge(v.String())
	case v.IsObject() && v.Get("data").IsArray():
		return fmt.Sprintf("%d item(s), page %d of %d", v.Get("total").Int(), max(v.Get("current_page").Int(), 1), max(v.Get("last_page").Int(), 1))
	case v.IsArray():
		return fmt.Sprintf("%d item(s)", len(v.Array()))
	case v.IsObject():
		var parts []string
		v.ForEach(func(k, sub gjson.Result) bool {
			if !sub.IsObject() && !sub.IsArray() {
				parts = append(parts, k.String()+"="+sub.String())
			}
			return true
		})
		return strings.Join(parts, " ")
	}
	return v.String()
}
