// ABOUTME: Read commands over admin resources: dashboard, list, and show
// ABOUTME: Render resource pages as tables or JSON for scripting

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/markalston/cleanops-admin/internal/resource"
	"github.com/markalston/cleanops-admin/internal/tui/widgets"
)

var (
	listPage    int
	listPerPage int
	listSearch  string
	showPage    int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the marketplace summary",
	Long:  `Display customer, cleaner, booking, and report totals with the day's service sales.`,
	Args:  cobra.NoArgs,
	Run:   run(func(ctx context.Context, w io.Writer, _ []string) int { return runDashboard(ctx, w) }),
}

var listCmd = &cobra.Command{
	Use:       "list <resource>",
	Short:     "List a page of an admin resource",
	Long:      "List a page of an admin resource.\n\nResources: " + strings.Join(resource.Names(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: resource.Names(),
	Run:       run(runList),
}

var showCmd = &cobra.Command{
	Use:   "show <resource> <id>",
	Short: "Show one record with its related lists",
	Long:  `Show a user, provider request, or withdrawal in full.`,
	Args:  cobra.ExactArgs(2),
	Run:   run(runShow),
}

func init() {
	rootCmd.AddCommand(dashboardCmd, listCmd, showCmd)
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	listCmd.Flags().IntVar(&listPerPage, "per-page", 0, "Rows per page (default from CLEANOPS_PAGE_SIZE)")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by name, email, or id")
	showCmd.Flags().IntVar(&showPage, "page", 1, "Page of the related lists")
}

// runDashboard prints the summary and returns exit code
func runDashboard(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if !requireSession(w, e) {
			return exitRejected
		}
		d, err := resource.LoadDashboard(ctx, e.client)
		if err != nil {
			return apiFailure(ctx, w, err)
		}
		if IsJSONOutput() {
			printJSON(w, formatDashboardJSON(d))
		} else {
			fmt.Fprintln(w, formatDashboardHuman(d))
		}
		return exitOK
	})
}

type metricJSON struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change"`
}

type salesJSON struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

func formatDashboardJSON(d resource.Dashboard) map[string]any {
	metrics := make([]metricJSON, len(d.Metrics))
	for i, m := range d.Metrics {
		metrics[i] = metricJSON(m)
	}
	sales := make([]salesJSON, len(d.Sales))
	for i, p := range d.Sales {
		sales[i] = salesJSON(p)
	}
	return map[string]any{"metrics": metrics, "sales": sales}
}

// formatDashboardHuman formats the summary for human readability
func formatDashboardHuman(d resource.Dashboard) string {
	var sb strings.Builder
	for _, m := range d.Metrics {
		fmt.Fprintf(&sb, "%-16s %8s  (%s vs yesterday)\n", m.Label+":", m.Value, m.Change)
	}
	if len(d.Sales) > 0 {
		values := make([]float64, len(d.Sales))
		var total float64
		for i, p := range d.Sales {
			values[i] = p.Value
			total += p.Value
		}
		fmt.Fprintf(&sb, "\nService sales:   %s  %s-%s  total %.2f",
			widgets.Sparkline(values, max(len(values), 12), ""),
			d.Sales[0].Time, d.Sales[len(d.Sales)-1].Time, total)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// runList prints one page of a resource and returns exit code
func runList(ctx context.Context, w io.Writer, args []string) int {
	d, err := resource.Lookup(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if !requireSession(w, e) {
			return exitRejected
		}
		perPage := listPerPage
		if perPage <= 0 {
			perPage = e.cfg.PageSize
		}
		page, err := resource.List(ctx, e.client, d, resource.Query{Page: listPage, PerPage: perPage, Search: listSearch})
		if err != nil {
			return apiFailure(ctx, w, err)
		}
		if IsJSONOutput() {
			printJSON(w, formatPageJSON(page))
		} else {
			fmt.Fprintln(w, formatPageHuman(d, page))
		}
		return exitOK
	})
}

// pageJSON is the JSON form of a page; items are passed through unchanged
type pageJSON struct {
	Page     int               `json:"page"`
	LastPage int               `json:"last_page"`
	Total    int               `json:"total"`
	Stats    map[string]string `json:"stats,omitempty"`
	Items    []json.RawMessage `json:"items"`
}

func formatPageJSON(p resource.Page) pageJSON {
	out := pageJSON{
		Page:     p.CurrentPage,
		LastPage: p.LastPage,
		Total:    p.Total,
		Stats:    p.Stats,
		Items:    make([]json.RawMessage, len(p.Items)),
	}
	for i, rec := range p.Items {
		out.Items[i] = json.RawMessage(rec.Raw())
	}
	return out
}

// formatPageHuman renders the stats, a table of the descriptor's columns,
// and the page position
func formatPageHuman(d resource.Descriptor, p resource.Page) string {
	var sb strings.Builder

	var stats []string
	for _, s := range d.Stats {
		if v, ok := p.Stats[s.Key]; ok {
			stats = append(stats, fmt.Sprintf("%s: %s", s.Label, v))
		}
	}
	if len(stats) > 0 {
		sb.WriteString(strings.Join(stats, "   "))
		sb.WriteString("\n")
	}

	if len(p.Items) == 0 {
		sb.WriteString("No " + strings.ToLower(d.Title) + " found.\n")
	} else {
		headers := make([]string, len(d.Columns))
		for i, c := range d.Columns {
			headers[i] = c.Title
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(headers...)
		for _, rec := range p.Items {
			row := make([]string, len(d.Columns))
			for i, c := range d.Columns {
				row[i] = rec.Cell(c)
			}
			t.Row(row...)
		}
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Page %d of %d (%d total)", p.CurrentPage, p.LastPage, p.Total)
	return sb.String()
}

// runShow prints one record and returns exit code
func runShow(ctx context.Context, w io.Writer, args []string) int {
	d, err := resource.Lookup(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if !d.HasDetail() {
		fmt.Fprintf(w, "Error: %s have no detail view\n", d.Kind)
		return exitError
	}
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if !requireSession(w, e) {
			return exitRejected
		}
		rec, err := resource.Detail(ctx, e.client, d, args[1], showPage)
		if err != nil {
			return apiFailure(ctx, w, err)
		}
		pretty := gjson.Get(rec.Raw(), "@pretty").Raw
		if !IsJSONOutput() {
			fmt.Fprintf(w, "%s #%s\n", strings.TrimSuffix(d.Title, "s"), args[1])
		}
		fmt.Fprint(w, pretty)
		if !strings.HasSuffix(pretty, "\n") {
			fmt.Fprintln(w)
		}
		return exitOK
	})
}
