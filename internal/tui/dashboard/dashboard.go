// ABOUTME: Dashboard component with headline metrics, the sales trend, and pending work
// ABOUTME: Renders the summary loaded concurrently by the app

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/cleanops-admin/internal/resource"
	"github.com/markalston/cleanops-admin/internal/tui/icons"
	"github.com/markalston/cleanops-admin/internal/tui/styles"
	"github.com/markalston/cleanops-admin/internal/tui/widgets"
)

// Data is everything the dashboard shows
type Data struct {
	Summary     resource.Dashboard
	Requests    resource.Page
	Withdrawals resource.Page
}

// Dashboard displays the landing summary
type Dashboard struct {
	data   *Data
	width  int
	height int
}

// New creates a dashboard; nil data shows a loading state
func New(data *Data, width, height int) *Dashboard {
	return &Dashboard{data: data, width: width, height: height}
}

// Update replaces the displayed data
func (d *Dashboard) Update(data *Data) {
	d.data = data
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

var metricIcons = map[string]icons.Icon{
	"total_customers": icons.Customer,
	"total_cleaners":  icons.Cleaner,
	"total_bookings":  icons.Booking,
	"reported_users":  icons.Report,
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.data == nil {
		return lipgloss.NewStyle().Width(d.width).Render("Loading dashboard...")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Overview"))
	sb.WriteString("\n")

	cfg := widgets.DefaultMetricBlockConfig()
	var blocks []string
	for _, m := range d.data.Summary.Metrics {
		icon, ok := metricIcons[m.Key]
		if !ok {
			icon = icons.Info
		}
		change := widgets.ChangeIndicator(m.Change, m.Key == "reported_users") + " vs yesterday"
		blocks = append(blocks, widgets.MetricBlock(icon, m.Label, m.Value, change, cfg))
	}
	sb.WriteString(d.layoutBlocks(blocks, cfg.Width))
	sb.WriteString("\n\n")

	if sales := d.data.Summary.Sales; len(sales) > 0 {
		values := make([]float64, len(sales))
		for i, p := range sales {
			values[i] = p.Value
		}
		width := min(max(len(values), 24), 48)
		sb.WriteString(fmt.Sprintf("%s Service sales  %s  %s–%s\n\n",
			icons.Chart.String(),
			widgets.Sparkline(values, width, styles.Primary),
			sales[0].Time, sales[len(sales)-1].Time))
	}

	sb.WriteString(d.pending(icons.Request, "Pending approval requests", d.data.Requests, "name", "email", ""))
	sb.WriteString("\n")
	sb.WriteString(d.pending(icons.Money, "Withdrawals", d.data.Withdrawals, "user.name", "amount", "status"))

	return lipgloss.NewStyle().Width(d.width).Render(sb.String())
}

// layoutBlocks places metric blocks side by side, wrapping to fit the width
func (d *Dashboard) layoutBlocks(blocks []string, blockWidth int) string {
	perRow := 4
	if d.width > 0 {
		perRow = max(1, d.width/(blockWidth+1))
	}
	var rows []string
	for i := 0; i < len(blocks); i += perRow {
		end := min(i+perRow, len(blocks))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (d *Dashboard) pending(icon icons.Icon, title string, page resource.Page, primary, secondary, status string) string {
	var sb strings.Builder
	sb.WriteString(styles.ValueStyle.Render(fmt.Sprintf("%s %s (%d)", icon.String(), title, page.Total)))
	sb.WriteString("\n")
	if len(page.Items) == 0 {
		sb.WriteString(styles.LabelStyle.Render("  Nothing waiting"))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, rec := range page.Items {
		line := fmt.Sprintf("  %-24s %s", rec.Get(primary), styles.LabelStyle.Render(rec.Get(secondary)))
		if status != "" {
			line += " " + widgets.StatusBadge(rec.Get(status))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
