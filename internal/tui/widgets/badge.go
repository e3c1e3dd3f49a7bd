// ABOUTME: Status badge widgets for quick visual status indication
// ABOUTME: Maps record statuses and day-over-day changes to colored badges

package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/cleanops-admin/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeInfoBg    = lipgloss.Color("#3B82F6")
	BadgeInfoFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	var bg, fg lipgloss.Color

	switch level {
	case StatusOK:
		bg, fg = BadgeOKBg, BadgeOKFg
	case StatusWarning:
		bg, fg = BadgeWarnBg, BadgeWarnFg
	case StatusCritical:
		bg, fg = BadgeCritBg, BadgeCritFg
	case StatusInfo:
		bg, fg = BadgeInfoBg, BadgeInfoFg
	default:
		bg, fg = BadgeNeutralBg, BadgeNeutralFg
	}

	style := lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true)

	return style.Render(text)
}

// LevelForStatus maps a backend status word to a level
func LevelForStatus(status string) StatusLevel {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved", "completed", "sent", "active", "yes":
		return StatusOK
	case "pending", "processing":
		return StatusWarning
	case "rejected", "refunded", "deactivated", "failed":
		return StatusCritical
	case "":
		return StatusNeutral
	default:
		return StatusInfo
	}
}

// StatusBadge renders a backend status word as a badge
func StatusBadge(status string) string {
	if status == "" {
		return Badge("--", StatusNeutral)
	}
	return Badge(strings.ToUpper(status), LevelForStatus(status))
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	switch level {
	case StatusOK:
		return lipgloss.NewStyle().Foreground(BadgeOKBg).Render(icons.CheckOK.String())
	case StatusWarning:
		return lipgloss.NewStyle().Foreground(BadgeWarnBg).Render(icons.Warning.String())
	case StatusCritical:
		return lipgloss.NewStyle().Foreground(BadgeCritBg).Render(icons.Critical.String())
	case StatusInfo:
		return lipgloss.NewStyle().Foreground(BadgeInfoBg).Render(icons.Info.String())
	default:
		return lipgloss.NewStyle().Foreground(BadgeNeutralBg).Render("•")
	}
}

// ChangeIndicator renders a change such as "+5%" with a trend arrow.
// Growth is good for most metrics; invert flips that for ones like reports.
func ChangeIndicator(change string, invert bool) string {
	change = strings.TrimSpace(change)
	var level StatusLevel
	var arrow string
	switch {
	case strings.HasPrefix(change, "+"):
		level, arrow = StatusOK, icons.TrendUp.String()
	case strings.HasPrefix(change, "-"):
		level, arrow = StatusWarning, icons.TrendDown.String()
	default:
		return lipgloss.NewStyle().Foreground(BadgeNeutralBg).Render("→ " + change)
	}
	if invert {
		if level == StatusOK {
			level = StatusWarning
		} else {
			level = StatusOK
		}
	}

	color := BadgeOKBg
	if level == StatusWarning {
		color = BadgeWarnBg
	}
	return lipgloss.NewStyle().Foreground(color).Render(arrow + " " + change)
}
