// ABOUTME: Tests for dashboard widgets
// ABOUTME: Covers sparkline sampling, status levels, and metric block layout

package widgets

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/cleanops-admin/internal/tui/icons"
)

func TestSparklineWidth(t *testing.T) {
	got := Sparkline([]float64{1, 5, 3}, 12, "")
	if n := utf8.RuneCountInString(got); n != 12 {
		t.Errorf("expected 12 blocks, got %d (%q)", n, got)
	}
	if got != "▂▂▂▂████▅▅▅▅" {
		t.Errorf("unexpected bars %q", got)
	}
}

func TestSparklineEmpty(t *testing.T) {
	if got := Sparkline(nil, 10, ""); got != "" {
		t.Errorf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{1}, 0, ""); got != "" {
		t.Errorf("expected empty sparkline for zero width, got %q", got)
	}
}

func TestSparklineScalesFromZero(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"flat series is full height", []float64{4, 4, 4}, "███"},
		{"hour without sales is blank", []float64{0, 2, 4}, " ▄█"},
		{"small sale still shows", []float64{0.01, 100}, "▁█"},
		{"negative hour is blank", []float64{-5, 10}, " █"},
		{"no sales at all", []float64{0, 0}, "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sparkline(tt.values, len(tt.values), ""); got != tt.want {
				t.Errorf("Sparkline(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestResample(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   []float64
	}{
		{"stretches", []float64{1, 2}, 4, []float64{1, 1, 2, 2}},
		{"sums into fewer columns", []float64{1, 2, 3, 4}, 2, []float64{3, 7}},
		{"keeps equal width", []float64{5, 6}, 2, []float64{5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resample(tt.values, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("resample = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("resample = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := map[string]StatusLevel{
		"approved":    StatusOK,
		"Completed":   StatusOK,
		"pending":     StatusWarning,
		" processing": StatusWarning,
		"rejected":    StatusCritical,
		"refunded":    StatusCritical,
		"":            StatusNeutral,
		"scheduled":   StatusInfo,
	}
	for status, want := range tests {
		if got := LevelForStatus(status); got != want {
			t.Errorf("LevelForStatus(%q) = %d, want %d", status, got, want)
		}
	}
}

func TestStatusBadge(t *testing.T) {
	if got := StatusBadge("pending"); !strings.Contains(got, "PENDING") {
		t.Errorf("expected upper-cased status, got %q", got)
	}
	if got := StatusBadge(""); !strings.Contains(got, "--") {
		t.Errorf("expected placeholder for empty status, got %q", got)
	}
}

func TestChangeIndicator(t *testing.T) {
	if got := ChangeIndicator("+5%", false); !strings.Contains(got, icons.TrendUp.String()+" +5%") {
		t.Errorf("expected up arrow, got %q", got)
	}
	if got := ChangeIndicator("-3%", true); !strings.Contains(got, icons.TrendDown.String()+" -3%") {
		t.Errorf("expected down arrow, got %q", got)
	}
	if got := ChangeIndicator("0%", false); !strings.Contains(got, "→ 0%") {
		t.Errorf("expected flat arrow, got %q", got)
	}
}

func TestMetricBlock(t *testing.T) {
	cfg := DefaultMetricBlockConfig()
	block := MetricBlock(icons.Customer, "Customers", "120", "+4% vs yesterday", cfg)

	lines := strings.Split(block, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != cfg.Width {
			t.Errorf("line %d width = %d, want %d: %q", i, w, cfg.Width, line)
		}
	}
	if !strings.Contains(block, "Customers") || !strings.Contains(block, "120") {
		t.Errorf("expected title and value in block:\n%s", block)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Pending approval requests", 10); got != "Pending..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate = %q", got)
	}
}
