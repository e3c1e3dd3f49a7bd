// ABOUTME: Sparkline of the dashboard's service sales series
// ABOUTME: Bars grow from zero so an hour without sales stays blank

package widgets

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// barLevels index 0 is an hour without sales
var barLevels = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline renders sales amounts as bars scaled against the busiest
// column. Any positive amount gets at least the lowest bar; negative
// amounts (refund-heavy hours) render as empty. When width is smaller than
// the series, neighbouring samples are summed into one column.
func Sparkline(values []float64, width int, color lipgloss.Color) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	columns := resample(values, width)
	var peak float64
	for _, v := range columns {
		peak = max(peak, v)
	}

	top := len(barLevels) - 1
	bars := make([]rune, len(columns))
	for i, v := range columns {
		level := 0
		if v > 0 && peak > 0 {
			level = min(int(math.Ceil(v/peak*float64(top))), top)
		}
		bars[i] = barLevels[level]
	}

	style := lipgloss.NewStyle()
	if color != "" {
		style = style.Foreground(color)
	}
	return style.Render(string(bars))
}

// resample maps the series onto width columns. Column i covers samples
// [i*n/width, (i+1)*n/width); a column narrower than one sample repeats
// the sample it falls in, a wider one holds the sum of its samples.
func resample(values []float64, width int) []float64 {
	n := len(values)
	out := make([]float64, width)
	for i := range out {
		start, end := i*n/width, (i+1)*n/width
		if end <= start {
			out[i] = values[min(start, n-1)]
			continue
		}
		for _, v := range values[start:end] {
			out[i] += v
		}
	}
	return out
}
