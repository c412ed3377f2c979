package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
)

var (
	MetricLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)
)

func panel(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(0, 1)
}

func header(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(t.Muted)
}

// Metric renders "label value" with the value in the current theme.
func Metric(label, value string) string {
	v := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
	return MetricLabel.Render(label+" ") + v.Render(value)
}

var bars = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values in width cells, averaging the samples that fall in
// each cell. The top third uses the theme accent.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	cells := min(width, len(values))
	buckets := make([]float64, cells)
	for i := range buckets {
		lo := i * len(values) / cells
		hi := max((i+1)*len(values)/cells, lo+1)
		buckets[i] = floats.Sum(values[lo:hi]) / float64(hi-lo)
	}

	lo, hi := floats.Min(buckets), floats.Max(buckets)
	span := hi - lo
	if span == 0 {
		span = 1
	}

	high := lipgloss.NewStyle().Foreground(CurrentTheme.Accent)
	rest := lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
	var b strings.Builder
	for _, v := range buckets {
		norm := (v - lo) / span
		bar := string(bars[int(norm*float64(len(bars)-1)+0.5)])
		if norm > 2.0/3 {
			b.WriteString(high.Render(bar))
		} else {
			b.WriteString(rest.Render(bar))
		}
	}
	return b.String()
}
