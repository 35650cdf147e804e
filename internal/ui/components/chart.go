// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/routerllm/routerllm-tui/internal/ui/styles"
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	// asciigraph needs two points to draw a line
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(4),
		asciigraph.Caption(caption),
	)
}

// UsageBar is one row of a horizontal bar chart.
type UsageBar struct {
	Label string
	Value int
}

// SortUsage turns a usage map into bars, largest first, ties by label.
func SortUsage(usage map[string]int) []UsageBar {
	bars := make([]UsageBar, 0, len(usage))
	for label, v := range usage {
		bars = append(bars, UsageBar{Label: label, Value: v})
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Label < bars[j].Label
	})
	return bars
}

// RenderBarChart creates a horizontal bar chart.
func RenderBarChart(bars []UsageBar, width int) string {
	if len(bars) == 0 {
		return styles.HelpStyle.Render("No usage yet")
	}

	maxVal := 0
	maxLabelLen := 0
	for _, b := range bars {
		maxVal = max(maxVal, b.Value)
		maxLabelLen = max(maxLabelLen, lipgloss.Width(b.Label))
	}
	if maxVal == 0 {
		maxVal = 1
	}

	barWidth := width - maxLabelLen - 10 // Leave room for label and value
	if barWidth < 10 {
		barWidth = 10
	}

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		paddedLabel := fmt.Sprintf("%*s", maxLabelLen, b.Label)

		barLen := max(b.Value*barWidth/maxVal, 0)
		bar := RenderGradientBar(100, barLen)

		lines = append(lines, paddedLabel+" │"+bar+fmt.Sprintf(" %d", b.Value))
	}

	return strings.Join(lines, "\n")
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Keep the most recent points when there are more than fit
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var result strings.Builder
	for _, val := range values {
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		normalized = min(max(normalized, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[normalized])
	}

	return lipgloss.NewStyle().Foreground(styles.Secondary).Render(result.String())
}
