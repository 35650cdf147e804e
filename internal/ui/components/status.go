package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
	"github.com/routerllm/routerllm-tui/internal/ui/styles"
)

// StatusDot renders a colored connection dot with a label.
func StatusDot(connected bool, label string) string {
	if connected {
		return styles.SuccessTextStyle.Render("● " + label)
	}
	return styles.ErrorTextStyle.Render("○ " + label)
}

// OnlineBadge renders the router connectivity indicator. known is false until
// the first poll cycle completes.
func OnlineBadge(online, known bool) string {
	switch {
	case !known:
		return styles.HelpStyle.Render("◌ Connecting...")
	case online:
		return StatusDot(true, "Online")
	default:
		return StatusDot(false, "Offline")
	}
}

// AggregateBadge renders the connected-providers summary line.
func AggregateBadge(status models.AggregateStatus, connected, total int) string {
	icon := "✗"
	switch status {
	case models.AllConnected:
		icon = "✓"
	case models.PartiallyConnected:
		icon = "◐"
	}
	return styles.AggregateStyle(status).Bold(true).Render(icon + " " + status.Label(connected, total))
}

// RenderGradientBar renders a bar of width cells, percent filled, shaded from
// the primary to the secondary brand color.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#7D56F4", "#48CAE4", t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}

	return b.String()
}

// ShimmerBar renders an indeterminate loading bar for the given animation frame.
func ShimmerBar(width, frame int) string {
	if width < 1 {
		return ""
	}

	const cycle = 120
	t := float64(frame%cycle) / float64(cycle)
	var p float64
	if t < 0.5 {
		p = t * 2
	} else {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(width))

	var b strings.Builder
	for i := 0; i < width; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgAccent).Render("░"))
		}
	}

	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
