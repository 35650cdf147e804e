package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/routerllm/routerllm-tui/internal/models"
	chatsvc "github.com/routerllm/routerllm-tui/internal/services/chat"
	"github.com/routerllm/routerllm-tui/internal/ui/components"
	"github.com/routerllm/routerllm-tui/internal/ui/styles"
)

// modelCardOuterWidth is ModelCardStyle's width plus border and margin.
const modelCardOuterWidth = 29

// View renders the dashboard component.
func (m *Model) View() string {
	if m.latest == nil {
		return m.renderLoading()
	}

	cardWidth := max(m.width-6, 40)

	sections := []string{
		m.renderTitle(),
		m.renderStats(),
		"",
		m.renderModels(cardWidth),
		m.renderCharts(cardWidth),
		m.renderActivity(cardWidth),
		m.renderTestRequest(cardWidth),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderLoading renders the state before the first poll cycle lands.
func (m *Model) renderLoading() string {
	barWidth := max(min(m.width-10, 60), 10)
	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.SubTitleStyle.Render("Waiting for the first poll..."),
		"",
		components.ShimmerBar(barWidth, m.frame),
	)
	return styles.CenterBoth(content, m.width, m.height)
}

// renderTitle renders the dashboard title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("RouterLLM Dashboard")
	online, known := m.state.Online()
	badge := components.OnlineBadge(online, known)

	subtitle := styles.HelpStyle.Render(fmt.Sprintf("Updated %s · cycle #%d",
		models.TimeAgo(m.latest.FinishedAt, m.now()), m.latest.Seq))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge)
	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

// renderStats renders the four headline counters.
func (m *Model) renderStats() string {
	stats := m.latest.Stats
	if stats == nil {
		msg := "Stats unavailable"
		if m.latest.StatsErr != nil {
			msg = "Stats unavailable: " + m.latest.StatsErr.Error()
		}
		return styles.ErrorTextStyle.Render("  ✗ " + msg)
	}

	mostUsed := stats.MostUsedModel
	if mostUsed == "" {
		mostUsed = "-"
	}

	statWidth := max((m.width-14)/4, 16)
	cards := []string{
		statCard("Total Requests", fmt.Sprintf("%d", stats.TotalRequests), statWidth),
		statCard("Total Cost", fmt.Sprintf("$%.4f", stats.TotalCost), statWidth),
		statCard("Avg Response", fmt.Sprintf("%.0fms", stats.AvgResponseTimeMs()), statWidth),
		statCard("Most Used", mostUsed, statWidth),
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if m.latest.StatsErr == nil {
		return row
	}
	return lipgloss.JoinVertical(lipgloss.Left, row,
		staleLine(stats.FetchedAt, m.latest.StatsErr, m.now()))
}

// staleLine notes that the values above come from an earlier cycle.
func staleLine(fetchedAt time.Time, err error, now time.Time) string {
	since := "an earlier cycle"
	if !fetchedAt.IsZero() {
		since = models.TimeAgo(fetchedAt, now)
	}
	return styles.WarningTextStyle.Render(fmt.Sprintf("  ⚠ Showing data from %s: %v", since, err))
}

func statCard(label, value string, width int) string {
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render(label),
		styles.ValueStyle.Bold(true).Render(value),
	))
}

// renderModels renders the model grid card.
func (m *Model) renderModels(cardWidth int) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")

	if m.latest.Models == nil {
		msg := "Models unavailable"
		if m.latest.ModelsErr != nil {
			msg += ": " + m.latest.ModelsErr.Error()
		}
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Models")),
			styles.ErrorTextStyle.Render(msg),
		))
	}

	grid, active := RenderModels(m.latest.Models, cardWidth-4)
	title := fmt.Sprintf("%s %s %s", titleIcon,
		styles.CardTitleStyle.Render("Models"),
		styles.HelpStyle.Render(fmt.Sprintf("%d/%d active", active, len(m.latest.Models))))
	if m.latest.ModelsErr != nil {
		title += " " + styles.WarningTextStyle.Render("(stale: "+m.latest.ModelsErr.Error()+")")
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", grid))
}

// RenderModels rebuilds the whole model grid from the catalog and counts the
// available models while doing so.
func RenderModels(catalog models.ModelCatalog, width int) (string, int) {
	if len(catalog) == 0 {
		return styles.HelpStyle.Render("No models configured"), 0
	}

	perRow := max(width/modelCardOuterWidth, 1)
	active := 0

	var rows []string
	var row []string
	for _, info := range catalog.Sorted() {
		if info.Available {
			active++
		}
		row = append(row, modelCard(info))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...), active
}

func modelCard(info models.ModelInfo) string {
	provider := info.Provider
	if provider == "" {
		provider = chatsvc.ProviderForModel(info.Name)
	}

	style := styles.ModelCardStyle
	status := styles.ErrorTextStyle.Render("✗ Unavailable")
	if info.Available {
		style = styles.ModelCardActiveStyle
		status = styles.SuccessTextStyle.Render("✓ Available")
	}

	name := styles.ProviderStyle(provider).Bold(true).Render(chatsvc.ProviderIcon(provider) + " " + info.Name)
	details := styles.HelpStyle.Render(fmt.Sprintf("%s · $%.4f/1k", orDash(info.Speed), info.CostPer1kTokens))

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, name, details, status))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// renderCharts renders usage and history charts.
func (m *Model) renderCharts(cardWidth int) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	inner := cardWidth - 4

	var usage map[string]int
	if m.latest.Stats != nil {
		usage = m.latest.Stats.ModelUsage
	}

	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Model Usage")),
		components.RenderBarChart(components.SortUsage(usage), inner),
		"",
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Cost History")),
		components.RenderLineChart(m.costHistory, max(inner-12, 10), 6, "total cost ($)"),
	}

	if len(m.usageHistory) > 0 && m.latest.Stats != nil {
		label := styles.HelpStyle.Render(m.latest.Stats.MostUsedModel + " requests ")
		rows = append(rows, "", label+components.RenderSparkline(m.usageHistory, max(inner-30, 10)))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderActivity renders the recent activity feed.
func (m *Model) renderActivity(cardWidth int) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Recent Activity"))}

	activities := m.latest.Activities
	if len(activities) > models.MaxActivities {
		activities = activities[:models.MaxActivities]
	}

	if len(activities) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No recent activity"))
	}

	now := m.now()
	for _, a := range activities {
		icon := activityIcon(a.Kind)
		line := fmt.Sprintf("  %s %s %s",
			styles.ActivityStyle(a.Kind).Render(icon),
			lipgloss.NewStyle().Bold(true).Render(a.Title),
			styles.HelpStyle.Render(models.TimeAgo(a.At, now)))
		rows = append(rows, line)
		if a.Description != "" {
			rows = append(rows, styles.HelpStyle.Render("    "+a.Description))
		}
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func activityIcon(kind models.ActivityKind) string {
	switch kind {
	case models.ActivitySuccess:
		return "✓"
	case models.ActivityError:
		return "✗"
	default:
		return "ℹ"
	}
}

// renderTestRequest renders the test request panel.
func (m *Model) renderTestRequest(cardWidth int) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")

	inputStyle := styles.BlurredBorderStyle
	if m.input.Focused() {
		inputStyle = styles.FocusedBorderStyle
	}

	model := m.ForceModel()
	if model == "" {
		model = autoModel
	}

	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Test Request")),
		inputStyle.Width(cardWidth - 8).Render(m.input.View()),
		styles.LabelStyle.Render("Force model:") + styles.ValueStyle.Render(model),
	}

	switch {
	case m.testing:
		rows = append(rows, "", m.spinner.ViewWithLabel())
	case m.testErr != nil:
		rows = append(rows, "", styles.ErrorTextStyle.Render(chatsvc.ErrorText(m.testErr)))
	case m.testResult != nil:
		rows = append(rows, "", renderTestResult(m.testResult, cardWidth-8))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderTestResult(r *models.ChatResult, width int) string {
	row := func(label, value string) string {
		return styles.LabelStyle.Render(label) + styles.ValueStyle.Render(value)
	}

	lines := []string{
		styles.SuccessTextStyle.Render("✓ Test completed"),
		row("Model:", r.ModelUsed),
		row("Cost:", fmt.Sprintf("$%.6f", r.CostEstimate)),
		row("Response time:", fmt.Sprintf("%.2fs", r.ResponseTime)),
		row("Round trip:", fmt.Sprintf("%dms", r.RoundTrip.Milliseconds())),
		row("Tokens:", fmt.Sprintf("%d", r.TokensUsed)),
	}
	if r.Reasoning != "" {
		lines = append(lines, row("Reasoning:", ""), styles.HelpStyle.Width(width).Render(r.Reasoning))
	}
	lines = append(lines, "", lipgloss.NewStyle().Width(width).Render(strings.TrimSpace(Preview(r.Response))))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
