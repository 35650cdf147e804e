package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/routerllm/routerllm-tui/internal/models"
	chatsvc "github.com/routerllm/routerllm-tui/internal/services/chat"
	"github.com/routerllm/routerllm-tui/internal/ui/styles"
)

// View renders the chat tab.
func (m *Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderTotals(),
		"",
	}

	if len(m.session.Turns()) == 0 {
		sections = append(sections, m.renderQuickPrompts())
	} else {
		sections = append(sections, m.viewport.View())
	}

	if m.session.State() == chatsvc.AwaitingResponse {
		sections = append(sections, m.spinner.ViewWithLabel())
	}

	sections = append(sections, m.renderInput())

	return styles.DocStyle.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Chat")
	icon := chatsvc.ProviderIcon(m.indicator.Provider)
	indicator := styles.ProviderStyle(m.indicator.Provider).Render(icon + " " + m.indicator.Name)
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", indicator)
}

func (m *Model) renderTotals() string {
	totals := m.session.Totals()
	parts := []string{
		styles.HelpStyle.Render("Messages: ") + styles.ValueStyle.Render(fmt.Sprintf("%d", totals.MessageCount)),
		styles.HelpStyle.Render("Cost: ") + styles.ValueStyle.Render(fmt.Sprintf("$%.6f", totals.TotalCost)),
		styles.HelpStyle.Render("Avg: ") + styles.ValueStyle.Render(fmt.Sprintf("%.1fs", totals.AvgTime())),
		styles.HelpStyle.Render("Tokens: ") + styles.ValueStyle.Render(fmt.Sprintf("%d", totals.TotalTokens)),
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderQuickPrompts() string {
	rows := []string{
		styles.SubTitleStyle.Render("Try one of these"),
		"",
	}
	for i, prompt := range chatsvc.QuickPrompts {
		if i == m.prompt {
			rows = append(rows, styles.FocusedStyle.Render("▸ "+prompt))
			continue
		}
		rows = append(rows, styles.BlurredStyle.Render("  "+prompt))
	}
	rows = append(rows, "", styles.HelpStyle.Render("↑/↓ choose · enter send · i type your own"))

	height := max(m.viewport.Height, len(rows))
	return lipgloss.NewStyle().Height(height).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderInput() string {
	border := styles.BlurredBorderStyle
	if m.input.Focused() {
		border = styles.FocusedBorderStyle
	}
	return border.Width(max(m.width-6, 20)).Render(m.input.View())
}

// refreshTranscript re-renders the transcript into the viewport and keeps
// the newest turn in sight.
func (m *Model) refreshTranscript() {
	turns := m.session.Turns()
	width := max(m.viewport.Width-4, 16)

	rendered := make([]string, 0, len(turns))
	for _, turn := range turns {
		rendered = append(rendered, renderTurn(turn, width))
	}

	m.viewport.SetContent(strings.Join(rendered, "\n\n"))
	m.viewport.GotoBottom()
}

func renderTurn(turn models.ChatTurn, width int) string {
	stamp := styles.MetaStyle.Render(turn.At.Format("15:04:05"))

	switch {
	case turn.Role == models.RoleUser:
		body := styles.UserBubbleStyle.Width(width).Render(turn.Text)
		return lipgloss.JoinVertical(lipgloss.Left, styles.HelpKeyStyle.Render("You")+" "+stamp, body)

	case turn.IsError:
		body := styles.ErrorBubbleStyle.Width(width).Render(turn.Text)
		return lipgloss.JoinVertical(lipgloss.Left, styles.ErrorTextStyle.Render("Router")+" "+stamp, body)
	}

	provider := chatsvc.ProviderForModel(turn.ModelUsed)
	name := styles.ProviderStyle(provider).Render(chatsvc.ProviderIcon(provider) + " " + turn.ModelUsed)

	lines := []string{
		name + " " + stamp,
		styles.AssistantBubbleStyle.Width(width).Render(turn.Text),
		styles.MetaStyle.Render(turnMeta(turn)),
	}
	if turn.Reasoning != "" {
		lines = append(lines, styles.MetaStyle.Width(width).Render("Why: "+turn.Reasoning))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func turnMeta(turn models.ChatTurn) string {
	return fmt.Sprintf("%s · $%.6f · %.2fs · %d tokens",
		turn.ModelUsed, turn.CostEstimate, turn.ResponseTime, turn.TokensUsed)
}
