package keys

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/routerllm/routerllm-tui/internal/models"
	"github.com/routerllm/routerllm-tui/internal/ui/components"
	"github.com/routerllm/routerllm-tui/internal/ui/styles"
)

// View renders the keys tab.
func (m *Model) View() string {
	cardWidth := max(m.width-6, 40)

	sections := []string{
		m.renderHeader(),
		styles.CardStyle.Width(cardWidth).Render(m.table.View()),
		m.renderInputs(cardWidth),
		m.renderActions(),
	}

	if m.busy != "" {
		sections = append(sections, "", m.spinner.View()+" "+styles.HelpStyle.Render(m.busy))
	}

	return styles.DocStyle.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("API Keys")

	var badge string
	switch {
	case m.status != nil:
		badge = components.AggregateBadge(m.status.Aggregate, m.status.Connected, m.status.Total)
	case m.loadErr == nil:
		badge = m.spinner.View() + " " + styles.HelpStyle.Render(m.spinner.Label())
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge)
	subtitle := styles.HelpStyle.Render("Provider keys are stored by the router")
	lines := []string{header, subtitle}
	if m.loadErr != nil {
		lines = append(lines, styles.ErrorTextStyle.Render("✗ Status unavailable: "+m.loadErr.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

func (m *Model) renderInputs(cardWidth int) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Enter Keys")), ""}

	selected := m.Selected()
	for _, provider := range models.Providers {
		connected := false
		if m.status != nil {
			if p, ok := m.status.Provider(provider); ok {
				connected = p.Available
			}
		}

		prefix := "  "
		if provider == selected {
			prefix = styles.FocusedStyle.Render("▸ ")
		}

		label := styles.LabelStyle.Render(components.StatusDot(connected, DisplayName(provider)))

		border := styles.BlurredBorderStyle
		if m.editing && provider == selected {
			border = styles.FocusedBorderStyle
		}
		input := border.Render(m.inputs[provider].View())

		eye := styles.HelpStyle.Render("hidden")
		if m.visible[provider] {
			eye = styles.WarningTextStyle.Render("visible")
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center, prefix, label, input, " ", eye))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderActions() string {
	if m.editing {
		return styles.HelpStyle.Render("enter save · tab next field · esc done")
	}
	button := styles.ButtonInactiveStyle
	return lipgloss.JoinHorizontal(lipgloss.Left,
		styles.ButtonActiveStyle.Render("enter Edit"),
		button.Render("x Test"),
		button.Render("s Save"),
		button.Render("a Save all"),
		button.Render("v Show/Hide"),
	)
}
