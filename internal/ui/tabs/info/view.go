package info

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/routerllm/routerllm-tui/internal/ui/styles"
	"github.com/routerllm/routerllm-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())

	sections = append(sections, m.renderConfigCard())

	sections = append(sections, m.renderServerCard())

	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, router and version information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderConfigCard renders the active configuration.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		notifications := "off"
		if m.config.DesktopNotifications {
			notifications = "on"
		}
		rows = append(rows, m.renderConfigRow("Router URL", m.config.RouterURL))
		rows = append(rows, m.renderConfigRow("Poll Interval", m.config.PollInterval.String()))
		rows = append(rows, m.renderConfigRow("Request Timeout", m.config.RequestTimeout.String()))
		rows = append(rows, m.renderConfigRow("Chat User", m.config.ChatUserID))
		rows = append(rows, m.renderConfigRow("Database", m.config.DatabasePath))
		rows = append(rows, m.renderConfigRow("Preferences", m.config.PreferencesPath))
		rows = append(rows, m.renderConfigRow("Log File", m.config.LogPath))
		rows = append(rows, m.renderConfigRow("Notifications", notifications))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderServerCard renders what the router reports about itself.
func (m *Model) renderServerCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Router"))
	rows = append(rows, "")

	switch {
	case m.serverErr != nil:
		rows = append(rows, styles.ErrorTextStyle.Render("✗ "+m.serverErr.Error()))
	case m.server == nil:
		rows = append(rows, styles.HelpStyle.Render("Loading..."))
	default:
		s := m.server
		rows = append(rows, m.renderConfigRow("Status", s.Status))
		rows = append(rows, m.renderConfigRow("Version", s.Version))
		rows = append(rows, m.renderConfigRow("Default Model", s.DefaultModel))
		rows = append(rows, m.renderConfigRow("Models", fmt.Sprintf("%d configured / %d total", s.ModelsConfigured, s.TotalModels)))
		if len(s.AvailableProviders) > 0 {
			rows = append(rows, m.renderConfigRow("Providers", strings.Join(s.AvailableProviders, ", ")))
		}
		if s.Message != "" {
			rows = append(rows, "", styles.HelpStyle.Render(s.Message))
		}
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Press 'l' to reload"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	if value == "" {
		value = "-"
	}
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About "+version.Name))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.GetVersion()))
	rows = append(rows, m.renderConfigRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderConfigRow("Git Commit", version.GetCommit()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	rows = append(rows, m.renderConfigRow("Session", m.sessionID))
	rows = append(rows, m.renderConfigRow("Theme", string(m.state.Theme())))
	rows = append(rows, "")

	snapshots := "-"
	if m.snapshots >= 0 {
		snapshots = fmt.Sprintf("%d", m.snapshots)
	}
	rows = append(rows, fmt.Sprintf("Snapshots recorded: %s", styles.InfoTextStyle.Render(snapshots)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
