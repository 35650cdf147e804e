// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/routerllm/routerllm-tui/internal/models"
)

// Color definitions. Every color adapts to the active light/dark theme.
var (
	// Primary colors
	Primary   = lipgloss.AdaptiveColor{Light: "#5A3FD6", Dark: "#7D56F4"}
	Secondary = lipgloss.AdaptiveColor{Light: "#0077B6", Dark: "#48CAE4"}
	Subtle    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	// Provider colors
	OpenAI    = lipgloss.AdaptiveColor{Light: "#0E8A6A", Dark: "#10A37F"}
	Anthropic = lipgloss.AdaptiveColor{Light: "#C2571A", Dark: "#D97757"}
	Google    = lipgloss.AdaptiveColor{Light: "#1A5FD0", Dark: "#4285F4"}

	// Status colors
	Success = lipgloss.AdaptiveColor{Light: "#04875A", Dark: "#04B575"}
	Error   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}
	Warning = lipgloss.AdaptiveColor{Light: "#C76A00", Dark: "#FFB347"}
	Info    = lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	// Background colors
	BgPanel  = lipgloss.AdaptiveColor{Light: "#F2F2F7", Dark: "#1E1E2E"}
	BgAccent = lipgloss.AdaptiveColor{Light: "#E4E4EE", Dark: "#2A2A3C"}

	// Text colors
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#E4E4E4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#4A4A4A", Dark: "#A8A8A8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// ApplyTheme switches every adaptive color to the given theme.
func ApplyTheme(theme models.Theme) {
	lipgloss.SetHasDarkBackground(theme != models.ThemeLight)
}

// CurrentTheme reports the theme the renderer is using.
func CurrentTheme() models.Theme {
	if lipgloss.HasDarkBackground() {
		return models.ThemeDark
	}
	return models.ThemeLight
}

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// FocusedStyle is used for focused input elements.
var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// BlurredStyle is used for unfocused input elements.
var BlurredStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// FocusedBorderStyle creates a focused border.
var FocusedBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1)

// BlurredBorderStyle creates an unfocused border.
var BlurredBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1)

// NotificationBaseStyle is the base for all notification types.
var NotificationBaseStyle = lipgloss.NewStyle().
	Padding(0, 2).
	MarginBottom(1).
	Border(lipgloss.RoundedBorder())

// NotificationSuccessStyle for success notifications.
var NotificationSuccessStyle = NotificationBaseStyle.
	BorderForeground(Success).
	Foreground(Success)

// NotificationErrorStyle for error notifications.
var NotificationErrorStyle = NotificationBaseStyle.
	BorderForeground(Error).
	Foreground(Error)

// NotificationWarningStyle for warning notifications.
var NotificationWarningStyle = NotificationBaseStyle.
	BorderForeground(Warning).
	Foreground(Warning)

// NotificationInfoStyle for info notifications.
var NotificationInfoStyle = NotificationBaseStyle.
	BorderForeground(Info).
	Foreground(Info)

// LabelStyle styles field labels in key/value rows.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(20)

// ValueStyle styles values in key/value rows.
var ValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpDescStyle styles help descriptions.
var HelpDescStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgPanel)

// UserBubbleStyle renders user chat turns.
var UserBubbleStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Foreground(TextPrimary).
	Padding(0, 1)

// AssistantBubbleStyle renders assistant chat turns.
var AssistantBubbleStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Foreground(TextPrimary).
	Padding(0, 1)

// ErrorBubbleStyle renders failed assistant turns.
var ErrorBubbleStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Error).
	Foreground(Error).
	Padding(0, 1)

// MetaStyle styles the metadata line under a chat turn.
var MetaStyle = lipgloss.NewStyle().
	Foreground(TextMuted).
	Italic(true)

// ModelCardStyle frames one entry in the model grid.
var ModelCardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1).
	MarginRight(1).
	Width(26)

// ModelCardActiveStyle frames an available model.
var ModelCardActiveStyle = ModelCardStyle.
	BorderForeground(Success)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// ButtonStyle is the base button style.
var ButtonStyle = lipgloss.NewStyle().
	Padding(0, 2).
	MarginRight(1)

// ButtonActiveStyle styles active/focused buttons.
var ButtonActiveStyle = ButtonStyle.
	Background(Primary).
	Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFDF5"}).
	Bold(true)

// ButtonInactiveStyle styles idle buttons.
var ButtonInactiveStyle = ButtonStyle.
	Background(BgAccent).
	Foreground(TextSecondary)

// ProviderStyle returns the brand style for a provider.
func ProviderStyle(provider string) lipgloss.Style {
	switch provider {
	case models.ProviderOpenAI:
		return lipgloss.NewStyle().Foreground(OpenAI)
	case models.ProviderAnthropic:
		return lipgloss.NewStyle().Foreground(Anthropic)
	case models.ProviderGoogle:
		return lipgloss.NewStyle().Foreground(Google)
	default:
		return lipgloss.NewStyle().Foreground(TextSecondary)
	}
}

// AggregateStyle returns the style for an aggregate connection status.
func AggregateStyle(status models.AggregateStatus) lipgloss.Style {
	switch status {
	case models.AllConnected:
		return SuccessTextStyle
	case models.PartiallyConnected:
		return WarningTextStyle
	default:
		return ErrorTextStyle
	}
}

// ActivityStyle returns the style for an activity kind.
func ActivityStyle(kind models.ActivityKind) lipgloss.Style {
	switch kind {
	case models.ActivitySuccess:
		return SuccessTextStyle
	case models.ActivityError:
		return ErrorTextStyle
	default:
		return InfoTextStyle
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
