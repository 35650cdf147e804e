package chat

import (
	"errors"
	"strings"

	"github.com/routerllm/routerllm-tui/internal/backend"
	"github.com/routerllm/routerllm-tui/internal/models"
)

// Indicator texts used before a model has answered.
const (
	NoModelAvailable = "no model available"
	ErrorLoading     = "error loading"
)

// Indicator states beyond the real providers.
const (
	IndicatorNone  = "none"
	IndicatorError = "error"
)

var providerIcons = map[string]string{
	models.ProviderOpenAI:    "◎",
	models.ProviderAnthropic: "✻",
	models.ProviderGoogle:    "◆",
	IndicatorNone:            "⚠",
	IndicatorError:           "✗",
}

const fallbackIcon = "◇"

// QuickPrompts are canned messages offered on an empty conversation.
var QuickPrompts = []string{
	"Explain quantum computing in simple terms",
	"Write a Python function that reverses a string",
	"What are the benefits of unit testing?",
	"Translate 'good morning' into French, Spanish and German",
}

// ProviderForModel infers a provider from a model name.
func ProviderForModel(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "gpt"):
		return models.ProviderOpenAI
	case strings.Contains(lower, "claude"):
		return models.ProviderAnthropic
	case strings.Contains(lower, "gemini"):
		return models.ProviderGoogle
	default:
		return models.ProviderUnknown
	}
}

// ProviderIcon returns the glyph for a provider or indicator state.
func ProviderIcon(provider string) string {
	if icon, ok := providerIcons[provider]; ok {
		return icon
	}
	return fallbackIcon
}

// Indicator is what the model indicator shows.
type Indicator struct {
	Name     string
	Provider string
}

// InitialIndicator picks the indicator from the first catalog load.
func InitialIndicator(catalog models.ModelCatalog, err error) Indicator {
	if err != nil {
		return Indicator{Name: ErrorLoading, Provider: IndicatorError}
	}
	m, ok := catalog.FirstAvailable()
	if !ok {
		return Indicator{Name: NoModelAvailable, Provider: IndicatorNone}
	}
	provider := m.Provider
	if provider == "" {
		provider = ProviderForModel(m.Name)
	}
	return Indicator{Name: m.Name, Provider: provider}
}

// ErrorText renders a failed turn for the transcript.
func ErrorText(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return "Error: " + apiErr.Detail
		}
		return "Error: " + apiErr.Error()
	}
	if err == nil {
		return "Error: unknown error"
	}
	return "Connection error: " + err.Error()
}
