package models

import "fmt"

// Provider names known to the router.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderUnknown   = "unknown"
)

// Providers lists the configurable providers in display order.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}

// ProviderStatus is the connection state of one provider's API key.
type ProviderStatus struct {
	Provider  string `json:"-"`
	Key       string `json:"key"`
	Available bool   `json:"available"`
}

// AggregateStatus summarizes how many providers are connected.
type AggregateStatus int

// Aggregate states.
const (
	NoneConnected AggregateStatus = iota
	PartiallyConnected
	AllConnected
)

// Aggregate classifies k connected providers out of n.
func Aggregate(k, n int) AggregateStatus {
	switch {
	case k <= 0 || n <= 0:
		return NoneConnected
	case k >= n:
		return AllConnected
	default:
		return PartiallyConnected
	}
}

// Label returns the human-readable status line.
func (a AggregateStatus) Label(k, n int) string {
	switch a {
	case AllConnected:
		return fmt.Sprintf("All APIs connected (%d/%d)", k, n)
	case PartiallyConnected:
		return fmt.Sprintf("Partially connected (%d/%d)", k, n)
	default:
		return "No API connected"
	}
}

func (a AggregateStatus) String() string {
	switch a {
	case AllConnected:
		return "all"
	case PartiallyConnected:
		return "partial"
	default:
		return "none"
	}
}
