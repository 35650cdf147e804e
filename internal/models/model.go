package models

import "sort"

// ModelInfo describes one model the router can dispatch to.
type ModelInfo struct {
	Name            string  `json:"-"`
	Speed           string  `json:"speed"`
	Provider        string  `json:"provider"`
	Quality         string  `json:"quality,omitempty"`
	UseCase         string  `json:"use_case,omitempty"`
	Status          string  `json:"status,omitempty"`
	CostPer1kTokens float64 `json:"cost_per_1k_tokens"`
	MaxTokens       int     `json:"max_tokens,omitempty"`
	Available       bool    `json:"available"`
}

// ModelCatalog is the full set of models keyed by name. It is replaced
// wholesale on every refresh.
type ModelCatalog map[string]ModelInfo

// Names returns the model names in sorted order.
func (c ModelCatalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns the models ordered by name.
func (c ModelCatalog) Sorted() []ModelInfo {
	names := c.Names()
	out := make([]ModelInfo, 0, len(names))
	for _, name := range names {
		m := c[name]
		m.Name = name
		out = append(out, m)
	}
	return out
}

// ActiveCount returns how many models are currently available.
func (c ModelCatalog) ActiveCount() int {
	n := 0
	for _, m := range c {
		if m.Available {
			n++
		}
	}
	return n
}

// FirstAvailable returns the alphabetically first available model.
func (c ModelCatalog) FirstAvailable() (ModelInfo, bool) {
	for _, m := range c.Sorted() {
		if m.Available {
			return m, true
		}
	}
	return ModelInfo{}, false
}
