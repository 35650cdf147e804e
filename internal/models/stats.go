// Package models defines data structures and domain types.
package models

import "time"

// StatsSnapshot is one reading of the router's aggregate usage counters.
type StatsSnapshot struct {
	FetchedAt       time.Time      `json:"-"`
	ModelUsage      map[string]int `json:"model_usage"`
	MostUsedModel   string         `json:"most_used_model"`
	TotalRequests   int            `json:"total_requests"`
	TotalCost       float64        `json:"total_cost"`
	AvgResponseTime float64        `json:"avg_response_time"`
}

// AvgResponseTimeMs returns the average response time in milliseconds.
func (s StatsSnapshot) AvgResponseTimeMs() float64 {
	return s.AvgResponseTime * 1000
}

// SnapshotRecord is a StatsSnapshot persisted to the local history database.
type SnapshotRecord struct {
	RecordedAt      time.Time
	SessionID       string
	ID              int64
	TotalRequests   int
	TotalCost       float64
	AvgResponseTime float64
	ActiveModels    int
}

// ServerInfo is the router's self-description from its root endpoint.
type ServerInfo struct {
	Message            string   `json:"message"`
	Version            string   `json:"version"`
	Status             string   `json:"status"`
	DefaultModel       string   `json:"default_model"`
	AvailableModels    []string `json:"available_models"`
	AvailableProviders []string `json:"available_providers"`
	ModelsConfigured   int      `json:"models_configured"`
	TotalModels        int      `json:"total_models"`
}
