package models

import "time"

// Role identifies the author of a chat turn.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatRequest is the body sent to the router's chat endpoint.
type ChatRequest struct {
	Message    string `json:"message"`
	UserID     string `json:"user_id,omitempty"`
	ForceModel string `json:"force_model,omitempty"`
}

// ChatResult is the router's answer to one chat request.
type ChatResult struct {
	Response     string        `json:"response"`
	ModelUsed    string        `json:"model_used"`
	Reasoning    string        `json:"reasoning"`
	CostEstimate float64       `json:"cost_estimate"`
	ResponseTime float64       `json:"response_time"`
	TokensUsed   int           `json:"tokens_used"`
	RoundTrip    time.Duration `json:"-"`
}

// ChatTurn is one entry in a conversation transcript.
type ChatTurn struct {
	At           time.Time
	Role         Role
	Text         string
	ModelUsed    string
	Reasoning    string
	CostEstimate float64
	ResponseTime float64
	TokensUsed   int
	IsError      bool
}

// RunningTotals accumulates per-session chat counters.
type RunningTotals struct {
	MessageCount int
	TotalCost    float64
	TotalTime    float64
	TotalTokens  int
}

// Add folds one successful response into the totals.
func (t *RunningTotals) Add(cost, seconds float64, tokens int) {
	t.TotalCost += cost
	t.TotalTime += seconds
	t.TotalTokens += tokens
}

// AvgTime returns the mean response time per message, or 0 before any message.
func (t RunningTotals) AvgTime() float64 {
	if t.MessageCount == 0 {
		return 0
	}
	return t.TotalTime / float64(t.MessageCount)
}
