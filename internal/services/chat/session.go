// Package chat holds the state of one conversation with the router.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
)

var (
	// ErrEmptyMessage is returned when the input is blank.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned when a turn is already awaiting its response.
	ErrBusy = errors.New("a message is already being sent")
)

// State is the per-turn state of a session.
type State int

const (
	// Idle accepts a new message.
	Idle State = iota
	// AwaitingResponse refuses new messages until the current one resolves.
	AwaitingResponse
)

func (s State) String() string {
	if s == AwaitingResponse {
		return "awaiting response"
	}
	return "idle"
}

// Sender sends one message to the router.
type Sender interface {
	Chat(ctx context.Context, message, forceModel string) (*models.ChatResult, error)
}

// Session is one conversation: its transcript, running totals, and the
// model indicator.
type Session struct {
	now    func() time.Time
	model  string
	turns  []models.ChatTurn
	totals models.RunningTotals
	state  State
	mu     sync.Mutex
}

// NewSession creates an idle session with an empty transcript.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Begin records the user's message and moves to AwaitingResponse. It returns
// the trimmed text to send.
func (s *Session) Begin(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == AwaitingResponse {
		return "", ErrBusy
	}

	s.turns = append(s.turns, models.ChatTurn{
		Role: models.RoleUser,
		Text: text,
		At:   s.now(),
	})
	s.totals.MessageCount++
	s.state = AwaitingResponse
	return text, nil
}

// Complete records a successful response, folds it into the totals, and
// returns to Idle. It reports whether the responding model differs from the
// one previously shown.
func (s *Session) Complete(result *models.ChatResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Idle
	if result == nil {
		return false
	}

	s.turns = append(s.turns, models.ChatTurn{
		Role:         models.RoleAssistant,
		Text:         result.Response,
		ModelUsed:    result.ModelUsed,
		Reasoning:    result.Reasoning,
		CostEstimate: result.CostEstimate,
		ResponseTime: result.ResponseTime,
		TokensUsed:   result.TokensUsed,
		At:           s.now(),
	})
	s.totals.Add(result.CostEstimate, result.ResponseTime, result.TokensUsed)

	changed := result.ModelUsed != "" && result.ModelUsed != s.model
	if changed {
		s.model = result.ModelUsed
	}
	return changed
}

// Fail records an error turn and returns to Idle. Totals are untouched.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Idle
	s.turns = append(s.turns, models.ChatTurn{
		Role:    models.RoleAssistant,
		Text:    ErrorText(err),
		IsError: true,
		At:      s.now(),
	})
}

// Send runs a whole turn synchronously.
func (s *Session) Send(ctx context.Context, sender Sender, text, forceModel string) (*models.ChatResult, error) {
	msg, err := s.Begin(text)
	if err != nil {
		return nil, err
	}

	result, err := sender.Chat(ctx, msg, forceModel)
	if err != nil {
		logger.Error("chat turn failed", "error", err)
		s.Fail(err)
		return nil, err
	}

	s.Complete(result)
	return result, nil
}

// State returns the current turn state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]models.ChatTurn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Totals returns the running totals.
func (s *Session) Totals() models.RunningTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Model returns the name shown in the model indicator.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel sets the model indicator, typically from the initial catalog.
func (s *Session) SetModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = name
}
