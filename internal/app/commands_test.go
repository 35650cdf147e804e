package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTickCmd(t *testing.T) {
	if tickCmd(time.Millisecond) == nil {
		t.Error("tickCmd returned nil")
	}
	if defaultTickCmd() == nil {
		t.Error("defaultTickCmd returned nil")
	}
}

func TestNotifyCommands(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string) tea.Cmd
		want     NotificationType
		duration time.Duration
	}{
		{"Success", NotifySuccess, NotificationSuccess, DefaultNotificationDuration},
		{"Error", NotifyError, NotificationError, LongNotificationDuration},
		{"Warning", NotifyWarning, NotificationWarning, DefaultNotificationDuration},
		{"Info", NotifyInfo, NotificationInfo, QuickNotificationDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.fn("msg")()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
			if addMsg.Duration != tt.duration {
				t.Errorf("Duration = %v, want %v", addMsg.Duration, tt.duration)
			}
		})
	}
}

func TestRequest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cmd := Request("stats", func(ctx context.Context) (int, error) {
			return 42, nil
		})
		msg, ok := cmd().(ResultMsg[int])
		if !ok {
			t.Fatalf("expected ResultMsg[int], got %T", cmd())
		}
		if msg.Op != "stats" || msg.Value != 42 || msg.Err != nil {
			t.Errorf("msg = %+v", msg)
		}
	})

	t.Run("failure still reports", func(t *testing.T) {
		boom := errors.New("boom")
		cmd := Request("stats", func(ctx context.Context) (*int, error) {
			return nil, boom
		})
		msg := cmd().(ResultMsg[*int])
		if !errors.Is(msg.Err, boom) {
			t.Errorf("Err = %v, want boom", msg.Err)
		}
		if msg.Value != nil {
			t.Error("Value should be nil on failure")
		}
	})
}

func TestClearNotificationCmd(t *testing.T) {
	if clearNotificationCmd("id", time.Millisecond) == nil {
		t.Error("clearNotificationCmd returned nil")
	}
}

func TestDelayed(t *testing.T) {
	if Delayed(time.Millisecond, RefreshMsg{}) == nil {
		t.Error("Delayed returned nil")
	}
}

func TestErrorText(t *testing.T) {
	if got := errorText(ErrorMsg{Error: errors.New("x")}); got != "x" {
		t.Errorf("errorText() = %q", got)
	}
	if got := errorText(ErrorMsg{Error: errors.New("x"), Context: "theme"}); got != "[theme] x" {
		t.Errorf("errorText() = %q", got)
	}
}
