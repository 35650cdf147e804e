package dashboard

import (
	"context"
	"strings"

	"github.com/routerllm/routerllm-tui/internal/models"
	chatsvc "github.com/routerllm/routerllm-tui/internal/services/chat"
)

// responsePreviewLen caps how much of a test response is shown.
const responsePreviewLen = 200

// RunTestRequest sends one message to the router, optionally pinned to
// forceModel. Blank messages are rejected without a request. The round trip
// is measured by the client.
func RunTestRequest(ctx context.Context, sender chatsvc.Sender, message, forceModel string) (*models.ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, chatsvc.ErrEmptyMessage
	}
	return sender.Chat(ctx, message, forceModel)
}

// Preview shortens a response for display.
func Preview(response string) string {
	runes := []rune(response)
	if len(runes) <= responsePreviewLen {
		return response
	}
	return string(runes[:responsePreviewLen]) + "..."
}
