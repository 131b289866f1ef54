package chat

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// Relay forwards free-text messages to the chat model.
type Relay struct {
	Chat domain.ChatModel
}

func NewRelay(chat domain.ChatModel) *Relay {
	return &Relay{Chat: chat}
}

// Relay sends message as a single user turn with no system prompt and the
// model's default temperature.
func (r *Relay) Relay(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.ErrEmptyMessage
	}
	reply, err := r.Chat.Complete(ctx, domain.ChatRequest{User: message})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	return reply, nil
}
