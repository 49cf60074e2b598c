package service

import (
	"context"
	"fmt"
	"strings"
)

// FallbackReply is relayed to the client whenever the upstream provider fails.
const FallbackReply = "Sorry, I'm having trouble connecting to the AI service right now. Please try again later."

// Completer sends one prompt to a generative-AI provider and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatService proxies single, stateless chat messages.
type ChatService interface {
	Reply(ctx context.Context, message string) (string, error)
}

type chatService struct {
	completer Completer
}

func NewChatService(completer Completer) ChatService {
	return &chatService{completer: completer}
}

// Reply returns the provider's text verbatim. On any provider failure it
// returns FallbackReply together with an error wrapping ErrUpstream.
func (s *chatService) Reply(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", validationError("message is required")
	}
	if s.completer == nil {
		return FallbackReply, fmt.Errorf("%w: no provider configured", ErrUpstream)
	}

	reply, err := s.completer.Complete(ctx, message)
	if err != nil {
		return FallbackReply, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return reply, nil
}
