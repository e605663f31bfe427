// Package llm talks to the generative-text backend. The rest of the service
// depends only on Completer, so a disabled backend and a remote one are
// interchangeable.
package llm

import (
	"context"
	"fmt"

	"github.com/mycelian/mycelian-journal/internal/model"
)

// Roles used in chat messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Prompt builds the common system-plus-user request.
func Prompt(system, user string, temperature float64, maxTokens int) Request {
	return Request{
		Messages:    []Message{{Role: RoleSystem, Content: system}, {Role: RoleUser, Content: user}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

// Completer returns generated text. Any failure wraps model.ErrBackendUnavailable.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Disabled is the absent backend: every call fails so callers take their
// deterministic fallback.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", fmt.Errorf("generative backend disabled: %w", model.ErrBackendUnavailable)
}

// Func adapts a function to Completer.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Complete(ctx context.Context, req Request) (string, error) { return f(ctx, req) }
