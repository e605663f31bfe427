package factory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/health"
	"github.com/mycelian/mycelian-journal/internal/llm"
)

// NewCompleter returns the generative backend and, when it is remote, a
// health probe for it. A disabled backend has no probe.
func NewCompleter(cfg *config.Config, log zerolog.Logger) (llm.Completer, health.HealthPinger) {
	if cfg.LLMProvider != "openai" {
		return llm.Disabled{}, nil
	}
	c := llm.NewChatClient(llm.Config{
		BaseURL:    cfg.LLMBaseURL,
		APIKey:     cfg.LLMAPIKey,
		Model:      cfg.LLMModel,
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
		RatePerSec: cfg.LLMRatePerSec,
	}, log)
	return c, health.PingFunc(func(ctx context.Context) error { return c.HealthPing(ctx) })
}
