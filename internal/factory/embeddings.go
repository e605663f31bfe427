package factory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/embeddings"
	"github.com/mycelian/mycelian-journal/internal/embeddings/ollama"
	"github.com/mycelian/mycelian-journal/internal/vector"
)

// NewEmbeddingProvider returns the configured encoder. Remote providers get
// an async warmup; the provider is returned immediately either way.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) embeddings.Provider {
	switch cfg.EmbedProvider {
	case "ollama":
	default:
		if cfg.EmbedProvider != "local" {
			log.Warn().Str("provider", cfg.EmbedProvider).Msg("unknown embedding provider; using local codec")
		}
		return vector.Codec{}
	}

	provider := ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, cfg.BootstrapTimeout())
		defer cancel()

		if vec, err := provider.Embed(warmupCtx, "factory-warmup-check"); err != nil || len(vec) == 0 {
			log.Warn().Err(err).Int("vec_len", len(vec)).
				Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup failed")
		} else {
			log.Debug().Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup completed")
		}
	}()
	return provider
}
