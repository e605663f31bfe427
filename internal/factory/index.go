package factory

import (
	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/embeddings"
	"github.com/mycelian/mycelian-journal/internal/retrieval"
	"github.com/mycelian/mycelian-journal/internal/store"
)

// NewRetrieval builds the embedding store, routed through a chromem index
// when VECTOR_INDEX=chromem.
func NewRetrieval(cfg *config.Config, st store.Store, provider embeddings.Provider, log zerolog.Logger) (*retrieval.EmbeddingStore, error) {
	var opts []retrieval.Option
	if cfg.VectorIndex == "chromem" {
		ix, err := retrieval.NewChromemIndex(cfg.ChromemPath, provider, st.Embeddings())
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", cfg.ChromemPath).Msg("chromem index ready")
		opts = append(opts, retrieval.WithIndex(ix))
	}
	return retrieval.New(st, provider, log, opts...), nil
}
