package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/embeddings/ollama"
	"github.com/mycelian/mycelian-journal/internal/llm"
	"github.com/mycelian/mycelian-journal/internal/vector"
)

func TestNewStore_SQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "nested", "journal.db")

	st, err := NewStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer st.DB().Close()
	assert.NoError(t, st.HealthPing(context.Background()))
}

func TestNewStore_RejectsUnknownDriver(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "mysql"
	_, err := NewStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.DBDriver = "postgres"
	_, err = NewStore(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestNewEmbeddingProvider(t *testing.T) {
	cfg := config.NewForTesting()
	assert.Equal(t, vector.Codec{}, NewEmbeddingProvider(context.Background(), cfg, zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg.EmbedProvider = "ollama"
	cfg.OllamaURL = "http://127.0.0.1:1"
	_, ok := NewEmbeddingProvider(ctx, cfg, zerolog.Nop()).(*ollama.Provider)
	assert.True(t, ok)
}

func TestNewRetrieval_Chromem(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "journal.db")
	st, err := NewStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer st.DB().Close()

	cfg.VectorIndex = "chromem"
	cfg.ChromemPath = ""
	es, err := NewRetrieval(cfg, st, vector.Codec{}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, es)
}

func TestNewCompleter(t *testing.T) {
	cfg := config.NewForTesting()
	c, ping := NewCompleter(cfg, zerolog.Nop())
	assert.Equal(t, llm.Disabled{}, c)
	assert.Nil(t, ping)

	cfg.LLMProvider = "openai"
	cfg.LLMAPIKey = "k"
	c, ping = NewCompleter(cfg, zerolog.Nop())
	_, ok := c.(*llm.ChatClient)
	assert.True(t, ok)
	assert.NotNil(t, ping)
}
