package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"BUILD_TARGET", "DB_DRIVER", "SQLITE_PATH", "POSTGRES_DSN", "EMBED_PROVIDER",
	"VECTOR_INDEX", "LLM_PROVIDER", "LLM_API_KEY", "LLM_MODEL", "HTTP_PORT",
}

func unsetEnv() {
	for _, v := range managedVars {
		_ = os.Unsetenv(Prefix + "_" + v)
	}
}

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	unsetEnv()
	for k, v := range kv {
		require.NoError(t, os.Setenv(Prefix+"_"+k, v))
	}
	t.Cleanup(unsetEnv)
}

func TestConfigLoad_LocalDefaults(t *testing.T) {
	setEnv(t, map[string]string{"SQLITE_PATH": "/tmp/journal-test.db"})

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/journal-test.db", cfg.SQLitePath)
	assert.Equal(t, "local", cfg.EmbedProvider)
	assert.Equal(t, "store", cfg.VectorIndex)
	assert.Equal(t, "disabled", cfg.LLMProvider)
	assert.Equal(t, "deepseek-chat", cfg.LLMModel)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	setEnv(t, map[string]string{
		"HTTP_PORT":    "9191",
		"LLM_PROVIDER": "openai",
		"LLM_API_KEY":  "sk-test",
		"LLM_MODEL":    "test-model",
		"SQLITE_PATH":  "/tmp/journal-test.db",
	})

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.HTTPPort)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "test-model", cfg.LLMModel)
}

func TestResolveDefaultsCloudDevNeedsDSN(t *testing.T) {
	setEnv(t, map[string]string{"BUILD_TARGET": "cloud-dev"})
	_, err := New()
	require.Error(t, err)

	setEnv(t, map[string]string{"BUILD_TARGET": "cloud-dev", "POSTGRES_DSN": "postgres://x@localhost/db"})
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestResolveDefaultsRejectsUnknownValues(t *testing.T) {
	cases := map[string]map[string]string{
		"build target":   {"BUILD_TARGET": "mars"},
		"db driver":      {"DB_DRIVER": "mysql"},
		"embed provider": {"EMBED_PROVIDER": "magic"},
		"vector index":   {"VECTOR_INDEX": "faiss"},
		"llm provider":   {"LLM_PROVIDER": "oracle"},
		"llm key":        {"LLM_PROVIDER": "openai"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setEnv(t, env)
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestNewForTestingIsSelfContained(t *testing.T) {
	cfg := NewForTesting()
	assert.True(t, cfg.IsTesting())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "disabled", cfg.LLMProvider)
}

func TestResolveDefaults_LocalPathsUnderJournalHome(t *testing.T) {
	setEnv(t, map[string]string{"VECTOR_INDEX": "chromem"})
	home := t.TempDir()
	t.Setenv("JOURNAL_HOME", home)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, home+"/journal.db", cfg.SQLitePath)
	assert.Equal(t, home+"/vectors", cfg.ChromemPath)
	assert.Equal(t, 60*time.Second, cfg.BackfillInterval())
	assert.Empty(t, cfg.APIKeys)
}

func TestBackfillInterval_ZeroDisables(t *testing.T) {
	cfg := NewForTesting()
	assert.Zero(t, cfg.BackfillInterval())
	assert.Equal(t, 5*time.Second, cfg.BootstrapTimeout())
}
