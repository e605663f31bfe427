package journalservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/health"
)

type flagHealth struct{ up bool }

func (f flagHealth) IsHealthy() bool              { return f.up }
func (f flagHealth) Components() map[string]bool { return nil }

func TestCalculateStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 60, calculateStartupHealthTimeout(5))
	assert.Equal(t, 60, calculateStartupHealthTimeout(30))
	assert.Equal(t, 90, calculateStartupHealthTimeout(45))
}

func TestWaitUntilHealthy(t *testing.T) {
	cfg := config.NewForTesting()
	require.NoError(t, waitUntilHealthy(context.Background(), cfg, flagHealth{up: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waitUntilHealthy(ctx, cfg, flagHealth{}), context.DeadlineExceeded)
}

func TestInitDependencies_LocalStack(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = t.TempDir() + "/journal.db"
	cfg.HealthIntervalSeconds = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := initDependencies(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer deps.store.DB().Close()

	assert.Nil(t, deps.llmPinger)
	svcHealth := startHealthCheckers(ctx, cfg, nopLogger(), deps)
	require.Eventually(t, svcHealth.IsHealthy, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, map[string]bool{"store": true, "embeddings": true}, svcHealth.Components())
}

func TestStartup_FailingLLMOnlyDegrades(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = t.TempDir() + "/journal.db"
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := initDependencies(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer deps.store.DB().Close()
	deps.llmPinger = health.PingFunc(func(context.Context) error { return errors.New("connection refused") })

	svcHealth := startHealthCheckers(ctx, cfg, nopLogger(), deps)

	// the default 30s interval must not delay readiness
	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	require.NoError(t, waitUntilHealthy(waitCtx, cfg, svcHealth))
	assert.True(t, svcHealth.Degraded())
	assert.Equal(t, map[string]bool{"store": true, "embeddings": true, "llm": false}, svcHealth.Components())
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
