package journalservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/api"
	"github.com/mycelian/mycelian-journal/internal/auth"
	"github.com/mycelian/mycelian-journal/internal/backfill"
	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/embeddings"
	"github.com/mycelian/mycelian-journal/internal/factory"
	"github.com/mycelian/mycelian-journal/internal/health"
	"github.com/mycelian/mycelian-journal/internal/insight"
	"github.com/mycelian/mycelian-journal/internal/logger"
	"github.com/mycelian/mycelian-journal/internal/retrieval"
	"github.com/mycelian/mycelian-journal/internal/services"
	"github.com/mycelian/mycelian-journal/internal/store/sqlstore"
)

// dependencies are the adapters the service runs on.
type dependencies struct {
	store     *sqlstore.Store
	provider  embeddings.Provider
	retrieval *retrieval.EmbeddingStore
	service   *services.JournalService
	llmPinger health.HealthPinger
}

// Run starts the journal service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("journal-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("embed_provider", cfg.EmbedProvider).
		Str("vector_index", cfg.VectorIndex).
		Str("llm_provider", cfg.LLMProvider).
		Msg("Journal service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.store.DB().Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	var routerOpts []api.RouterOption
	authz, err := auth.ParseKeys(cfg.APIKeys)
	if err != nil {
		log.Error().Err(err).Msg("Invalid API_KEYS")
		return err
	}
	if authz != nil {
		routerOpts = append(routerOpts, api.WithAuthorizer(authz))
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, deps)
	router := api.NewRouter(deps.service, svcHealth, log, routerOpts...)

	// Block startup until the store reports healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	startBackfill(ctx, cfg, log, deps)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}

	provider := factory.NewEmbeddingProvider(ctx, cfg, log)
	es, err := factory.NewRetrieval(cfg, st, provider, log)
	if err != nil {
		_ = st.DB().Close()
		log.Error().Stack().Err(err).Msg("Vector index unavailable")
		return nil, err
	}

	completer, llmPinger := factory.NewCompleter(cfg, log)
	svc := services.NewJournalService(st, es, insight.New(completer, log), log,
		services.WithMaxContentBytes(cfg.MaxContentBytes))

	return &dependencies{store: st, provider: provider, retrieval: es, service: svc, llmPinger: llmPinger}, nil
}

// startHealthCheckers starts component checkers and the service-level
// aggregator. Only the store gates readiness; the embedder and the generative
// backend have fallbacks and are reported as degraded when down.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies) *health.ServiceHealthChecker {
	probeTimeout := cfg.HealthProbeTimeout()
	interval := cfg.HealthInterval()

	degradable := []health.HealthChecker{
		health.NewPingChecker("embeddings", embeddings.Pinger(deps.provider), log, probeTimeout),
	}
	if deps.llmPinger != nil {
		degradable = append(degradable, health.NewPingChecker("llm", deps.llmPinger, log, probeTimeout))
	}

	svcHealth := health.NewServiceHealthChecker(log, health.NewPingChecker("store", deps.store, log, probeTimeout)).
		WithDegradable(degradable...)
	svcHealth.StartAll(ctx, interval)
	return svcHealth
}

// startBackfill runs the embedding backfill in-process unless it is disabled.
func startBackfill(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies) {
	interval := cfg.BackfillInterval()
	if interval == 0 {
		log.Info().Msg("embedding backfill disabled")
		return
	}
	w := backfill.NewWorker(deps.store, deps.retrieval, backfill.Config{
		BatchSize: cfg.BackfillBatchSize,
		Interval:  interval,
	}, log)
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("backfill worker exit")
		}
	}()
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth api.ServiceHealth) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
