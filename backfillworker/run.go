package backfillworker

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mycelian/mycelian-journal/internal/backfill"
	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/factory"
	"github.com/mycelian/mycelian-journal/internal/logger"
)

// Run starts a standalone backfill worker and blocks until shutdown or error.
// It uses the service's configuration; a zero backfill interval means one minute here.
func Run() error {
	log := logger.New("backfill-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("config")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("store")
		return err
	}
	defer func() { _ = st.DB().Close() }()

	provider := factory.NewEmbeddingProvider(ctx, cfg, log)
	es, err := factory.NewRetrieval(cfg, st, provider, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("vector index")
		return err
	}

	interval := cfg.BackfillInterval()
	if interval == 0 {
		interval = time.Minute
	}
	w := backfill.NewWorker(st, es, backfill.Config{BatchSize: cfg.BackfillBatchSize, Interval: interval}, log)

	// first pass right away, then on the ticker
	if _, err := w.ProcessOnce(ctx); err != nil {
		log.Error().Err(err).Msg("initial backfill pass")
	}
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("backfill worker exit")
		return err
	}
	return nil
}
