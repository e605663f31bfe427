// Package backfill re-embeds journal entries that have no vector for the
// current encoder version: entries whose embedding failed at submit time and
// entries written before an encoder change.
package backfill

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/retrieval"
	"github.com/mycelian/mycelian-journal/internal/store"
)

var processed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Name:      "backfill_entries_total",
		Help:      "Entries handled by the embedding backfill by outcome.",
	},
	[]string{"outcome"},
)

// Config controls batch size, polling cadence and the per-entry retry cap.
type Config struct {
	BatchSize  int           // entries to fetch per cycle
	Interval   time.Duration // poll interval
	MaxBackoff time.Duration // ceiling for per-entry retry delay
}

type attempt struct {
	count int
	next  time.Time
}

// Worker polls for entries missing a current vector and stores one for each.
type Worker struct {
	embs      store.Embeddings
	retrieval *retrieval.EmbeddingStore
	cfg       Config
	log       zerolog.Logger

	failures map[string]attempt
	now      func() time.Time
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(st store.Store, es *retrieval.EmbeddingStore, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	return &Worker{
		embs:      st.Embeddings(),
		retrieval: es,
		cfg:       cfg,
		log:       log,
		failures:  map[string]attempt{},
		now:       time.Now,
	}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("backfill worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("backfill worker stopping")
			return ctx.Err()
		case <-ticker.C:
			// per-entry backoff keeps a failing entry from hot-looping
			if _, err := w.ProcessOnce(ctx); err != nil {
				w.log.Error().Err(err).Msg("backfill processOnce")
			}
		}
	}
}

// ProcessOnce handles one batch and returns how many entries got a vector.
// Entries still backing off from an earlier failure are skipped.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	version := w.retrieval.Provider().Version()
	entries, err := w.embs.MissingEntries(ctx, version, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	now := w.now()
	stored := 0
	for _, e := range entries {
		if a, ok := w.failures[e.EntryID]; ok && now.Before(a.next) {
			processed.WithLabelValues("deferred").Inc()
			continue
		}
		if err := w.retrieval.Store(ctx, e.EntryID, e.UserID, e.Content); err != nil {
			if ctx.Err() != nil {
				return stored, ctx.Err()
			}
			a := w.failures[e.EntryID]
			a.count++
			a.next = now.Add(w.delay(a.count))
			w.failures[e.EntryID] = a
			processed.WithLabelValues("failed").Inc()
			w.log.Warn().Err(err).Str("entry_id", e.EntryID).Int("attempts", a.count).Time("next_attempt", a.next).Msg("backfill embed failed")
			continue
		}
		delete(w.failures, e.EntryID)
		stored++
		processed.WithLabelValues("stored").Inc()
	}
	if stored > 0 {
		w.log.Debug().Int("stored", stored).Str("model_version", version).Msg("backfill batch done")
	}
	return stored, nil
}

// delay is 2^n seconds capped at MaxBackoff.
func (w *Worker) delay(n int) time.Duration {
	if n > 16 {
		return w.cfg.MaxBackoff
	}
	d := time.Duration(1<<uint(n)) * time.Second
	if d > w.cfg.MaxBackoff {
		return w.cfg.MaxBackoff
	}
	return d
}
