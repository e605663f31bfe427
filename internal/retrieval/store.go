// Package retrieval persists per-entry embeddings and answers similarity
// lookups scoped to a single user.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/embeddings"
	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/store"
	"github.com/mycelian/mycelian-journal/internal/vector"
)

const (
	DefaultLimit     = 5
	DefaultThreshold = 0.7
)

// Index is an optional accelerator for similarity lookups. The store stays
// the source of truth; index writes are best-effort.
type Index interface {
	Upsert(ctx context.Context, e *model.IndexedEntry) error
	// Query returns at most limit hits for userID, most similar first.
	Query(ctx context.Context, userID, query string, limit int) ([]model.SimilarEntry, error)
	Remove(ctx context.Context, userID, entryID string) error
}

// EmbeddingStore writes entry embeddings and finds a user's similar entries.
type EmbeddingStore struct {
	store    store.Store
	provider embeddings.Provider
	index    Index
	log      zerolog.Logger
}

// Option configures an EmbeddingStore.
type Option func(*EmbeddingStore)

// WithIndex routes lookups through ix, falling back to a store scan when it fails.
func WithIndex(ix Index) Option {
	return func(s *EmbeddingStore) { s.index = ix }
}

// New returns an EmbeddingStore; a nil provider means the local vector codec.
func New(st store.Store, provider embeddings.Provider, log zerolog.Logger, opts ...Option) *EmbeddingStore {
	if provider == nil {
		provider = vector.Codec{}
	}
	s := &EmbeddingStore{store: st, provider: provider, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Provider returns the encoder in use.
func (s *EmbeddingStore) Provider() embeddings.Provider { return s.provider }

// Store embeds text and upserts the record for entryID.
func (s *EmbeddingStore) Store(ctx context.Context, entryID, userID, text string) error {
	if err := model.RequireUserID(userID); err != nil {
		return err
	}
	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed entry: %w", err)
	}
	if err := embeddings.CheckDimensions(vec); err != nil {
		return err
	}
	rec := &model.EmbeddingRecord{EntryID: entryID, UserID: userID, Vector: vec, ModelVersion: s.provider.Version()}
	if err := s.store.Embeddings().Put(ctx, rec); err != nil {
		return fmt.Errorf("persist embedding: %w", err)
	}

	if s.index != nil {
		entry, err := s.store.Entries().GetByID(ctx, userID, entryID)
		if err == nil {
			err = s.index.Upsert(ctx, &model.IndexedEntry{
				EmbeddingRecord: *rec,
				Content:         entry.Content,
				MoodScore:       entry.MoodScore,
				CreationTime:    entry.CreationTime,
			})
		}
		if err != nil {
			retrievalFailuresTotal.WithLabelValues("index_upsert").Inc()
			s.log.Warn().Err(err).Str("user_id", userID).Str("entry_id", entryID).Msg("vector index upsert failed")
		}
	}
	return nil
}

// Forget drops entryID from the index. The store row goes with its entry.
func (s *EmbeddingStore) Forget(ctx context.Context, userID, entryID string) {
	if s.index == nil {
		return
	}
	if err := s.index.Remove(ctx, userID, entryID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Str("entry_id", entryID).Msg("vector index remove failed")
	}
}

type searchParams struct {
	limit     int
	threshold float64
	exclude   string
}

// SearchOption adjusts FindSimilar.
type SearchOption func(*searchParams)

// WithLimit caps the number of results (default 5).
func WithLimit(n int) SearchOption { return func(p *searchParams) { p.limit = n } }

// WithThreshold sets the minimum similarity kept (default 0.7).
func WithThreshold(t float64) SearchOption { return func(p *searchParams) { p.threshold = t } }

// Excluding drops one entry from the results, typically the one being enriched.
func Excluding(entryID string) SearchOption { return func(p *searchParams) { p.exclude = entryID } }

// FindSimilar returns the user's entries most similar to query, most similar
// first. It never fails: any error yields an empty result.
func (s *EmbeddingStore) FindSimilar(ctx context.Context, userID, query string, opts ...SearchOption) []model.SimilarEntry {
	p := searchParams{limit: DefaultLimit, threshold: DefaultThreshold}
	for _, o := range opts {
		o(&p)
	}
	if userID == "" || p.limit <= 0 {
		return []model.SimilarEntry{}
	}

	var hits []model.SimilarEntry
	if s.index != nil {
		var err error
		hits, err = s.fromIndex(ctx, userID, query, p)
		if err != nil {
			retrievalFailuresTotal.WithLabelValues("index_query").Inc()
			s.log.Warn().Err(err).Str("user_id", userID).Msg("vector index query failed; scanning store")
			hits = nil
		}
	}
	if hits == nil {
		var err error
		hits, err = s.scan(ctx, userID, query, p)
		if err != nil {
			retrievalFailuresTotal.WithLabelValues("scan").Inc()
			s.log.Warn().Err(err).Str("user_id", userID).Msg("similarity scan failed")
			hits = []model.SimilarEntry{}
		}
	}
	similarResults.Observe(float64(len(hits)))
	return hits
}

func (s *EmbeddingStore) fromIndex(ctx context.Context, userID, query string, p searchParams) ([]model.SimilarEntry, error) {
	raw, err := s.index.Query(ctx, userID, query, p.limit+1)
	if err != nil {
		return nil, err
	}
	return filter(raw, p), nil
}

func (s *EmbeddingStore) scan(ctx context.Context, userID, query string, p searchParams) ([]model.SimilarEntry, error) {
	qv, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	records, err := s.store.Embeddings().ListByUser(ctx, userID, s.provider.Version())
	if err != nil {
		return nil, err
	}

	hits := make([]model.SimilarEntry, 0, len(records))
	for _, r := range records {
		// guard against a store that ignores the scope
		if r.UserID != userID || r.ModelVersion != s.provider.Version() {
			continue
		}
		sim, err := vector.CosineSimilarity(qv, r.Vector)
		if err != nil {
			s.log.Debug().Err(err).Str("entry_id", r.EntryID).Msg("skipping malformed vector")
			continue
		}
		hits = append(hits, model.SimilarEntry{
			EntryID:      r.EntryID,
			Content:      r.Content,
			Similarity:   sim,
			MoodScore:    r.MoodScore,
			CreationTime: r.CreationTime,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	return filter(hits, p), nil
}

// filter applies exclusion, threshold and limit to hits sorted most similar first.
func filter(hits []model.SimilarEntry, p searchParams) []model.SimilarEntry {
	out := make([]model.SimilarEntry, 0, p.limit)
	for _, h := range hits {
		if h.EntryID == p.exclude || h.Similarity < p.threshold {
			continue
		}
		out = append(out, h)
		if len(out) == p.limit {
			break
		}
	}
	return out
}
