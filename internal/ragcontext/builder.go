// Package ragcontext assembles the retrieval context handed to the insight
// generator: similar past entries plus rolling mood statistics.
package ragcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/mood"
	"github.com/mycelian/mycelian-journal/internal/retrieval"
	"github.com/mycelian/mycelian-journal/internal/store"
)

// HistoryWindow is the number of most recent entries summarized.
const HistoryWindow = 30

// Similar is the retrieval dependency.
type Similar interface {
	FindSimilar(ctx context.Context, userID, query string, opts ...retrieval.SearchOption) []model.SimilarEntry
}

// Builder combines similar entries and history statistics into a RAGContext.
type Builder struct {
	similar Similar
	entries store.Entries
	log     zerolog.Logger
}

func NewBuilder(similar Similar, entries store.Entries, log zerolog.Logger) *Builder {
	return &Builder{similar: similar, entries: entries, log: log}
}

type buildParams struct {
	exclude string
}

// Option adjusts Build.
type Option func(*buildParams)

// ExcludeEntry leaves entryID out of both the similar entries and the
// history, so an entry is not used as context for itself.
func ExcludeEntry(entryID string) Option {
	return func(p *buildParams) { p.exclude = entryID }
}

// Build never fails. A failed history read yields the empty summary and a
// failed lookup yields no similar entries.
func (b *Builder) Build(ctx context.Context, userID, query string, opts ...Option) model.RAGContext {
	var p buildParams
	for _, o := range opts {
		o(&p)
	}

	var searchOpts []retrieval.SearchOption
	if p.exclude != "" {
		searchOpts = append(searchOpts, retrieval.Excluding(p.exclude))
	}
	similar := b.similar.FindSimilar(ctx, userID, query, searchOpts...)
	if similar == nil {
		similar = []model.SimilarEntry{}
	}

	return model.RAGContext{
		Query:          query,
		SimilarEntries: similar,
		UserHistory:    mood.AnalyzeHistory(mood.RecordsFromEntries(b.History(ctx, userID, p.exclude))),
	}
}

// History returns up to HistoryWindow recent entries, newest first, without
// exclude. Errors are logged and yield nil.
func (b *Builder) History(ctx context.Context, userID, exclude string) []*model.JournalEntry {
	limit := HistoryWindow
	if exclude != "" {
		limit++
	}
	recent, err := b.entries.Recent(ctx, userID, limit)
	if err != nil {
		b.log.Warn().Err(err).Str("user_id", userID).Msg("history unavailable; using baseline")
		return nil
	}
	out := make([]*model.JournalEntry, 0, len(recent))
	for _, e := range recent {
		if e.EntryID == exclude {
			continue
		}
		out = append(out, e)
	}
	if len(out) > HistoryWindow {
		out = out[:HistoryWindow]
	}
	return out
}
