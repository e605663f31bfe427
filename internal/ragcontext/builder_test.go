package ragcontext

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/retrieval"
	"github.com/mycelian/mycelian-journal/internal/store"
	"github.com/mycelian/mycelian-journal/internal/store/sqlite"
	"github.com/mycelian/mycelian-journal/internal/store/storetest"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(db)
}

func TestBuildWithNoHistory(t *testing.T) {
	st := newStore(t)
	b := NewBuilder(retrieval.New(st, nil, zerolog.Nop()), st.Entries(), zerolog.Nop())

	rc := b.Build(context.Background(), "alice", "I feel great and happy today")
	assert.Equal(t, "I feel great and happy today", rc.Query)
	assert.Empty(t, rc.SimilarEntries)
	assert.NotNil(t, rc.SimilarEntries)
	assert.Equal(t, 50.0, rc.UserHistory.AvgMoodScore)
	assert.Equal(t, model.TrendInsufficientData, rc.UserHistory.RecentTrend)
	assert.Equal(t, []string{}, rc.UserHistory.CommonEmotions)
}

func TestBuildUsesHistoryAndSimilar(t *testing.T) {
	st := newStore(t)
	es := retrieval.New(st, nil, zerolog.Nop())
	b := NewBuilder(es, st.Entries(), zerolog.Nop())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var lastID string
	for i, score := range []int{40, 45, 70, 75} {
		e := storetest.Entry("alice", "long walk by the river", score)
		e.CreationTime = base.Add(time.Duration(i) * time.Minute)
		created, err := st.Entries().Create(ctx, e)
		require.NoError(t, err)
		require.NoError(t, es.Store(ctx, created.EntryID, "alice", created.Content))
		lastID = created.EntryID
	}

	rc := b.Build(ctx, "alice", "long walk by the river")
	assert.Len(t, rc.SimilarEntries, 4)
	assert.InDelta(t, 57.5, rc.UserHistory.AvgMoodScore, 1e-9)
	assert.Equal(t, model.TrendImproving, rc.UserHistory.RecentTrend)
	assert.Equal(t, []string{"joy"}, rc.UserHistory.CommonEmotions)

	rc = b.Build(ctx, "alice", "long walk by the river", ExcludeEntry(lastID))
	assert.Len(t, rc.SimilarEntries, 3)
	for _, s := range rc.SimilarEntries {
		assert.NotEqual(t, lastID, s.EntryID)
	}
	assert.InDelta(t, (40.0+45+70)/3, rc.UserHistory.AvgMoodScore, 1e-9)
}

func TestBuildWindowIsThirty(t *testing.T) {
	st := newStore(t)
	b := NewBuilder(retrieval.New(st, nil, zerolog.Nop()), st.Entries(), zerolog.Nop())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 35; i++ {
		score := 90
		if i < 5 {
			score = 10 // oldest five fall outside the window
		}
		e := storetest.Entry("alice", "entry", score)
		e.CreationTime = base.Add(time.Duration(i) * time.Second)
		_, err := st.Entries().Create(ctx, e)
		require.NoError(t, err)
	}
	assert.Len(t, b.History(ctx, "alice", ""), HistoryWindow)
	assert.Equal(t, 90.0, b.Build(ctx, "alice", "q").UserHistory.AvgMoodScore)
}

type brokenEntries struct{ store.Entries }

func (brokenEntries) Recent(context.Context, string, int) ([]*model.JournalEntry, error) {
	return nil, errors.New("db down")
}

type nilSimilar struct{}

func (nilSimilar) FindSimilar(context.Context, string, string, ...retrieval.SearchOption) []model.SimilarEntry {
	return nil
}

func TestBuildNeverFails(t *testing.T) {
	st := newStore(t)
	b := NewBuilder(nilSimilar{}, brokenEntries{st.Entries()}, zerolog.Nop())

	rc := b.Build(context.Background(), "alice", "q")
	assert.Equal(t, []model.SimilarEntry{}, rc.SimilarEntries)
	assert.Equal(t, 50.0, rc.UserHistory.AvgMoodScore)
	assert.Equal(t, model.TrendInsufficientData, rc.UserHistory.RecentTrend)
}
