package backfill

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
	"github.com/mycelian/mycelian-journal/internal/vector"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(db)
}

func seed(t *testing.T, st store.Store, userID string, contents ...string) []string {
	t.Helper()
	var ids []string
	for _, c := range contents {
		e, err := st.Entries().Create(context.Background(), &model.JournalEntry{UserID: userID, Content: c})
		require.NoError(t, err)
		ids = append(ids, e.EntryID)
	}
	return ids
}

// flakyProvider fails until ok is set.
type flakyProvider struct {
	ok    bool
	calls int
}

func (p *flakyProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.calls++
	if !p.ok {
		return nil, errors.New("encoder down")
	}
	return vector.Encode(text), nil
}

func (p *flakyProvider) Version() string { return "flaky-v1" }

func TestProcessOnce_StoresMissingVectors(t *testing.T) {
	st := newStore(t)
	ids := seed(t, st, "alice", "first entry", "second entry")
	seed(t, st, "bob", "bob entry")

	w := NewWorker(st, retrieval.New(st, nil, zerolog.Nop()), Config{BatchSize: 10}, zerolog.Nop())
	n, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec, err := st.Embeddings().Get(context.Background(), "alice", ids[0])
	require.NoError(t, err)
	assert.Equal(t, vector.ModelVersion, rec.ModelVersion)

	n, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessOnce_BacksOffFailedEntries(t *testing.T) {
	st := newStore(t)
	seed(t, st, "alice", "only entry")

	p := &flakyProvider{}
	w := NewWorker(st, retrieval.New(st, p, zerolog.Nop()), Config{BatchSize: 10, MaxBackoff: time.Minute}, zerolog.Nop())
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	n, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, p.calls)

	// still inside the 2s window
	clock = clock.Add(time.Second)
	_, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)

	p.ok = true
	clock = clock.Add(5 * time.Second)
	n, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, w.failures)
}

func TestDelay_Capped(t *testing.T) {
	w := NewWorker(newStore(t), nil, Config{MaxBackoff: 10 * time.Second}, zerolog.Nop())
	assert.Equal(t, 2*time.Second, w.delay(1))
	assert.Equal(t, 8*time.Second, w.delay(3))
	assert.Equal(t, 10*time.Second, w.delay(4))
	assert.Equal(t, 10*time.Second, w.delay(40))
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := newStore(t)
	w := NewWorker(st, retrieval.New(st, nil, zerolog.Nop()), Config{Interval: 10 * time.Millisecond}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
