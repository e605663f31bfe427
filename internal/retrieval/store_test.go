package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/store"
	"github.com/mycelian/mycelian-journal/internal/store/sqlite"
	"github.com/mycelian/mycelian-journal/internal/store/storetest"
	"github.com/mycelian/mycelian-journal/internal/vector"
)

// simProvider maps "sim:<s>" to a unit vector whose cosine with the vector
// for "query" is exactly s.
type simProvider struct{}

func (simProvider) Version() string { return "sim-v1" }

func (simProvider) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, vector.Dimensions)
	if !strings.HasPrefix(text, "sim:") {
		v[0] = 1
		return v, nil
	}
	s, err := strconv.ParseFloat(strings.TrimPrefix(text, "sim:"), 64)
	if err != nil {
		return nil, err
	}
	v[0] = float32(s)
	v[1] = float32(math.Sqrt(1 - s*s))
	return v, nil
}

func newSQLite(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(db)
}

// seed creates an entry per content and stores its embedding.
func seed(t *testing.T, st store.Store, es *EmbeddingStore, userID string, contents ...string) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, len(contents))
	for i, c := range contents {
		e := storetest.Entry(userID, c, 50+i)
		e.CreationTime = time.Now().UTC().Add(time.Duration(i) * time.Second)
		created, err := st.Entries().Create(ctx, e)
		require.NoError(t, err)
		require.NoError(t, es.Store(ctx, created.EntryID, userID, c))
		ids = append(ids, created.EntryID)
	}
	return ids
}

var tenSims = []string{"sim:0.9", "sim:0.85", "sim:0.8", "sim:0.75", "sim:0.72", "sim:0.6", "sim:0.5", "sim:0.4", "sim:0.3", "sim:0.2"}

func assertTopFive(t *testing.T, got []model.SimilarEntry) {
	t.Helper()
	require.Len(t, got, 5)
	want := []float64{0.9, 0.85, 0.8, 0.75, 0.72}
	for i, h := range got {
		assert.InDelta(t, want[i], h.Similarity, 1e-4)
		assert.Equal(t, tenSims[i], h.Content)
	}
}

func TestFindSimilarThresholdAndLimit(t *testing.T) {
	st := newSQLite(t)
	es := New(st, simProvider{}, zerolog.Nop())
	seed(t, st, es, "alice", tenSims...)

	assertTopFive(t, es.FindSimilar(context.Background(), "alice", "query"))

	got := es.FindSimilar(context.Background(), "alice", "query", WithLimit(10), WithThreshold(0.7))
	assert.Len(t, got, 5)
	got = es.FindSimilar(context.Background(), "alice", "query", WithLimit(2))
	assert.Len(t, got, 2)
}

func TestFindSimilarNeverCrossesUsers(t *testing.T) {
	st := newSQLite(t)
	es := New(st, simProvider{}, zerolog.Nop())
	seed(t, st, es, "alice", "sim:0.75", "sim:0.1")
	seed(t, st, es, "bob", "sim:1.0", "sim:0.99", "sim:0.98")

	got := es.FindSimilar(context.Background(), "alice", "query", WithThreshold(-1), WithLimit(10))
	require.Len(t, got, 2)
	for _, h := range got {
		e, err := st.Entries().GetByID(context.Background(), "alice", h.EntryID)
		require.NoError(t, err, "hit must belong to alice")
		assert.Equal(t, "alice", e.UserID)
	}
	assert.Empty(t, es.FindSimilar(context.Background(), "", "query"))
}

func TestStoreIsIdempotentPerEntry(t *testing.T) {
	st := newSQLite(t)
	es := New(st, nil, zerolog.Nop())
	ids := seed(t, st, es, "alice", "a walk in the park")

	require.NoError(t, es.Store(context.Background(), ids[0], "alice", "a walk in the park"))
	recs, err := st.Embeddings().ListByUser(context.Background(), "alice", vector.ModelVersion)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, vector.Encode("a walk in the park"), recs[0].Vector)

	hits := es.FindSimilar(context.Background(), "alice", "a walk in the park")
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Empty(t, es.FindSimilar(context.Background(), "alice", "a walk in the park", Excluding(ids[0])))
}

func TestStoreRejectsForeignEntry(t *testing.T) {
	st := newSQLite(t)
	es := New(st, nil, zerolog.Nop())
	ids := seed(t, st, es, "alice", "mine")

	err := es.Store(context.Background(), ids[0], "bob", "mine")
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.True(t, model.IsValidationError(es.Store(context.Background(), ids[0], "", "mine")))
}

func TestFindSimilarSkipsOtherModelVersions(t *testing.T) {
	st := newSQLite(t)
	seed(t, st, New(st, nil, zerolog.Nop()), "alice", "same text")

	es := New(st, simProvider{}, zerolog.Nop())
	assert.Empty(t, es.FindSimilar(context.Background(), "alice", "same text", WithThreshold(-1)))
}

type failingEmbeddings struct{ store.Embeddings }

func (failingEmbeddings) ListByUser(context.Context, string, string) ([]*model.IndexedEntry, error) {
	return nil, fmt.Errorf("connection reset: %w", model.ErrBackendUnavailable)
}

type failingStore struct{ store.Store }

func (f failingStore) Embeddings() store.Embeddings {
	return failingEmbeddings{f.Store.Embeddings()}
}

func TestFindSimilarSwallowsStoreFailure(t *testing.T) {
	es := New(failingStore{newSQLite(t)}, nil, zerolog.Nop())
	got := es.FindSimilar(context.Background(), "alice", "anything")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

type failingProvider struct{}

func (failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedder down")
}
func (failingProvider) Version() string { return "down" }

func TestStoreSurfacesProviderFailure(t *testing.T) {
	st := newSQLite(t)
	e, err := st.Entries().Create(context.Background(), storetest.Entry("alice", "x", 50))
	require.NoError(t, err)

	es := New(st, failingProvider{}, zerolog.Nop())
	assert.Error(t, es.Store(context.Background(), e.EntryID, "alice", "x"))
	assert.Empty(t, es.FindSimilar(context.Background(), "alice", "x"))
}
