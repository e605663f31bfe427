package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mycelian/mycelian-journal/internal/embeddings"
	"github.com/mycelian/mycelian-journal/internal/model"
)

// Source is the store view the chromem index reconciles against.
type Source interface {
	ListByUser(ctx context.Context, userID, modelVersion string) ([]*model.IndexedEntry, error)
	CountByUser(ctx context.Context, userID, modelVersion string) (int, error)
}

// ChromemIndex keeps one chromem collection per user and encoder version, so
// a query only ever sees the requesting user's vectors of the current version.
// Before each use the collection is checked against the store count and
// rebuilt when another writer has changed the user's rows.
type ChromemIndex struct {
	db       *chromem.DB
	provider embeddings.Provider
	src      Source

	mu sync.Mutex
	// zero vectors the store holds for a user but the collection cannot
	skipped map[string]int
}

var _ Index = (*ChromemIndex)(nil)

const collectionPrefix = "journal-"

// NewChromemIndex opens a persistent index at path, or an in-memory one when
// path is empty. Collections left by other encoder versions are dropped. A nil
// src disables hydration and reconciliation.
func NewChromemIndex(path string, provider embeddings.Provider, src Source) (*ChromemIndex, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else if db, err = chromem.NewPersistentDB(path, false); err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	ix := &ChromemIndex{db: db, provider: provider, src: src, skipped: map[string]int{}}

	current := versionPrefix(provider.Version())
	for name := range db.ListCollections() {
		if strings.HasPrefix(name, collectionPrefix) && !strings.HasPrefix(name, current) {
			if err := db.DeleteCollection(name); err != nil {
				return nil, fmt.Errorf("drop stale collection %s: %w", name, err)
			}
		}
	}
	return ix, nil
}

func versionPrefix(version string) string {
	sum := sha256.Sum256([]byte(version))
	return collectionPrefix + hex.EncodeToString(sum[:4]) + "-"
}

func (ix *ChromemIndex) collectionName(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return versionPrefix(ix.provider.Version()) + hex.EncodeToString(sum[:16])
}

func (ix *ChromemIndex) embedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return ix.provider.Embed(ctx, text)
	}
}

// collection returns the user's collection, rebuilt from the store when its
// document count no longer matches the store.
func (ix *ChromemIndex) collection(ctx context.Context, userID string) (*chromem.Collection, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	name := ix.collectionName(userID)
	version := ix.provider.Version()
	c, err := ix.db.GetOrCreateCollection(name, map[string]string{"model_version": version}, ix.embedFunc())
	if err != nil {
		return nil, fmt.Errorf("collection for user: %w", err)
	}
	if ix.src == nil {
		return c, nil
	}

	stored, err := ix.src.CountByUser(ctx, userID, version)
	if err != nil {
		return nil, fmt.Errorf("count stored vectors: %w", err)
	}
	if stored == c.Count()+ix.skipped[userID] {
		return c, nil
	}

	entries, err := ix.src.ListByUser(ctx, userID, version)
	if err != nil {
		return nil, fmt.Errorf("hydrate index: %w", err)
	}
	if c.Count() > 0 {
		if err := ix.db.DeleteCollection(name); err != nil {
			return nil, fmt.Errorf("reset collection: %w", err)
		}
		if c, err = ix.db.GetOrCreateCollection(name, map[string]string{"model_version": version}, ix.embedFunc()); err != nil {
			return nil, fmt.Errorf("collection for user: %w", err)
		}
	}
	docs := make([]chromem.Document, 0, len(entries))
	zeros := 0
	for _, e := range entries {
		if e.UserID != userID {
			continue
		}
		if isZero(e.Vector) {
			zeros++
			continue
		}
		docs = append(docs, toDocument(e, version))
	}
	if len(docs) > 0 {
		if err := c.AddDocuments(ctx, docs, 1); err != nil {
			return nil, fmt.Errorf("hydrate index: %w", err)
		}
	}
	ix.skipped[userID] = zeros
	return c, nil
}

func (ix *ChromemIndex) Upsert(ctx context.Context, e *model.IndexedEntry) error {
	if err := model.RequireUserID(e.UserID); err != nil {
		return err
	}
	// zero vectors cannot be normalized; they never clear a positive threshold
	if isZero(e.Vector) {
		return nil
	}
	// the store row is already written, so the next lookup's count check
	// sees the two agree without a rebuild
	ix.mu.Lock()
	defer ix.mu.Unlock()
	c, err := ix.db.GetOrCreateCollection(ix.collectionName(e.UserID), map[string]string{"model_version": ix.provider.Version()}, ix.embedFunc())
	if err != nil {
		return fmt.Errorf("collection for user: %w", err)
	}
	return c.AddDocuments(ctx, []chromem.Document{toDocument(e, ix.provider.Version())}, 1)
}

func (ix *ChromemIndex) Query(ctx context.Context, userID, query string, limit int) ([]model.SimilarEntry, error) {
	if err := model.RequireUserID(userID); err != nil {
		return nil, err
	}
	if query == "" || limit <= 0 {
		return []model.SimilarEntry{}, nil
	}
	c, err := ix.collection(ctx, userID)
	if err != nil {
		return nil, err
	}
	// chromem requires nResults <= document count
	n := c.Count()
	if n == 0 {
		return []model.SimilarEntry{}, nil
	}
	if limit > n {
		limit = n
	}
	res, err := c.Query(ctx, query, limit, map[string]string{"model_version": ix.provider.Version()}, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	out := make([]model.SimilarEntry, 0, len(res))
	for _, r := range res {
		out = append(out, fromResult(r))
	}
	return out, nil
}

func (ix *ChromemIndex) Remove(ctx context.Context, userID, entryID string) error {
	if err := model.RequireUserID(userID); err != nil {
		return err
	}
	c := ix.db.GetCollection(ix.collectionName(userID), ix.embedFunc())
	if c == nil {
		return nil
	}
	return c.Delete(ctx, nil, nil, entryID)
}

func toDocument(e *model.IndexedEntry, version string) chromem.Document {
	meta := map[string]string{
		"user_id":       e.UserID,
		"model_version": version,
		"creation_time": strconv.FormatInt(e.CreationTime.UnixNano(), 10),
	}
	if e.MoodScore != nil {
		meta["mood_score"] = strconv.Itoa(*e.MoodScore)
	}
	return chromem.Document{
		ID:        e.EntryID,
		Content:   e.Content,
		Metadata:  meta,
		Embedding: e.Vector,
	}
}

func fromResult(r chromem.Result) model.SimilarEntry {
	out := model.SimilarEntry{
		EntryID:    r.ID,
		Content:    r.Content,
		Similarity: float64(r.Similarity),
	}
	if v, err := strconv.Atoi(r.Metadata["mood_score"]); err == nil {
		out.MoodScore = &v
	}
	if ns, err := strconv.ParseInt(r.Metadata["creation_time"], 10, 64); err == nil {
		out.CreationTime = time.Unix(0, ns).UTC()
	}
	return out
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
