package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/store"
)

// Entry builds a minimal journal entry for tests.
func Entry(userID, content string, mood int) *model.JournalEntry {
	return &model.JournalEntry{
		UserID:    userID,
		Content:   content,
		MoodScore: &mood,
		Emotions:  map[string]float64{"joy": 0.5},
		Sentiment: &model.SentimentResult{Label: model.SentimentNeutral, Confidence: 0.5},
	}
}

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	otherID := "u-" + uuid.New().String()

	// Entries
	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i, content := range []string{"first", "second", "third"} {
		e := Entry(userID, content, 40+i*10)
		e.CreationTime = base.Add(time.Duration(i) * time.Minute)
		got, err := s.Entries().Create(ctx, e)
		if err != nil {
			t.Fatalf("CreateEntry: %v", err)
		}
		if got.EntryID == "" {
			t.Fatalf("CreateEntry: empty entry id")
		}
		ids = append(ids, got.EntryID)
	}
	noMood := &model.JournalEntry{UserID: otherID, Content: "other user", CreationTime: base}
	other, err := s.Entries().Create(ctx, noMood)
	if err != nil {
		t.Fatalf("CreateEntry other: %v", err)
	}

	got, err := s.Entries().GetByID(ctx, userID, ids[1])
	if err != nil || got.Content != "second" || got.MoodScore == nil || *got.MoodScore != 50 {
		t.Fatalf("GetEntry: got=%+v err=%v", got, err)
	}
	if got.Sentiment == nil || got.Sentiment.Label != model.SentimentNeutral || got.Emotions["joy"] != 0.5 {
		t.Fatalf("GetEntry: json fields not round-tripped: %+v", got)
	}
	if _, err := s.Entries().GetByID(ctx, otherID, ids[1]); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetEntry cross-user: want ErrNotFound, got %v", err)
	}
	if _, err := s.Entries().GetByID(ctx, "", ids[1]); !model.IsValidationError(err) {
		t.Fatalf("GetEntry empty user: want validation error, got %v", err)
	}
	if o, err := s.Entries().GetByID(ctx, otherID, other.EntryID); err != nil || o.MoodScore != nil {
		t.Fatalf("GetEntry without mood: got=%+v err=%v", o, err)
	}

	recent, err := s.Entries().Recent(ctx, userID, 2)
	if err != nil || len(recent) != 2 || recent[0].Content != "third" || recent[1].Content != "second" {
		t.Fatalf("Recent: n=%d err=%v", len(recent), err)
	}
	before := base.Add(90 * time.Second)
	lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, Before: &before})
	if err != nil || len(lst) != 2 || lst[0].Content != "second" {
		t.Fatalf("List before: n=%d err=%v", len(lst), err)
	}

	// Enrichment is one-shot
	en := model.Enrichment{AIInsight: "keep going", AIRecommendations: []string{"walk", "sleep"}}
	upd, err := s.Entries().UpdateEnrichment(ctx, userID, ids[0], en)
	if err != nil || upd.AIInsight == nil || *upd.AIInsight != "keep going" || len(upd.AIRecommendations) != 2 || upd.EnrichedTime == nil {
		t.Fatalf("UpdateEnrichment: got=%+v err=%v", upd, err)
	}
	if _, err := s.Entries().UpdateEnrichment(ctx, userID, ids[0], en); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("UpdateEnrichment twice: want ErrConflict, got %v", err)
	}
	if _, err := s.Entries().UpdateEnrichment(ctx, otherID, ids[1], en); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateEnrichment cross-user: want ErrNotFound, got %v", err)
	}

	// Embeddings
	version := "test-v1"
	rec := &model.EmbeddingRecord{EntryID: ids[0], UserID: userID, Vector: []float32{0.6, 0.8}, ModelVersion: version}
	if err := s.Embeddings().Put(ctx, rec); err != nil {
		t.Fatalf("PutEmbedding: %v", err)
	}
	rec.Vector = []float32{1, 0}
	if err := s.Embeddings().Put(ctx, rec); err != nil {
		t.Fatalf("PutEmbedding overwrite: %v", err)
	}
	if err := s.Embeddings().Put(ctx, &model.EmbeddingRecord{EntryID: ids[1], UserID: userID, Vector: []float32{0, 1}, ModelVersion: "other-v"}); err != nil {
		t.Fatalf("PutEmbedding second: %v", err)
	}
	if err := s.Embeddings().Put(ctx, &model.EmbeddingRecord{EntryID: other.EntryID, UserID: otherID, Vector: []float32{1, 0}, ModelVersion: version}); err != nil {
		t.Fatalf("PutEmbedding other user: %v", err)
	}
	if err := s.Embeddings().Put(ctx, &model.EmbeddingRecord{EntryID: ids[2], UserID: otherID, Vector: []float32{1, 0}, ModelVersion: version}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("PutEmbedding for foreign entry: want ErrNotFound, got %v", err)
	}

	listed, err := s.Embeddings().ListByUser(ctx, userID, version)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListByUser: n=%d err=%v", len(listed), err)
	}
	if listed[0].EntryID != ids[0] || listed[0].Content != "first" || listed[0].Vector[0] != 1 || listed[0].MoodScore == nil {
		t.Fatalf("ListByUser: unexpected record %+v", listed[0])
	}
	if e, err := s.Embeddings().Get(ctx, userID, ids[0]); err != nil || e.ModelVersion != version {
		t.Fatalf("GetEmbedding: got=%+v err=%v", e, err)
	}
	if _, err := s.Embeddings().Get(ctx, otherID, ids[0]); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetEmbedding cross-user: want ErrNotFound, got %v", err)
	}
	if _, err := s.Embeddings().ListByUser(ctx, "", version); !model.IsValidationError(err) {
		t.Fatalf("ListByUser empty user: want validation error, got %v", err)
	}
	if n, err := s.Embeddings().CountByUser(ctx, userID, version); err != nil || n != 1 {
		t.Fatalf("CountByUser: n=%d err=%v", n, err)
	}
	if n, err := s.Embeddings().CountByUser(ctx, userID, "other-v"); err != nil || n != 1 {
		t.Fatalf("CountByUser other version: n=%d err=%v", n, err)
	}
	if _, err := s.Embeddings().CountByUser(ctx, "", version); !model.IsValidationError(err) {
		t.Fatalf("CountByUser empty user: want validation error, got %v", err)
	}

	// other users' rows may exist in a shared database
	all, err := s.Embeddings().MissingEntries(ctx, version, 1000)
	if err != nil {
		t.Fatalf("MissingEntries: %v", err)
	}
	var missing []*model.JournalEntry
	missingIDs := map[string]bool{}
	for _, e := range all {
		if e.UserID == userID {
			missing = append(missing, e)
			missingIDs[e.EntryID] = true
		}
	}
	if len(missing) != 2 || !missingIDs[ids[1]] || !missingIDs[ids[2]] {
		t.Fatalf("MissingEntries: want second and third entries, got %d entries", len(missing))
	}
	if missing[0].CreationTime.After(missing[1].CreationTime) {
		t.Fatalf("MissingEntries: not oldest first")
	}
	if one, err := s.Embeddings().MissingEntries(ctx, version, 1); err != nil || len(one) != 1 {
		t.Fatalf("MissingEntries limit: n=%d err=%v", len(one), err)
	}

	// Delete cascades
	if err := s.Entries().DeleteByID(ctx, otherID, ids[0]); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteEntry cross-user: want ErrNotFound, got %v", err)
	}
	if err := s.Entries().DeleteByID(ctx, userID, ids[0]); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := s.Embeddings().Get(ctx, userID, ids[0]); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("embedding survived entry delete: %v", err)
	}
	if _, err := s.Entries().GetByID(ctx, userID, ids[0]); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("entry survived delete: %v", err)
	}
}
