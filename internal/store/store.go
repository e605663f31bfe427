package store

import (
	"context"

	"github.com/mycelian/mycelian-journal/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
// Every method is scoped by userID; an empty userID is a validation error.
type Store interface {
	Entries() Entries
	Embeddings() Embeddings
}

// Entries persists journal entries.
type Entries interface {
	Create(ctx context.Context, e *model.JournalEntry) (*model.JournalEntry, error)
	GetByID(ctx context.Context, userID, entryID string) (*model.JournalEntry, error)
	// List returns entries newest first.
	List(ctx context.Context, req model.ListEntriesRequest) ([]*model.JournalEntry, error)
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error)
	// UpdateEnrichment attaches AI-derived fields. It succeeds once per entry;
	// later calls return model.ErrConflict.
	UpdateEnrichment(ctx context.Context, userID, entryID string, e model.Enrichment) (*model.JournalEntry, error)
	// DeleteByID removes the entry and its embedding.
	DeleteByID(ctx context.Context, userID, entryID string) error
}

// Embeddings persists one vector per entry.
type Embeddings interface {
	// Put inserts or overwrites the record for rec.EntryID. The entry must
	// exist and belong to rec.UserID.
	Put(ctx context.Context, rec *model.EmbeddingRecord) error
	Get(ctx context.Context, userID, entryID string) (*model.EmbeddingRecord, error)
	// ListByUser returns the user's vectors of the given model version joined
	// with their entries.
	ListByUser(ctx context.Context, userID, modelVersion string) ([]*model.IndexedEntry, error)
	// CountByUser is the number of rows ListByUser would return.
	CountByUser(ctx context.Context, userID, modelVersion string) (int, error)
	// MissingEntries returns up to limit entries of any user, oldest first,
	// that have no vector of modelVersion. It backs re-embedding.
	MissingEntries(ctx context.Context, modelVersion string, limit int) ([]*model.JournalEntry, error)
}
