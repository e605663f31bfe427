package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix nanoseconds so ordering is numeric on every
// driver. JSON fields are stored as text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS journal_entries (
        entry_id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        content TEXT NOT NULL,
        mood_score INTEGER,
        emotions TEXT,
        sentiment TEXT,
        facial_analysis TEXT,
        ai_insight TEXT,
        ai_recommendations TEXT,
        creation_time BIGINT NOT NULL,
        enriched_time BIGINT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_time
        ON journal_entries (user_id, creation_time DESC)`,
	`CREATE TABLE IF NOT EXISTS entry_embeddings (
        entry_id TEXT PRIMARY KEY REFERENCES journal_entries (entry_id) ON DELETE CASCADE,
        user_id TEXT NOT NULL,
        vector TEXT NOT NULL,
        model_version TEXT NOT NULL,
        creation_time BIGINT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_entry_embeddings_user
        ON entry_embeddings (user_id, model_version)`,
}

// EnsureSchema creates the journal tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
