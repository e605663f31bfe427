// Package sqlite provides the file-backed journal store used for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mycelian/mycelian-journal/internal/store/sqlstore"
)

// Open opens (or creates) a SQLite database at path with WAL journaling and
// foreign keys enabled, then ensures the journal schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// single writer; readers share the connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := sqlstore.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB wraps an open database.
func NewWithDB(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(db, sqlstore.Question)
}
