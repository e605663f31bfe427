// Package postgres provides the Postgres-backed journal store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mycelian/mycelian-journal/internal/store/sqlstore"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver, verifies
// connectivity and ensures the journal schema.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
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

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(db, sqlstore.Dollar)
}
