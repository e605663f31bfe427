// Package factory builds the service's adapters from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/config"
	"github.com/mycelian/mycelian-journal/internal/store/postgres"
	"github.com/mycelian/mycelian-journal/internal/store/sqlite"
	"github.com/mycelian/mycelian-journal/internal/store/sqlstore"
)

// NewStore opens the configured database and ensures its schema.
// The caller owns the returned store's DB and should close it.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlstore.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.BootstrapTimeout())
	defer cancel()

	switch cfg.DBDriver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return sqlite.NewWithDB(db), nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", config.Prefix)
		}
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		log.Debug().Msg("postgres store ready")
		return postgres.NewWithDB(db), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
