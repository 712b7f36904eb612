package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/requestdesk/intake-backend/config"
	"github.com/requestdesk/intake-backend/internal/storage/postgres"
)

// OpenDB opens the Postgres pool. An unreachable database is only logged:
// store calls fail individually and the synchronizer falls back to ClickUp.
func OpenDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := postgres.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := postgres.Ping(ctx, db); err != nil {
		slog.Warn("database unreachable at startup", slog.Any("error", err))
		return db, nil
	}
	slog.Info("database connected")
	return db, nil
}
