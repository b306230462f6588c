package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearComponents deletes every hosted component and returns how many rows
// went. Schema and migration history are kept.
func ClearComponents(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM hosted_components`)
	if err != nil {
		return 0, fmt.Errorf("%s - delete failed: %w", clearLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Removed %d hosted components", clearLogPrefix, tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
