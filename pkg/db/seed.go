package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/host-interop/pkg/component"
)

const seedLogPrefix = "db:seed"

// SeedComponents upserts entries into hosted_components in one transaction.
// Idempotent: existing rows are updated.
func SeedComponents(ctx context.Context, pool *pgxpool.Pool, entries []component.Entry) (int, error) {
	if len(entries) == 0 {
		slog.Info(fmt.Sprintf("%s - no components to seed", seedLogPrefix))
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s - begin tx: %w", seedLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	n := 0
	for _, e := range entries {
		if e.ID == "" {
			slog.Warn(fmt.Sprintf("%s - skip component without id", seedLogPrefix))
			continue
		}
		if _, err := upsertComponent(ctx, tx, ParamsFromEntry(e)); err != nil {
			return 0, fmt.Errorf("%s - seed %s: %w", seedLogPrefix, e.ID, err)
		}
		n++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s - commit: %w", seedLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Seeded %d components", seedLogPrefix, n))
	return n, nil
}

// SeedComponentsFromFile loads a JSON, YAML or TOML component table file and seeds it.
func SeedComponentsFromFile(ctx context.Context, pool *pgxpool.Pool, path string) (int, error) {
	slog.Info(fmt.Sprintf("%s - seeding from %s", seedLogPrefix, path))
	entries, err := component.FileSource{Path: path}.LoadEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s - load table: %w", seedLogPrefix, err)
	}
	return SeedComponents(ctx, pool, entries)
}
