package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/host-interop/pkg/component"
)

const repoLogPrefix = "db:repository"

const componentColumns = `id, component_id, command_id, location, params, description, revision, created, modified`

// Repository provides database access for the hosted component table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetComponent finds a component by its component id. A missing row returns nil, nil.
func (r *Repository) GetComponent(ctx context.Context, componentID string) (*HostedComponent, error) {
	slog.Debug(fmt.Sprintf("%s - GetComponent id=%s", repoLogPrefix, componentID))

	row := r.pool.QueryRow(ctx,
		`SELECT `+componentColumns+`
		 FROM hosted_components
		 WHERE component_id = $1
		 LIMIT 1`, componentID)

	return scanComponent(row)
}

// ListComponents returns every component ordered by component id.
func (r *Repository) ListComponents(ctx context.Context) ([]HostedComponent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+componentColumns+`
		 FROM hosted_components
		 ORDER BY component_id`)
	if err != nil {
		return nil, fmt.Errorf("%s - list components failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []HostedComponent
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - list components rows: %w", repoLogPrefix, err)
	}
	return out, nil
}

// UpsertComponent creates or updates a component.
func (r *Repository) UpsertComponent(ctx context.Context, params UpsertComponentParams) (*HostedComponent, error) {
	slog.Info(fmt.Sprintf("%s - UpsertComponent id=%s", repoLogPrefix, params.ComponentID))
	return upsertComponent(ctx, r.pool, params)
}

// DeleteComponent removes a component. It reports whether a row was deleted.
func (r *Repository) DeleteComponent(ctx context.Context, componentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hosted_components WHERE component_id = $1`, componentID)
	if err != nil {
		return false, fmt.Errorf("%s - delete component %s: %w", repoLogPrefix, componentID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// LoadEntries returns the table as component entries, so the repository can
// back a component.Table.
func (r *Repository) LoadEntries(ctx context.Context) ([]component.Entry, error) {
	rows, err := r.ListComponents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]component.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].Entry()
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - skipping component: %v", repoLogPrefix, err))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func upsertComponent(ctx context.Context, q execQuerier, params UpsertComponentParams) (*HostedComponent, error) {
	var paramsJSON []byte
	if len(params.Params) > 0 {
		var err error
		paramsJSON, err = json.Marshal(params.Params)
		if err != nil {
			return nil, fmt.Errorf("%s - encode params: %w", repoLogPrefix, err)
		}
	}
	now := time.Now().UTC()

	row := q.QueryRow(ctx,
		`INSERT INTO hosted_components (component_id, command_id, location, params, description, created, modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (component_id) DO UPDATE SET
		   command_id = EXCLUDED.command_id,
		   location = EXCLUDED.location,
		   params = EXCLUDED.params,
		   description = COALESCE(EXCLUDED.description, hosted_components.description),
		   revision = hosted_components.revision + 1,
		   modified = $6
		 RETURNING `+componentColumns,
		params.ComponentID, nullable(params.CommandID), nullable(params.Location), paramsJSON, nullable(params.Description), now)

	return scanComponent(row)
}

func scanComponent(row pgx.Row) (*HostedComponent, error) {
	var c HostedComponent
	err := row.Scan(
		&c.ID, &c.ComponentID, &c.CommandID, &c.Location, &c.Params, &c.Description,
		&c.Revision, &c.Created, &c.Modified,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan component failed: %w", repoLogPrefix, err)
	}
	return &c, nil
}
