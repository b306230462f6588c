package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationsLogPrefix = "db:migrations"

// Migration is one numbered SQL file from the migrations directory.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrationFileName matches "<version>_<name>.sql", e.g. 001_hosted_components.sql.
var migrationFileName = regexp.MustCompile(`^(\d+)_([A-Za-z0-9_]+)\.sql$`)

const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version  INTEGER PRIMARY KEY,
    name     TEXT NOT NULL,
    applied  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// ParseMigrationName splits a migration file name into version and name.
func ParseMigrationName(file string) (int, string, bool) {
	m := migrationFileName.FindStringSubmatch(file)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return v, m[2], true
}

// LoadMigrations reads the .sql files in dir ordered by version. Other files
// are ignored; a .sql file without a version prefix or a repeated version is
// an error.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		v, name, ok := ParseMigrationName(e.Name())
		if !ok {
			return nil, fmt.Errorf("%s - %s is not named <version>_<name>.sql", migrationsLogPrefix, e.Name())
		}
		if prev, dup := seen[v]; dup {
			return nil, fmt.Errorf("%s - version %d used by both %s and %s", migrationsLogPrefix, v, prev, e.Name())
		}
		seen[v] = e.Name()

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, path, err)
		}
		out = append(out, Migration{Version: v, Name: name, SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })

	slog.Info(fmt.Sprintf("%s - Loaded %d migrations from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}

// Pending returns the migrations whose version is not in applied, in order.
func Pending(all []Migration, applied map[int]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

// AppliedVersions returns the versions recorded in schema_migrations.
func AppliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[int]bool, error) {
	if _, err := pool.Exec(ctx, schemaMigrationsDDL); err != nil {
		return nil, fmt.Errorf("%s - create schema_migrations: %w", migrationsLogPrefix, err)
	}
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%s - list applied: %w", migrationsLogPrefix, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s - scan version: %w", migrationsLogPrefix, err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// RunMigrations applies each pending migration in its own transaction and
// records it. Returns how many were applied.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) (int, error) {
	applied, err := AppliedVersions(ctx, pool)
	if err != nil {
		return 0, err
	}
	pending := Pending(migrations, applied)
	slog.Info(fmt.Sprintf("%s - %d of %d migrations pending", migrationsLogPrefix, len(pending), len(migrations)))

	for i, m := range pending {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return i, fmt.Errorf("%s - begin %03d: %w", migrationsLogPrefix, m.Version, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return i, fmt.Errorf("%s - migration %03d_%s failed: %w", migrationsLogPrefix, m.Version, m.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
			tx.Rollback(ctx)
			return i, fmt.Errorf("%s - record %03d: %w", migrationsLogPrefix, m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return i, fmt.Errorf("%s - commit %03d: %w", migrationsLogPrefix, m.Version, err)
		}
		slog.Info(fmt.Sprintf("%s - Applied %03d_%s", migrationsLogPrefix, m.Version, m.Name))
	}
	return len(pending), nil
}

// MigrationStatus prints every migration in migrationPath as applied or pending.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	migrations, err := LoadMigrations(migrationPath)
	if err != nil {
		return err
	}
	applied, err := AppliedVersions(ctx, pool)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		state := "pending"
		if applied[m.Version] {
			state = "applied"
		}
		fmt.Printf("%03d_%s\t%s\n", m.Version, m.Name, state)
	}
	if n := len(Pending(migrations, applied)); n > 0 {
		fmt.Printf("%d pending (run 'hostinterop migrate up')\n", n)
	}
	return nil
}

// MigrationDown is a no-op: migrations are forward-only.
func MigrationDown(context.Context, *pgxpool.Pool, string) error {
	fmt.Println("Migration down: not supported (migrations are forward-only). Use a database backup to roll back.")
	return nil
}
