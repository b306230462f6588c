// Package main is the entrypoint for host-interop (binary name "hostinterop").
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/host-interop/internal/config"
	"github.com/morezero/host-interop/internal/server"
	"github.com/morezero/host-interop/pkg/bootstrap"
	"github.com/morezero/host-interop/pkg/db"
)

const usage = `Usage: hostinterop [command]
       hostinterop serve              Start the interop session (NATS, handshake, HTTP health).
       hostinterop migrate up          Create the database if missing and run migrations.
       hostinterop migrate down        Roll back one migration (migrations are forward-only).
       hostinterop migrate status      Show migration status.
       hostinterop ensure-db [name]    Create database if missing (default name: hostinterop_test).
       hostinterop clear               Delete all hosted components; schema is preserved.
       hostinterop seed [file]         Seed hosted components from a JSON, YAML or TOML table file.

Commands:
  serve           (default) Start host-interop.
  migrate up      Run database migrations only.
  migrate down    Roll back last migration (no-op).
  migrate status  Show current migration status.
  ensure-db [name] Create database on the same host as DATABASE_URL.
  clear           Truncate hosted_components.
  seed [file]     Seed components; without a file uses COMPONENT_TABLE_FILE, then the bootstrap table.

Environment: COMMS_URL, INTEROP_SUBJECT_PREFIX, HOST_TYPE, DATABASE_URL (required for migrate, clear, seed),
MIGRATION_PATH, INTEROP_HTTP_ADDR (default :8080), INTEROP_BOOTSTRAP_FILE, COMPONENT_TABLE_FILE. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("hostinterop migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("hostinterop migrate up: %v", err)
			}
		case "status":
			if err := withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
			}); err != nil {
				log.Fatalf("hostinterop migrate status: %v", err)
			}
		case "down":
			if err := withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				return db.MigrationDown(ctx, pool, cfg.MigrationPath)
			}); err != nil {
				log.Fatalf("hostinterop migrate down: %v", err)
			}
		default:
			log.Fatalf("hostinterop migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "clear":
		if err := withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
			n, err := db.ClearComponents(ctx, pool)
			if err == nil {
				fmt.Printf("Removed %d components.\n", n)
			}
			return err
		}); err != nil {
			log.Fatalf("hostinterop clear: %v", err)
		}
		return
	case "seed":
		file := ""
		if len(args) > 1 {
			file = args[1]
		}
		if err := runSeed(file); err != nil {
			log.Fatalf("hostinterop seed: %v", err)
		}
		return
	case "ensure-db":
		dbName := "hostinterop_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("hostinterop ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("hostinterop: %v", err)
	}
}

// withPool loads config, opens the database pool and runs fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), cfg.DatabaseURL); err != nil {
		return err
	}
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		migrations, err := db.LoadMigrations(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		n, err := db.RunMigrations(ctx, pool, migrations)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		fmt.Printf("Applied %d migrations.\n", n)
		return nil
	})
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	targetURL, err := db.WithDatabaseName(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

// seedFile picks the table file to seed from: the argument, then COMPONENT_TABLE_FILE.
// Empty means the bootstrap component table.
func seedFile(arg string, cfg *config.Config) string {
	if arg != "" {
		return arg
	}
	return cfg.ComponentTableFile
}

func runSeed(fileArg string) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		var (
			n   int
			err error
		)
		if path := seedFile(fileArg, cfg); path != "" {
			n, err = db.SeedComponentsFromFile(ctx, pool, path)
		} else {
			boot, lerr := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
			if lerr != nil {
				return fmt.Errorf("load bootstrap: %w", lerr)
			}
			n, err = db.SeedComponents(ctx, pool, bootstrap.CreateResolvedBootstrap(boot).Components())
		}
		if err != nil {
			return fmt.Errorf("seed components: %w", err)
		}
		fmt.Printf("Seeded %d components.\n", n)
		return nil
	})
}
