package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbenjam1n/upgradeadvisor/internal/config"
	"github.com/sbenjam1n/upgradeadvisor/internal/db"
	"github.com/sbenjam1n/upgradeadvisor/internal/queue"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare profile storage and, when configured, PostgreSQL and Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if _, err := os.Stat(cfg.Catalog.Path); err != nil {
			fmt.Fprintf(out, "Warning: catalog %s not found (set catalog.path or --catalog)\n", cfg.Catalog.Path)
		} else {
			fmt.Fprintf(out, "Catalog: %s\n", cfg.Catalog.Path)
		}

		switch cfg.Profiles.Store {
		case config.StorePostgres:
			fmt.Fprintln(out, "Connecting to PostgreSQL...")
			pool, err := db.Connect(ctx, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer pool.Close()

			fmt.Fprintln(out, "Running migrations...")
			if _, err := db.Migrate(ctx, pool, cfg.Migrations.Dir); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(out, "PostgreSQL schema created")
		default:
			if err := os.MkdirAll(cfg.Profiles.Dir, 0755); err != nil {
				return fmt.Errorf("create %s: %w", cfg.Profiles.Dir, err)
			}
			fmt.Fprintf(out, "Profiles directory: %s\n", cfg.Profiles.Dir)
		}

		if cfg.RedisEnabled() {
			fmt.Fprintln(out, "Connecting to Redis...")
			rdb, err := connectRedis()
			if err != nil {
				return fmt.Errorf("redis connection failed: %w", err)
			}
			if err := queue.New(rdb).EnsureStreams(ctx); err != nil {
				return fmt.Errorf("redis stream setup failed: %w", err)
			}
			fmt.Fprintln(out, "Redis stream created")
		} else {
			fmt.Fprintln(out, "Redis not configured: ranking cache and events are off")
		}

		fmt.Fprintln(out, "\nAdvisor initialized.")
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Run: advisor catalog validate")
		fmt.Fprintln(out, "  2. Run: advisor profile create <name>")
		fmt.Fprintln(out, "  3. Run: advisor rank <profile-id>")
		return nil
	},
}
