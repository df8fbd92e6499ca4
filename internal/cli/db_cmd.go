package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sbenjam1n/upgradeadvisor/internal/config"
	"github.com/sbenjam1n/upgradeadvisor/internal/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "PostgreSQL profile store management",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations in migrations.dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is not set\nSet %s_DATABASE_URL environment variable", config.EnvPrefix)
		}
		ctx := cmd.Context()
		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		files, err := db.Migrate(ctx, pool, cfg.Migrations.Dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", filepath.Base(f))
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
}
