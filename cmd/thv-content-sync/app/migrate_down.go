package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-content-sync/database"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Migrate the database down",
	Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  thv-content-sync migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  thv-content-sync migrate down --config config.yaml --yes`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	setup, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer setup.close()

	if !setup.yes {
		prompt := "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
		if setup.numSteps > 0 {
			prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", setup.numSteps)
		}
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			slog.Info("Migration cancelled")
			return fmt.Errorf("migration cancelled by user")
		}
	}

	if setup.numSteps == 0 {
		slog.Warn("Migrating down all steps, this will remove all schema")
	} else {
		slog.Info("Migrating down", "num_steps", setup.numSteps)
	}

	if err := database.ApplyDown(setup.migrator, setup.numSteps); err != nil {
		return err
	}

	emptyMessage := ""
	if setup.numSteps == 0 {
		emptyMessage = "Database schema has been completely removed"
	}
	displayMigrationVersion(setup.migrator, emptyMessage)
	return nil
}
