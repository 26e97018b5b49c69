package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-content-sync/database"
)

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending database migrations",
	Long: `Apply pending database migrations to bring the schema up to date.
This command reads the database connection parameters from the config file
and applies every migration that hasn't been run yet, or --num-steps of them.`,
	RunE: runMigrateUp,
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	setup, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer setup.close()

	if !setup.yes {
		user := setup.cfg.GetMigrationUser()
		prompt := fmt.Sprintf("About to apply migrations to %s@%s:%d/%s. Continue?",
			user, setup.cfg.Host, setup.cfg.Port, setup.cfg.Database)
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Applying database migrations", "num_steps", setup.numSteps)
	if err := database.ApplyUp(setup.migrator, setup.numSteps); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	displayMigrationVersion(setup.migrator, "")
	return nil
}
