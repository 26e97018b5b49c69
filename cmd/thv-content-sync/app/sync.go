package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	thvapp "github.com/stacklok/toolhive-content-sync/internal/app"
	"github.com/stacklok/toolhive-content-sync/internal/config"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync of one repository",
	Long: `Run a single sync of one repository and exit.

The run uses the same storage, providers and blob store as the server. It
exits with a non-zero status unless the run completed; a partially failed
run, where some packages could not be fetched, still counts as completed.

Examples:
  thv-content-sync sync --config config.yaml --repository base
  thv-content-sync sync --config config.yaml --repository base --format json`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	syncCmd.Flags().String("repository", "", "Name of the repository to sync (required)")
	syncCmd.Flags().String("format", "", "Output format (json)")

	for _, name := range []string{"config", "repository"} {
		if err := syncCmd.MarkFlagRequired(name); err != nil {
			slog.Error("Failed to mark flag as required", "flag", name, "error", err)
			os.Exit(1)
		}
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	repository, err := cmd.Flags().GetString("repository")
	if err != nil {
		return fmt.Errorf("failed to get repository flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if _, ok := cfg.GetRepository(repository); !ok {
		return fmt.Errorf("repository %q is not configured", repository)
	}

	tel, err := newTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tel)

	app, err := thvapp.NewContentSyncApp(ctx,
		thvapp.WithConfig(cfg),
		thvapp.WithMeterProvider(tel.MeterProvider()),
		thvapp.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to build content sync app: %w", err)
	}
	defer app.Close()

	result, err := app.Components().SyncCoordinator.SyncNow(ctx, repository)
	if result != nil {
		if writeErr := writeResult(cmd.OutOrStdout(), format, result); writeErr != nil {
			return writeErr
		}
	}
	if err != nil {
		return fmt.Errorf("sync of repository %s failed: %w", repository, err)
	}
	if !result.Status.Completed() {
		return fmt.Errorf("sync of repository %s did not complete: %s", repository, result.Error)
	}
	return nil
}

// writeResult prints the run outcome as JSON on w, or as a log summary
func writeResult(w io.Writer, format string, result *pkgsync.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode sync result: %w", err)
		}
		return nil
	}

	slog.Info("Sync finished",
		"repository", result.Repository,
		"run_id", result.RunID.String(),
		"status", string(result.Status),
		"stage", string(result.Stage),
		"added", result.Added,
		"removed", result.Removed,
		"unchanged", result.Unchanged,
		"failed", result.Failed,
		"duration", result.Duration().String())
	for _, pf := range result.ProviderErrors {
		slog.Warn("Provider failed", "provider", pf.Provider, "kind", pf.Kind, "error", pf.Error)
	}
	for _, fp := range result.FailedPackages {
		slog.Warn("Package not fetched",
			"package", fp.Identity.String(),
			"provider", fp.Provider,
			"attempts", fp.Attempts,
			"error", fp.Error)
	}
	return nil
}
