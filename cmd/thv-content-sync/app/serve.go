package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	thvapp "github.com/stacklok/toolhive-content-sync/internal/app"
	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/telemetry"
	"github.com/stacklok/toolhive-content-sync/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the content sync server",
	Long: `Start the content sync server: the HTTP API and the background sync coordinator.

The server requires a configuration file (--config) that specifies:
- The upstream providers (filesystem, HTTP, Git, S3)
- The repositories and the providers each one mirrors
- Sync policies, blob store and optional database settings

Providers and repositories are reloaded when the configuration file changes.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout  = 30 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	// The watcher may fire before the app exists; reloads are dropped until it does.
	var current atomic.Pointer[thvapp.ContentSyncApp]
	manager, err := config.NewManager(configPath,
		config.WithReloadFunc(thvapp.ReloadFunc(current.Load)))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := manager.GetConfig()
	slog.Info("Loaded configuration",
		"path", configPath,
		"provider_count", len(cfg.Providers),
		"repository_count", len(cfg.Repositories))

	tel, err := newTelemetry(ctx, cfg)
	if err != nil {
		_ = manager.Close()
		return err
	}
	defer shutdownTelemetry(tel)

	app, err := thvapp.NewContentSyncApp(ctx,
		thvapp.WithConfig(cfg),
		thvapp.WithAddress(viper.GetString("address")),
		thvapp.WithConfigManager(manager),
		thvapp.WithMeterProvider(tel.MeterProvider()),
		thvapp.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		_ = manager.Close()
		return fmt.Errorf("failed to build content sync app: %w", err)
	}
	current.Store(app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			_ = app.Stop(defaultGracefulTimeout)
			return err
		}
	}

	return app.Stop(defaultGracefulTimeout)
}

// newTelemetry builds the tracer and meter providers, defaulting the
// reported service version to the build version.
func newTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	telCfg := cfg.Telemetry
	if telCfg != nil && telCfg.ServiceVersion == "" {
		withVersion := *telCfg
		withVersion.ServiceVersion = versions.Version
		telCfg = &withVersion
	}

	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return tel, nil
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Warn("Failed to shut down telemetry", "error", err)
	}
}
