// Package app provides application lifecycle management for the content sync server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	gosync "sync"
	"time"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/providers"
)

// ContentSyncApp encapsulates all components needed to run the content sync server.
// It provides lifecycle management and graceful shutdown capabilities
type ContentSyncApp struct {
	components      *AppComponents
	httpServer      *http.Server
	configManager   config.Manager
	providerFactory providers.Factory

	// reloadMu serializes configuration reloads and guards config
	reloadMu gosync.Mutex
	config   *config.Config

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the application components (HTTP server, background sync and
// configuration watcher). It blocks until the HTTP server stops or fails.
func (app *ContentSyncApp) Start() error {
	go func() {
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	if app.configManager != nil {
		go func() {
			if err := app.configManager.WatchConfig(app.ctx); err != nil {
				slog.Error("Configuration watcher failed", "error", err)
			}
		}()
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// It stops the sync coordinator and then shuts down the HTTP server
func (app *ContentSyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := app.httpServer.Shutdown(shutdownCtx)

	if app.configManager != nil {
		if err := app.configManager.Close(); err != nil {
			slog.Warn("Failed to close configuration watcher", "error", err)
		}
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close releases the resources of an app that was never started
func (app *ContentSyncApp) Close() {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
}

// ApplyConfig applies a reloaded configuration: providers are rebuilt and
// swapped, repositories are upserted and rescheduled. Blob store, database
// and HTTP settings only take effect after a restart.
func (app *ContentSyncApp) ApplyConfig(ctx context.Context, cfg *config.Config) error {
	app.reloadMu.Lock()
	defer app.reloadMu.Unlock()

	factory := app.providerFactory
	if factory == nil {
		factory = providers.NewFactory()
	}

	built, err := providers.BuildAll(ctx, factory, cfg.Providers)
	if err != nil {
		return fmt.Errorf("failed to rebuild providers: %w", err)
	}

	old := app.components.Providers.Replace(built)
	if err := providers.CloseAll(ctx, old); err != nil {
		slog.Warn("Failed to close replaced providers", "error", err)
	}

	if err := InitializeRepositories(ctx, cfg.Repositories, app.components.Store, app.components.StateService); err != nil {
		return err
	}

	if err := app.components.SyncCoordinator.SetRepositories(ctx, cfg.Repositories); err != nil {
		return fmt.Errorf("failed to reschedule repositories: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration applied",
		"provider_count", len(cfg.Providers),
		"repository_count", len(cfg.Repositories))
	return nil
}

// ReloadFunc returns a config.ReloadFunc applying reloaded configurations
// to app. A failed reload is logged; the previous providers stay in place
// when they could not be rebuilt.
func ReloadFunc(app func() *ContentSyncApp) config.ReloadFunc {
	return func(cfg *config.Config) {
		a := app()
		if a == nil {
			return
		}
		if err := a.ApplyConfig(a.ctx, cfg); err != nil {
			slog.Error("Failed to apply reloaded configuration", "error", err)
		}
	}
}

// GetConfig returns the active configuration
func (app *ContentSyncApp) GetConfig() *config.Config {
	app.reloadMu.Lock()
	defer app.reloadMu.Unlock()
	return app.config
}

// Components returns the application components
func (app *ContentSyncApp) Components() *AppComponents {
	return app.components
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *ContentSyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
