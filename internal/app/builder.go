package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-content-sync/internal/api"
	"github.com/stacklok/toolhive-content-sync/internal/app/storage"
	"github.com/stacklok/toolhive-content-sync/internal/blob"
	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/providers"
	"github.com/stacklok/toolhive-content-sync/internal/service"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
	"github.com/stacklok/toolhive-content-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-content-sync/internal/sync/writer"
	"github.com/stacklok/toolhive-content-sync/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Minute
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Minute
	defaultIdleTimeout    = 60 * time.Second

	// tracerName names the tracer used by the sync engine and the service
	tracerName = "github.com/stacklok/toolhive-content-sync"
)

// ContentSyncAppOptions is a function that configures the app builder
type ContentSyncAppOptions func(*contentSyncAppConfig) error

// contentSyncAppConfig collects the options of NewContentSyncApp. It
// supports dependency injection for testing while providing sensible
// defaults for production.
type contentSyncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory  storage.Factory
	providerFactory providers.Factory
	blobStore       blob.Store
	configManager   config.Manager

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

func baseConfig(opts ...ContentSyncAppOptions) (*contentSyncAppConfig, error) {
	cfg := &contentSyncAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return cfg, nil
}

// NewContentSyncApp builds every component of the content sync server
func NewContentSyncApp(
	ctx context.Context,
	opts ...ContentSyncAppOptions,
) (*ContentSyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Single decision point for database vs memory storage
	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
		}
	}()

	components, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}
	defer func() {
		if cleanupNeeded {
			_ = providers.CloseAll(context.WithoutCancel(ctx), components.Providers.Snapshot())
		}
	}()

	components.ContentService, err = buildServiceComponents(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components.ContentService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	application := &ContentSyncApp{
		config:          cfg.config,
		components:      components,
		httpServer:      httpServer,
		configManager:   cfg.configManager,
		providerFactory: cfg.providerFactory,
		ctx:             appCtx,
	}
	application.cancelFunc = func() {
		cancel()
		if err := providers.CloseAll(context.Background(), components.Providers.Snapshot()); err != nil {
			slog.Warn("Failed to close providers", "error", err)
		}
		cfg.storageFactory.Cleanup()
	}
	return application, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		switch host {
		case "localhost":
			host = "127.0.0.1"
		case "":
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithProviderFactory allows injecting a custom provider factory (for testing)
func WithProviderFactory(f providers.Factory) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.providerFactory = f
		return nil
	}
}

// WithBlobStore allows injecting a blob store instead of building one from configuration
func WithBlobStore(b blob.Store) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.blobStore = b
		return nil
	}
}

// WithConfigManager makes the app follow configuration file changes
func WithConfigManager(m config.Manager) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.configManager = m
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// buildSyncComponents builds the store, providers, synchronizer and coordinator
func buildSyncComponents(ctx context.Context, b *contentSyncAppConfig) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	st, err := b.storageFactory.CreateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	stateService, err := b.storageFactory.CreateStateService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create state service: %w", err)
	}

	if b.blobStore == nil {
		b.blobStore, err = blob.NewFromConfig(ctx, &b.config.BlobStore)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob store: %w", err)
		}
	}

	if b.providerFactory == nil {
		b.providerFactory = providers.NewFactory()
	}
	built, err := providers.BuildAll(ctx, b.providerFactory, b.config.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to create providers: %w", err)
	}
	providerSet := providers.NewSet(built)

	committer, err := writer.NewCommitter(st, b.blobStore)
	if err != nil {
		_ = providers.CloseAll(ctx, built)
		return nil, fmt.Errorf("failed to create committer: %w", err)
	}

	syncOpts := []pkgsync.Option{
		pkgsync.WithProviders(providerSet),
		pkgsync.WithFetcher(pkgsync.NewFetcherFromConfig(&b.config.Sync)),
		pkgsync.WithBlobStore(b.blobStore),
		pkgsync.WithConcurrentRunPolicy(
			b.config.Sync.ConcurrentRuns,
			config.DurationOr(b.config.Sync.LockWaitTimeout, config.DefaultLockWaitTimeout),
		),
		pkgsync.WithListTimeout(config.DurationOr(b.config.Sync.ListTimeout, config.DefaultListTimeout)),
	}

	if b.meterProvider != nil {
		syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			_ = providers.CloseAll(ctx, built)
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		syncOpts = append(syncOpts, pkgsync.WithMetrics(syncMetrics))
		slog.Info("Sync metrics enabled")
	}
	if b.tracerProvider != nil {
		syncOpts = append(syncOpts, pkgsync.WithTracer(b.tracerProvider.Tracer(tracerName)))
	}

	synchronizer, err := pkgsync.NewSynchronizer(st, committer, syncOpts...)
	if err != nil {
		_ = providers.CloseAll(ctx, built)
		return nil, fmt.Errorf("failed to create synchronizer: %w", err)
	}

	if err := InitializeRepositories(ctx, b.config.Repositories, st, stateService); err != nil {
		_ = providers.CloseAll(ctx, built)
		return nil, err
	}

	syncCoordinator := coordinator.New(synchronizer, stateService, st, b.config)
	slog.Info("Sync components initialized successfully")

	return &AppComponents{
		Store:           st,
		StateService:    stateService,
		BlobStore:       b.blobStore,
		Providers:       providerSet,
		Synchronizer:    synchronizer,
		SyncCoordinator: syncCoordinator,
	}, nil
}

// buildServiceComponents builds the content service behind the API
func buildServiceComponents(b *contentSyncAppConfig, components *AppComponents) (service.ContentService, error) {
	slog.Info("Initializing service components")

	opts := []service.ServiceOption{
		service.WithReadinessCheck(b.storageFactory.CheckReadiness),
	}
	if b.tracerProvider != nil {
		opts = append(opts, service.WithTracer(b.tracerProvider.Tracer(tracerName)))
	}

	svc, err := service.NewContentService(components.Store, components.StateService, components.SyncCoordinator, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create content service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *contentSyncAppConfig, svc service.ContentService) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Telemetry goes first to capture every request
	if b.meterProvider != nil || b.tracerProvider != nil {
		telemetryMiddleware, err := telemetry.Middleware(b.tracerProvider, b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry middleware: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{telemetryMiddleware}, b.middlewares...)
		slog.Info("HTTP telemetry middleware enabled")
	}

	router := api.NewServer(svc, api.WithMiddlewares(b.middlewares...))

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
