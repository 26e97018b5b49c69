package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/db"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/store/postgres"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
)

// DatabaseFactory creates database-backed storage components.
// All components created by this factory use PostgreSQL for persistence.
type DatabaseFactory struct {
	config     *config.Config
	pool       *pgxpool.Pool
	txAttempts uint
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithPool uses an existing pool instead of connecting from configuration.
// The factory takes ownership of the pool.
func WithPool(pool *pgxpool.Pool) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.pool = pool
	}
}

// WithTxAttempts sets how often a serialization failure is retried
func WithTxAttempts(n uint) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.txAttempts = n
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	factory := &DatabaseFactory{config: cfg}
	for _, opt := range opts {
		opt(factory)
	}

	if factory.pool == nil {
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required for database storage")
		}

		slog.Info("Creating database-backed storage factory")
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		factory.pool = pool
	}

	return factory, nil
}

// CreateStore creates the PostgreSQL content store
func (d *DatabaseFactory) CreateStore(_ context.Context) (store.Store, error) {
	slog.Debug("Creating database-backed content store")

	var opts []postgres.Option
	if d.txAttempts > 0 {
		opts = append(opts, postgres.WithTxAttempts(d.txAttempts))
	}
	return postgres.New(d.pool, opts...)
}

// CreateStateService creates a database-backed state service for sync status tracking.
func (d *DatabaseFactory) CreateStateService(_ context.Context) (state.RepositoryStateService, error) {
	slog.Debug("Creating database-backed state service")
	return state.NewStateService(nil, d.pool), nil
}

// CheckReadiness pings the database
func (d *DatabaseFactory) CheckReadiness(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

// Cleanup closes the database connection pool.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
