// Package storage provides factory functions for creating storage-dependent components.
// A factory creates the content store and the sync state service as a family, so
// both always live on the same backend.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
//
// It also manages the lifecycle of storage resources such as database connections.
type Factory interface {
	// CreateStore creates the store for repositories, package versions and
	// associations
	CreateStore(ctx context.Context) (store.Store, error)

	// CreateStateService creates a state service for sync status tracking
	CreateStateService(ctx context.Context) (state.RepositoryStateService, error)

	// CheckReadiness reports whether the backend can serve requests
	CheckReadiness(ctx context.Context) error

	// Cleanup releases any resources held by this factory. Should be called
	// when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates a database factory when a database is
// configured and a memory factory otherwise.
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Database != nil {
		return NewDatabaseFactory(ctx, cfg, opts...)
	}
	return NewMemoryFactory(cfg)
}
