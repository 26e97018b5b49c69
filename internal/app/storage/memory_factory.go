package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/status"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/store/memory"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
)

// statusDirName is the directory under DataDir holding sync status files
const statusDirName = "status"

// MemoryFactory keeps content in process memory and sync status in files
// under the data directory.
type MemoryFactory struct {
	store             *memory.Store
	statusPersistence status.StatusPersistence
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates a memory-backed storage factory. Status files
// left by a previous process describe content that no longer exists, so
// they are discarded.
func NewMemoryFactory(cfg *config.Config) (*MemoryFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	statusDir := filepath.Join(cfg.DataDir, statusDirName)
	if err := os.RemoveAll(statusDir); err != nil {
		return nil, fmt.Errorf("failed to reset status directory %s: %w", statusDir, err)
	}
	if err := os.MkdirAll(statusDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create status directory %s: %w", statusDir, err)
	}

	slog.Info("Creating memory-backed storage factory", "status_dir", statusDir)

	return &MemoryFactory{
		store:             memory.New(),
		statusPersistence: status.NewFileStatusPersistence(statusDir),
	}, nil
}

// CreateStore returns the in-memory content store. Every call returns the
// same store.
func (m *MemoryFactory) CreateStore(_ context.Context) (store.Store, error) {
	return m.store, nil
}

// CreateStateService creates a file-based state service for sync status tracking.
func (m *MemoryFactory) CreateStateService(_ context.Context) (state.RepositoryStateService, error) {
	slog.Debug("Creating file-based state service")
	return state.NewStateService(m.statusPersistence, nil), nil
}

// CheckReadiness always succeeds
func (*MemoryFactory) CheckReadiness(_ context.Context) error {
	return nil
}

// Cleanup is a no-op
func (*MemoryFactory) Cleanup() {}
