package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
)

// RepositorySpecs converts the configured repositories into store specs
func RepositorySpecs(repos []config.RepositoryConfig) []store.RepositorySpec {
	specs := make([]store.RepositorySpec, 0, len(repos))
	for i := range repos {
		specs = append(specs, store.RepositorySpec{
			Name:         repos[i].Name,
			Description:  repos[i].Description,
			Providers:    repos[i].Providers,
			SyncInterval: repos[i].GetSyncInterval(),
		})
	}
	return specs
}

// InitializeRepositories makes the stored repositories match the
// configuration and ensures each has a sync status. Repositories removed
// from the configuration are deleted together with their associations.
// It is idempotent and safe to call on every startup and reload.
func InitializeRepositories(
	ctx context.Context,
	repos []config.RepositoryConfig,
	st store.Store,
	stateSvc state.RepositoryStateService,
) error {
	if st == nil || stateSvc == nil {
		return fmt.Errorf("store and state service are required")
	}

	stored, err := st.UpsertRepositories(ctx, RepositorySpecs(repos))
	if err != nil {
		return fmt.Errorf("failed to upsert repositories: %w", err)
	}

	if err := stateSvc.Initialize(ctx, repos); err != nil {
		return fmt.Errorf("failed to initialize sync status: %w", err)
	}

	for _, repo := range stored {
		slog.Debug("Initialized repository", "repository", repo.Name, "id", repo.ID)
	}
	slog.Info("Repositories initialized", "repository_count", len(stored))
	return nil
}
