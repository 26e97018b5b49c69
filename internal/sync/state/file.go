package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/status"
)

type fileStateService struct {
	statusPersistence status.StatusPersistence

	mu             sync.RWMutex
	cachedStatuses map[string]*status.SyncStatus
}

// NewFileStateService creates a new file-based repository state service
func NewFileStateService(statusPersistence status.StatusPersistence) RepositoryStateService {
	return &fileStateService{
		statusPersistence: statusPersistence,
		cachedStatuses:    make(map[string]*status.SyncStatus),
	}
}

func (f *fileStateService) Initialize(ctx context.Context, repositories []config.RepositoryConfig) error {
	statuses := make(map[string]*status.SyncStatus, len(repositories))
	for _, repo := range repositories {
		statuses[repo.Name] = f.loadOrInitializeStatus(ctx, repo.Name)
	}

	f.pruneUnconfigured(ctx, statuses)

	f.mu.Lock()
	f.cachedStatuses = statuses
	f.mu.Unlock()
	return nil
}

// pruneUnconfigured removes stored statuses of repositories that are no
// longer configured. Failures are logged and do not block startup.
func (f *fileStateService) pruneUnconfigured(ctx context.Context, configured map[string]*status.SyncStatus) {
	stored, err := f.statusPersistence.ListRepositories(ctx)
	if err != nil {
		slog.Warn("Failed to list stored sync statuses", "error", err)
		return
	}
	for _, name := range stored {
		if _, ok := configured[name]; ok {
			continue
		}
		if err := f.statusPersistence.RemoveStatus(ctx, name); err != nil {
			slog.Warn("Failed to remove sync status of unconfigured repository", "repository", name, "error", err)
			continue
		}
		slog.Info("Removed sync status of unconfigured repository", "repository", name)
	}
}

func (f *fileStateService) ListSyncStatuses(_ context.Context) (map[string]*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make(map[string]*status.SyncStatus, len(f.cachedStatuses))
	for name, syncStatus := range f.cachedStatuses {
		statusCopy := *syncStatus
		result[name] = &statusCopy
	}
	return result, nil
}

func (f *fileStateService) GetSyncStatus(_ context.Context, repositoryName string) (*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	syncStatus, exists := f.cachedStatuses[repositoryName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repositoryName)
	}
	statusCopy := *syncStatus
	return &statusCopy, nil
}

func (f *fileStateService) UpdateStatusAtomically(
	ctx context.Context,
	repositoryName string,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, exists := f.cachedStatuses[repositoryName]
	if !exists {
		return false, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repositoryName)
	}

	syncStatus := *current
	if !testAndUpdateFn(&syncStatus) {
		return false, nil
	}
	if err := f.statusPersistence.SaveStatus(ctx, repositoryName, &syncStatus); err != nil {
		return false, err
	}
	f.cachedStatuses[repositoryName] = &syncStatus
	return true, nil
}

func (f *fileStateService) UpdateSyncStatus(ctx context.Context, repositoryName string, syncStatus *status.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.cachedStatuses[repositoryName]; !exists {
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound, repositoryName)
	}
	if err := f.statusPersistence.SaveStatus(ctx, repositoryName, syncStatus); err != nil {
		return err
	}
	statusCopy := *syncStatus
	f.cachedStatuses[repositoryName] = &statusCopy
	return nil
}

func (f *fileStateService) loadOrInitializeStatus(ctx context.Context, repositoryName string) *status.SyncStatus {
	syncStatus, err := f.statusPersistence.LoadStatus(ctx, repositoryName)
	if err != nil {
		slog.Warn("Failed to load sync status, initializing with defaults",
			"repository", repositoryName,
			"error", err)
		syncStatus = &status.SyncStatus{}
	}

	/*
	 * The interrupted-run reset below assumes a single process owns the
	 * status files. The database service does not do this because other
	 * instances may legitimately hold a run in progress.
	 */
	switch {
	case syncStatus.Phase == "" && syncStatus.LastSyncTime == nil:
		slog.Info("No previous sync status found, initializing with defaults", "repository", repositoryName)
		syncStatus = initialStatus()
		if err := f.statusPersistence.SaveStatus(ctx, repositoryName, syncStatus); err != nil {
			slog.Warn("Failed to persist default sync status", "repository", repositoryName, "error", err)
		}
	case syncStatus.Phase == status.SyncPhaseSyncing:
		slog.Warn("Previous sync was interrupted, resetting to Failed", "repository", repositoryName)
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = "Previous sync was interrupted"
		if err := f.statusPersistence.SaveStatus(ctx, repositoryName, syncStatus); err != nil {
			slog.Warn("Failed to persist corrected sync status", "repository", repositoryName, "error", err)
		}
	}

	if syncStatus.LastSyncTime != nil {
		slog.Info("Loaded sync status",
			"repository", repositoryName,
			"phase", syncStatus.Phase,
			"last_sync_time", syncStatus.LastSyncTime.Format(time.RFC3339),
			"package_count", syncStatus.PackageCount)
	} else {
		slog.Info("Loaded sync status, no previous sync",
			"repository", repositoryName,
			"phase", syncStatus.Phase)
	}
	return syncStatus
}
