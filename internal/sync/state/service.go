// Package state contains logic for managing repository sync state which the server persists.
package state

import (
	"context"
	"errors"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/status"
)

// ErrRepositoryNotFound is returned when no sync status exists for a repository.
var ErrRepositoryNotFound = errors.New("repository not found")

// RepositoryStateService provides methods for inspecting and updating the sync state of repositories.
//
//go:generate mockgen -destination=mocks/mock_repository_state_service.go -package=mocks github.com/stacklok/toolhive-content-sync/internal/sync/state RepositoryStateService
type RepositoryStateService interface {
	// Initialize populates the state store with the configured repositories.
	// It is called at application startup; existing statuses are kept.
	Initialize(ctx context.Context, repositories []config.RepositoryConfig) error
	// ListSyncStatuses lists all available sync statuses keyed by repository name.
	ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error)
	// GetSyncStatus returns the status of the named repository.
	GetSyncStatus(ctx context.Context, repositoryName string) (*status.SyncStatus, error)
	// UpdateSyncStatus overrides the status of the named repository.
	UpdateSyncStatus(ctx context.Context, repositoryName string, syncStatus *status.SyncStatus) error
	// UpdateStatusAtomically is used to carry out atomic updates on a sync status.
	// Implementations fetch the existing state, apply testAndUpdateFn to it, and
	// store the result if the function reports a change, all as a single atomic
	// action. The returned boolean is the one testAndUpdateFn returned.
	UpdateStatusAtomically(
		ctx context.Context,
		repositoryName string,
		testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
	) (bool, error)
}

// initialStatus is the status of a repository that never ran
func initialStatus() *status.SyncStatus {
	return &status.SyncStatus{
		Phase:   status.SyncPhaseFailed,
		Message: "No previous sync status found",
	}
}
