package app

import (
	"github.com/stacklok/toolhive-content-sync/internal/blob"
	"github.com/stacklok/toolhive-content-sync/internal/providers"
	"github.com/stacklok/toolhive-content-sync/internal/service"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
	"github.com/stacklok/toolhive-content-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Store holds repositories, package versions and associations
	Store store.Store

	// StateService tracks the sync status of every repository
	StateService state.RepositoryStateService

	// BlobStore holds package content
	BlobStore blob.Store

	// Providers is the live set of content providers
	Providers *providers.Set

	// Synchronizer runs single repository syncs
	Synchronizer pkgsync.Synchronizer

	// SyncCoordinator manages background synchronization
	SyncCoordinator coordinator.Coordinator

	// ContentService provides the API business logic
	ContentService service.ContentService
}
