package state

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/toolhive-content-sync/internal/status"
)

// NewStateService creates a RepositoryStateService for the configured storage.
//
// With a database pool the status lives in the repository_sync table and is
// shared by every instance using the database. Without one it is persisted to
// disk through statusPersistence.
func NewStateService(statusPersistence status.StatusPersistence, pool *pgxpool.Pool) RepositoryStateService {
	if pool != nil {
		return NewDBStateService(pool)
	}
	return NewFileStateService(statusPersistence)
}
