package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/db/sqlc"
	"github.com/stacklok/toolhive-content-sync/internal/status"
)

type dbStatusService struct {
	pool *pgxpool.Pool
}

// NewDBStateService creates a new database-backed repository state service.
// Repositories must already exist in the repository table.
func NewDBStateService(pool *pgxpool.Pool) RepositoryStateService {
	return &dbStatusService{
		pool: pool,
	}
}

func (d *dbStatusService) Initialize(ctx context.Context, repositories []config.RepositoryConfig) error {
	if len(repositories) == 0 {
		return nil
	}

	names := make([]string, len(repositories))
	for i, repo := range repositories {
		names[i] = repo.Name
	}

	// Existing rows are kept; another instance may be running a sync
	if err := sqlc.New(d.pool).BulkInitializeRepositorySyncs(ctx, names); err != nil {
		return fmt.Errorf("failed to initialize repository sync status: %w", err)
	}
	return nil
}

func (d *dbStatusService) ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error) {
	rows, err := sqlc.New(d.pool).ListRepositorySyncs(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*status.SyncStatus, len(rows))
	for _, row := range rows {
		result[row.Name] = dbSyncToStatus(sqlc.RepositorySync{
			RepositoryID:   row.RepositoryID,
			SyncStatus:     row.SyncStatus,
			ErrorMsg:       row.ErrorMsg,
			AttemptCount:   row.AttemptCount,
			StartedAt:      row.StartedAt,
			EndedAt:        row.EndedAt,
			AddedCount:     row.AddedCount,
			RemovedCount:   row.RemovedCount,
			UnchangedCount: row.UnchangedCount,
			FailedCount:    row.FailedCount,
			PackageCount:   row.PackageCount,
		})
	}
	return result, nil
}

func (d *dbStatusService) GetSyncStatus(ctx context.Context, repositoryName string) (*status.SyncStatus, error) {
	repoSync, err := sqlc.New(d.pool).GetRepositorySyncByName(ctx, repositoryName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repositoryName)
		}
		return nil, err
	}
	return dbSyncToStatus(repoSync), nil
}

func (d *dbStatusService) UpdateSyncStatus(ctx context.Context, repositoryName string, syncStatus *status.SyncStatus) error {
	return upsertStatus(ctx, sqlc.New(d.pool), repositoryName, syncStatus)
}

func (d *dbStatusService) UpdateStatusAtomically(
	ctx context.Context,
	repositoryName string,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("Failed to roll back status transaction", "repository", repositoryName, "error", rollbackErr)
		}
	}()

	queries := sqlc.New(d.pool).WithTx(tx)

	// The row lock serializes claims across instances sharing the database
	repoSync, err := queries.GetRepositorySyncByNameForUpdate(ctx, repositoryName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repositoryName)
		}
		return false, err
	}

	syncStatus := dbSyncToStatus(repoSync)
	if !testAndUpdateFn(syncStatus) {
		return false, nil
	}

	if err := upsertStatus(ctx, queries, repositoryName, syncStatus); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func upsertStatus(ctx context.Context, queries *sqlc.Queries, repositoryName string, syncStatus *status.SyncStatus) error {
	var errorMsg *string
	if syncStatus.Message != "" {
		errorMsg = &syncStatus.Message
	}

	//nolint:gosec // counts are bounded by repository size
	rows, err := queries.UpsertRepositorySyncByName(ctx, sqlc.UpsertRepositorySyncByNameParams{
		Name:           repositoryName,
		SyncStatus:     syncPhaseToDBStatus(syncStatus.Phase),
		ErrorMsg:       errorMsg,
		AttemptCount:   int32(syncStatus.AttemptCount),
		StartedAt:      syncStatus.LastAttempt,
		EndedAt:        syncStatus.LastSyncTime,
		AddedCount:     int32(syncStatus.Added),
		RemovedCount:   int32(syncStatus.Removed),
		UnchangedCount: int32(syncStatus.Unchanged),
		FailedCount:    int32(syncStatus.Failed),
		PackageCount:   int32(syncStatus.PackageCount),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound, repositoryName)
	}
	return nil
}

// dbSyncToStatus converts a repository_sync row to a status.SyncStatus
func dbSyncToStatus(dbSync sqlc.RepositorySync) *status.SyncStatus {
	syncStatus := &status.SyncStatus{
		Phase:        dbSyncStatusToPhase(dbSync.SyncStatus),
		LastAttempt:  dbSync.StartedAt,
		LastSyncTime: dbSync.EndedAt,
		AttemptCount: int(dbSync.AttemptCount),
		Added:        int(dbSync.AddedCount),
		Removed:      int(dbSync.RemovedCount),
		Unchanged:    int(dbSync.UnchangedCount),
		Failed:       int(dbSync.FailedCount),
		PackageCount: int(dbSync.PackageCount),
	}
	if dbSync.ErrorMsg != nil {
		syncStatus.Message = *dbSync.ErrorMsg
	}
	return syncStatus
}

// dbSyncStatusToPhase converts the sync_status enum to status.SyncPhase
func dbSyncStatusToPhase(dbStatus sqlc.SyncStatus) status.SyncPhase {
	switch dbStatus {
	case sqlc.SyncStatusINPROGRESS:
		return status.SyncPhaseSyncing
	case sqlc.SyncStatusSUCCEEDED:
		return status.SyncPhaseComplete
	case sqlc.SyncStatusPARTIALLYFAILED:
		return status.SyncPhasePartiallyFailed
	default:
		return status.SyncPhaseFailed
	}
}

// syncPhaseToDBStatus converts status.SyncPhase to the sync_status enum
func syncPhaseToDBStatus(phase status.SyncPhase) sqlc.SyncStatus {
	switch phase {
	case status.SyncPhaseSyncing:
		return sqlc.SyncStatusINPROGRESS
	case status.SyncPhaseComplete:
		return sqlc.SyncStatusSUCCEEDED
	case status.SyncPhasePartiallyFailed:
		return sqlc.SyncStatusPARTIALLYFAILED
	default:
		return sqlc.SyncStatusFAILED
	}
}
