package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-content-sync/database"
	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/db/sqlc"
	"github.com/stacklok/toolhive-content-sync/internal/status"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/store/postgres"
)

func TestNewDBStateService(t *testing.T) {
	t.Parallel()

	service := NewDBStateService(nil)
	require.NotNil(t, service)

	dbService, ok := service.(*dbStatusService)
	require.True(t, ok)
	assert.Nil(t, dbService.pool)
}

func TestSyncPhaseMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		phase    status.SyncPhase
		dbStatus sqlc.SyncStatus
	}{
		{status.SyncPhaseSyncing, sqlc.SyncStatusINPROGRESS},
		{status.SyncPhaseComplete, sqlc.SyncStatusSUCCEEDED},
		{status.SyncPhasePartiallyFailed, sqlc.SyncStatusPARTIALLYFAILED},
		{status.SyncPhaseFailed, sqlc.SyncStatusFAILED},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.dbStatus, syncPhaseToDBStatus(tt.phase))
			assert.Equal(t, tt.phase, dbSyncStatusToPhase(tt.dbStatus))
		})
	}

	assert.Equal(t, sqlc.SyncStatusFAILED, syncPhaseToDBStatus(""))
	assert.Equal(t, status.SyncPhaseFailed, dbSyncStatusToPhase("BOGUS"))
}

func TestDBSyncToStatus(t *testing.T) {
	t.Parallel()

	started := time.Now().Add(-time.Minute)
	ended := time.Now()
	msg := "1 package failed"

	got := dbSyncToStatus(sqlc.RepositorySync{
		SyncStatus:     sqlc.SyncStatusPARTIALLYFAILED,
		ErrorMsg:       &msg,
		AttemptCount:   0,
		StartedAt:      &started,
		EndedAt:        &ended,
		AddedCount:     3,
		RemovedCount:   1,
		UnchangedCount: 4,
		FailedCount:    1,
		PackageCount:   7,
	})

	assert.Equal(t, status.SyncPhasePartiallyFailed, got.Phase)
	assert.Equal(t, msg, got.Message)
	assert.Equal(t, &started, got.LastAttempt)
	assert.Equal(t, &ended, got.LastSyncTime)
	assert.Equal(t, 3, got.Added)
	assert.Equal(t, 1, got.Removed)
	assert.Equal(t, 4, got.Unchanged)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 7, got.PackageCount)
}

func TestDBStateService_Integration(t *testing.T) {
	t.Parallel()

	pool, cleanup := database.SetupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	st, err := postgres.New(pool)
	require.NoError(t, err)
	_, err = st.UpsertRepositories(ctx, []store.RepositorySpec{
		{Name: "base", Providers: []string{"a"}},
		{Name: "mirror", Providers: []string{"a"}},
	})
	require.NoError(t, err)

	service := NewDBStateService(pool)
	repos := []config.RepositoryConfig{{Name: "base"}, {Name: "mirror"}}
	require.NoError(t, service.Initialize(ctx, repos))

	t.Run("initial status", func(t *testing.T) {
		statuses, err := service.ListSyncStatuses(ctx)
		require.NoError(t, err)
		require.Len(t, statuses, 2)
		assert.Equal(t, status.SyncPhaseFailed, statuses["base"].Phase)
		assert.Equal(t, "No previous sync status found", statuses["base"].Message)
		assert.Nil(t, statuses["base"].LastAttempt)
	})

	t.Run("update and read back", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, service.UpdateSyncStatus(ctx, "mirror", &status.SyncStatus{
			Phase:        status.SyncPhaseComplete,
			LastAttempt:  &now,
			LastSyncTime: &now,
			Added:        2,
			PackageCount: 2,
		}))

		got, err := service.GetSyncStatus(ctx, "mirror")
		require.NoError(t, err)
		assert.Equal(t, status.SyncPhaseComplete, got.Phase)
		assert.Empty(t, got.Message)
		require.NotNil(t, got.LastSyncTime)
		assert.True(t, now.Equal(*got.LastSyncTime))
		assert.Equal(t, 2, got.Added)
		assert.Equal(t, 2, got.PackageCount)
	})

	t.Run("initialize keeps existing rows", func(t *testing.T) {
		require.NoError(t, service.Initialize(ctx, repos))
		got, err := service.GetSyncStatus(ctx, "mirror")
		require.NoError(t, err)
		assert.Equal(t, status.SyncPhaseComplete, got.Phase)
	})

	t.Run("atomic claim", func(t *testing.T) {
		claim := func(s *status.SyncStatus) bool {
			if s.Phase == status.SyncPhaseSyncing {
				return false
			}
			s.Phase = status.SyncPhaseSyncing
			return true
		}

		claimed, err := service.UpdateStatusAtomically(ctx, "base", claim)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = service.UpdateStatusAtomically(ctx, "base", claim)
		require.NoError(t, err)
		assert.False(t, claimed)

		got, err := service.GetSyncStatus(ctx, "base")
		require.NoError(t, err)
		assert.Equal(t, status.SyncPhaseSyncing, got.Phase)
	})

	t.Run("unknown repository", func(t *testing.T) {
		_, err := service.GetSyncStatus(ctx, "unknown")
		require.ErrorIs(t, err, ErrRepositoryNotFound)

		err = service.UpdateSyncStatus(ctx, "unknown", &status.SyncStatus{Phase: status.SyncPhaseFailed})
		require.ErrorIs(t, err, ErrRepositoryNotFound)

		_, err = service.UpdateStatusAtomically(ctx, "unknown", func(*status.SyncStatus) bool { return true })
		require.ErrorIs(t, err, ErrRepositoryNotFound)
	})
}

func TestNewStateService(t *testing.T) {
	t.Parallel()

	service := NewStateService(status.NewFileStatusPersistence(t.TempDir()), nil)
	_, ok := service.(*fileStateService)
	assert.True(t, ok)
}
