package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRepositoryName = "test-repository"

func TestFileStatusPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)
	require.NotNil(t, persistence)

	now := time.Now().UTC().Truncate(time.Second)
	testStatus := &SyncStatus{
		Phase:        SyncPhasePartiallyFailed,
		Message:      "1 package failed",
		LastRunID:    "8d2f1f0e-4c3f-4d7a-9a8e-4d1c2b3a4f5e",
		LastAttempt:  &now,
		AttemptCount: 0,
		LastSyncTime: &now,
		Added:        3,
		Removed:      1,
		Unchanged:    7,
		Failed:       1,
		PackageCount: 10,
	}

	ctx := context.Background()
	require.NoError(t, persistence.SaveStatus(ctx, testRepositoryName, testStatus))

	expectedPath := filepath.Join(tmpDir, testRepositoryName, StatusFileName)
	_, err := os.Stat(expectedPath)
	require.NoError(t, err)

	loaded, err := persistence.LoadStatus(ctx, testRepositoryName)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, testStatus.Phase, loaded.Phase)
	assert.Equal(t, testStatus.Message, loaded.Message)
	assert.Equal(t, testStatus.LastRunID, loaded.LastRunID)
	require.NotNil(t, loaded.LastSyncTime)
	assert.True(t, now.Equal(*loaded.LastSyncTime))
	assert.Equal(t, 3, loaded.Added)
	assert.Equal(t, 1, loaded.Removed)
	assert.Equal(t, 7, loaded.Unchanged)
	assert.Equal(t, 1, loaded.Failed)
	assert.Equal(t, 10, loaded.PackageCount)
}

func TestFileStatusPersistence_LoadNonExistent(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(t.TempDir())

	loaded, err := persistence.LoadStatus(context.Background(), testRepositoryName)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, SyncPhase(""), loaded.Phase)
	assert.Nil(t, loaded.LastAttempt)
}

func TestFileStatusPersistence_Overwrite(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, persistence.SaveStatus(ctx, testRepositoryName, &SyncStatus{
		Phase:        SyncPhaseSyncing,
		LastAttempt:  &now,
		AttemptCount: 2,
	}))
	require.NoError(t, persistence.SaveStatus(ctx, testRepositoryName, &SyncStatus{
		Phase:        SyncPhaseComplete,
		Message:      "Sync completed",
		LastAttempt:  &now,
		LastSyncTime: &now,
		PackageCount: 4,
	}))

	loaded, err := persistence.LoadStatus(ctx, testRepositoryName)
	require.NoError(t, err)
	assert.Equal(t, SyncPhaseComplete, loaded.Phase)
	assert.Equal(t, "Sync completed", loaded.Message)
	assert.Zero(t, loaded.AttemptCount)
	assert.Equal(t, 4, loaded.PackageCount)

	entries, err := os.ReadDir(filepath.Join(tmpDir, testRepositoryName))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files should not remain after save")
	assert.Equal(t, StatusFileName, entries[0].Name())
}

func TestFileStatusPersistence_ListRepositories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string, p StatusPersistence)
		missing bool
		want    []string
	}{
		{
			name: "several repositories are sorted",
			setup: func(t *testing.T, _ string, p StatusPersistence) {
				t.Helper()
				ctx := context.Background()
				require.NoError(t, p.SaveStatus(ctx, "mirror", &SyncStatus{Phase: SyncPhaseSyncing}))
				require.NoError(t, p.SaveStatus(ctx, "base", &SyncStatus{Phase: SyncPhaseComplete}))
				require.NoError(t, p.SaveStatus(ctx, "edge", &SyncStatus{Phase: SyncPhaseFailed}))
			},
			want: []string{"base", "edge", "mirror"},
		},
		{
			name:  "empty directory",
			setup: func(*testing.T, string, StatusPersistence) {},
		},
		{
			name:    "missing directory",
			setup:   func(*testing.T, string, StatusPersistence) {},
			missing: true,
		},
		{
			name: "directories without a status file and stray files are ignored",
			setup: func(t *testing.T, dir string, p StatusPersistence) {
				t.Helper()
				require.NoError(t, p.SaveStatus(context.Background(), "base", &SyncStatus{Phase: SyncPhaseComplete}))
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0750))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0600))
			},
			want: []string{"base"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.missing {
				dir = filepath.Join(dir, "nonexistent")
			}
			p := NewFileStatusPersistence(dir)
			tt.setup(t, dir, p)

			got, err := p.ListRepositories(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileStatusPersistence_RemoveStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewFileStatusPersistence(dir)
	ctx := context.Background()

	require.NoError(t, p.SaveStatus(ctx, "base", &SyncStatus{Phase: SyncPhaseComplete}))
	require.NoError(t, p.SaveStatus(ctx, "retired", &SyncStatus{Phase: SyncPhaseFailed}))

	require.NoError(t, p.RemoveStatus(ctx, "retired"))
	require.NoError(t, p.RemoveStatus(ctx, "never-synced"))

	names, err := p.ListRepositories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, names)

	loaded, err := p.LoadStatus(ctx, "retired")
	require.NoError(t, err)
	assert.Equal(t, SyncPhase(""), loaded.Phase)
}

func TestFileStatusPersistence_InvalidRepositoryName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", ".", "..", "../escape", "nested/repo", `win\repo`} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			p := NewFileStatusPersistence(filepath.Join(dir, "statuses"))
			ctx := context.Background()

			err := p.SaveStatus(ctx, name, &SyncStatus{Phase: SyncPhaseComplete})
			require.ErrorIs(t, err, ErrInvalidRepositoryName)

			_, err = p.LoadStatus(ctx, name)
			require.ErrorIs(t, err, ErrInvalidRepositoryName)

			err = p.RemoveStatus(ctx, name)
			require.ErrorIs(t, err, ErrInvalidRepositoryName)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing may be written for an invalid name")
		})
	}
}

func TestSyncPhase_Succeeded(t *testing.T) {
	t.Parallel()

	assert.True(t, SyncPhaseComplete.Succeeded())
	assert.True(t, SyncPhasePartiallyFailed.Succeeded())
	assert.False(t, SyncPhaseFailed.Succeeded())
	assert.False(t, SyncPhaseSyncing.Succeeded())
	assert.False(t, SyncPhase("").Succeeded())
}
