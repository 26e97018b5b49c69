package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-content-sync/database"
	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/store"
)

func TestNewStorageFactory_NilConfig(t *testing.T) {
	t.Parallel()

	_, err := NewStorageFactory(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")
}

func TestNewMemoryFactory(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "nested", "data")
	stale := filepath.Join(dataDir, statusDirName, "base")
	require.NoError(t, os.MkdirAll(stale, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "status.yaml"), []byte("phase: Complete\n"), 0600))

	factory, err := NewStorageFactory(context.Background(), &config.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer factory.Cleanup()

	_, ok := factory.(*MemoryFactory)
	require.True(t, ok)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "status left by a previous process must be discarded")

	ctx := context.Background()
	st, err := factory.CreateStore(ctx)
	require.NoError(t, err)
	again, err := factory.CreateStore(ctx)
	require.NoError(t, err)
	assert.Same(t, st, again)

	stateSvc, err := factory.CreateStateService(ctx)
	require.NoError(t, err)
	require.NotNil(t, stateSvc)

	require.NoError(t, factory.CheckReadiness(ctx))
}

func TestDatabaseFactory_WithPool(t *testing.T) {
	pool, cleanup := database.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	factory, err := NewDatabaseFactory(ctx, &config.Config{}, WithPool(pool), WithTxAttempts(5))
	require.NoError(t, err)

	require.NoError(t, factory.CheckReadiness(ctx))

	st, err := factory.CreateStore(ctx)
	require.NoError(t, err)
	repos, err := st.UpsertRepositories(ctx, []store.RepositorySpec{{Name: "base", Providers: []string{"local"}}})
	require.NoError(t, err)
	require.Len(t, repos, 1)

	stateSvc, err := factory.CreateStateService(ctx)
	require.NoError(t, err)
	require.NoError(t, stateSvc.Initialize(ctx, []config.RepositoryConfig{{Name: "base", Providers: []string{"local"}}}))

	statuses, err := stateSvc.ListSyncStatuses(ctx)
	require.NoError(t, err)
	assert.Contains(t, statuses, "base")
}

func TestNewDatabaseFactory_RequiresDatabaseConfig(t *testing.T) {
	t.Parallel()

	_, err := NewDatabaseFactory(context.Background(), &config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration is required")
}
