package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMigrateURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pgx5://u:p@h:5432/db", toMigrateURL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u:p@h:5432/db", toMigrateURL("postgresql://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://h/db", toMigrateURL("pgx5://h/db"))
}

func TestMigrationFilesPaired(t *testing.T) {
	t.Parallel()

	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	connStr, cleanup := SetupTestDBContainer(t)
	t.Cleanup(cleanup)

	m, err := NewFromConnectionString(connStr)
	require.NoError(t, err)
	defer closeMigrator(m)

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)

	for i := 1; i <= len(fnames); i++ {
		require.NoError(t, m.Steps(i))
		require.NoError(t, m.Steps(-i))
		require.NoError(t, m.Steps(i))
		require.NoError(t, m.Steps(-i))
	}

	require.NoError(t, ApplyUp(m, 0))
	// Already at the latest version
	require.NoError(t, ApplyUp(m, 0))

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, len(fnames), version)
}
