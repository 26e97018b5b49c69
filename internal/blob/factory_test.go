package blob

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-content-sync/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	store, err := NewFromConfig(t.Context(), &config.BlobStoreConfig{
		Type:       config.BlobStoreTypeFilesystem,
		Filesystem: &config.FilesystemBlobConfig{Path: filepath.Join(t.TempDir(), "blobs")},
	})
	require.NoError(t, err)
	assert.IsType(t, &FilesystemStore{}, store)

	_, err = NewFromConfig(t.Context(), &config.BlobStoreConfig{Type: "tape"})
	require.Error(t, err)

	_, err = NewFromConfig(t.Context(), &config.BlobStoreConfig{
		Type:  config.BlobStoreTypeMinio,
		Minio: &config.MinioBlobStoreConfig{Endpoint: "localhost:9000", Bucket: "b", SecretKeyFile: "/nonexistent"},
	})
	require.Error(t, err)
}
