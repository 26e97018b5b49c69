package blob

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStore(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "blobs")
	store, err := NewFilesystemStore(root)
	require.NoError(t, err)

	key, err := KeyFor(digest.FromString("payload"))
	require.NoError(t, err)

	exists, err := store.Exists(t.Context(), key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Open(t.Context(), key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(t.Context(), key, strings.NewReader("payload"), 7))
	// Idempotent: the second reader is never consumed
	require.NoError(t, store.Put(t.Context(), key, strings.NewReader("ignored"), 7))

	r, err := store.Open(t.Context(), key)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Delete(t.Context(), key))
	require.NoError(t, store.Delete(t.Context(), key))
	exists, err = store.Exists(t.Context(), key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFilesystemStore_SizeMismatch(t *testing.T) {
	t.Parallel()

	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(t.Context(), "sha256/ab/abc", strings.NewReader("short"), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 10")

	exists, err := store.Exists(t.Context(), "sha256/ab/abc")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := os.ReadDir(filepath.Join(store.root, "sha256", "ab"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file must be removed")
}

func TestFilesystemStore_InvalidKey(t *testing.T) {
	t.Parallel()

	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../escape", "/abs", "", "."} {
		require.Error(t, store.Put(t.Context(), key, strings.NewReader("x"), 1), key)
		_, err := store.Exists(t.Context(), key)
		require.Error(t, err, key)
	}
}
