package providers

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
}

func TestFilesystemProvider(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "index.yaml", `
packages:
  - {name: app, version: "1.0", type: generic, path: pkgs/app-1.0.tgz, size: 7}
  - {name: app, version: "2.0", type: generic, path: pkgs/app-2.0.tgz}
`)
	writeFile(t, dir, "pkgs/app-1.0.tgz", "content")

	p := NewFilesystemProvider("local", dir, "")
	assert.Equal(t, "filesystem", p.Type())

	descs, err := Collect(t.Context(), p)
	require.NoError(t, err)
	require.Len(t, descs, 2)

	r, err := p.OpenContent(t.Context(), descs[0])
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "content", string(data))

	_, err = p.OpenContent(t.Context(), descs[1])
	require.ErrorIs(t, err, ErrContentNotFound)
}

func TestFilesystemProvider_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		p := NewFilesystemProvider("local", filepath.Join(t.TempDir(), "missing"), "")
		_, err := Collect(t.Context(), p)
		require.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("missing index", func(t *testing.T) {
		t.Parallel()
		p := NewFilesystemProvider("local", t.TempDir(), "")
		_, err := Collect(t.Context(), p)
		require.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("malformed index", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, "catalog.yaml", "packages: [")
		p := NewFilesystemProvider("local", dir, "catalog.yaml")
		_, err := Collect(t.Context(), p)
		require.ErrorIs(t, err, ErrProviderProtocol)
	})

	t.Run("location escapes root", func(t *testing.T) {
		t.Parallel()
		p := NewFilesystemProvider("local", t.TempDir(), "")
		desc := content.PackageDescriptor{
			PackageIdentity: content.PackageIdentity{Name: "app", Version: "1", Type: "generic"},
			Location:        "../../etc/passwd",
		}
		_, err := p.OpenContent(t.Context(), desc)
		require.ErrorIs(t, err, ErrProviderProtocol)
	})
}
