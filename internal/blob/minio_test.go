package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

func setupMinio(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping minio integration test in short mode")
	}

	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "minio/minio:latest",
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	tc.CleanupContainer(t, container)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestMinioStore(t *testing.T) {
	t.Parallel()

	endpoint := setupMinio(t)
	store, err := NewMinioStore(t.Context(), MinioOptions{
		Endpoint:        endpoint,
		Bucket:          "packages",
		AccessKeyID:     minioUser,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)

	key, err := KeyFor(digest.FromString("payload"))
	require.NoError(t, err)

	exists, err := store.Exists(t.Context(), key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Open(t.Context(), key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(t.Context(), key, strings.NewReader("payload"), 7))
	require.NoError(t, store.Put(t.Context(), key, strings.NewReader("payload"), 7))

	r, err := store.Open(t.Context(), key)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Delete(t.Context(), key))
	exists, err = store.Exists(t.Context(), key)
	require.NoError(t, err)
	assert.False(t, exists)
}
