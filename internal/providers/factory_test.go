package providers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	gitmocks "github.com/stacklok/toolhive-content-sync/internal/git/mocks"
)

func TestFactory_CreateProvider(t *testing.T) {
	t.Parallel()

	secret := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(secret, []byte("s3cret\n"), 0o600))

	var gotS3 S3Options
	factory := NewFactory(
		WithGitClient(gitmocks.NewMockClient(gomock.NewController(t))),
		WithS3ClientFunc(func(_ context.Context, opts S3Options) (S3API, error) {
			gotS3 = opts
			return &fakeS3{}, nil
		}),
	)

	tests := []struct {
		name     string
		cfg      config.ProviderConfig
		wantType string
		wantErr  string
	}{
		{
			name:     "filesystem",
			cfg:      config.ProviderConfig{Name: "fs", Filesystem: &config.FilesystemProviderConfig{Path: t.TempDir()}},
			wantType: "filesystem",
		},
		{
			name:     "http",
			cfg:      config.ProviderConfig{Name: "web", HTTP: &config.HTTPProviderConfig{Endpoint: "https://example.com/repo"}},
			wantType: "http",
		},
		{
			name:     "git",
			cfg:      config.ProviderConfig{Name: "g", Git: &config.GitProviderConfig{Repository: "https://example.com/x.git", Username: "bot", PasswordFile: secret}},
			wantType: "git",
		},
		{
			name:     "s3",
			cfg:      config.ProviderConfig{Name: "bucket", S3: &config.S3ProviderConfig{Bucket: "pkgs", AccessKeyID: "AKIA", SecretKeyFile: secret}},
			wantType: "s3",
		},
		{
			name: "memory",
			cfg: config.ProviderConfig{Name: "mem", Memory: &config.MemoryProviderConfig{Packages: []config.MemoryPackage{
				{Name: "app", Version: "1", Type: "generic", Content: "hello"},
			}}},
			wantType: "memory",
		},
		{
			name:    "missing git password file",
			cfg:     config.ProviderConfig{Name: "g", Git: &config.GitProviderConfig{Repository: "https://example.com/x.git", Username: "bot", PasswordFile: "/nonexistent"}},
			wantErr: "provider g",
		},
		{
			name:    "no type",
			cfg:     config.ProviderConfig{Name: "none"},
			wantErr: "unsupported provider type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := factory.CreateProvider(t.Context(), &tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Name, p.Name())
			assert.Equal(t, tt.wantType, p.Type())
		})
	}

	assert.Equal(t, "s3cret", gotS3.SecretAccessKey)
	assert.Equal(t, "AKIA", gotS3.AccessKeyID)
}

func TestFactory_MemoryPackagesServed(t *testing.T) {
	t.Parallel()

	p, err := NewFactory().CreateProvider(t.Context(), &config.ProviderConfig{
		Name: "mem",
		Memory: &config.MemoryProviderConfig{Packages: []config.MemoryPackage{
			{Name: "app", Version: "1", Type: "generic", Content: "hello"},
			{Name: "app", Version: "2", Type: "generic", Content: "world"},
		}},
	})
	require.NoError(t, err)

	descs, err := Collect(t.Context(), p)
	require.NoError(t, err)
	assert.Len(t, descs, 2)
}

func TestBuildAll(t *testing.T) {
	t.Parallel()

	cfgs := []config.ProviderConfig{
		{Name: "a", Memory: &config.MemoryProviderConfig{}},
		{Name: "b", Filesystem: &config.FilesystemProviderConfig{Path: t.TempDir()}},
	}

	built, err := BuildAll(t.Context(), NewFactory(), cfgs)
	require.NoError(t, err)
	assert.Len(t, built, 2)
	assert.Contains(t, built, "a")
	assert.Contains(t, built, "b")
	require.NoError(t, CloseAll(t.Context(), built))

	cfgs = append(cfgs, config.ProviderConfig{Name: "broken"})
	_, err = BuildAll(t.Context(), NewFactory(), cfgs)
	require.Error(t, err)
}

type failingCloser struct {
	*MemoryProvider
}

func (failingCloser) Close(context.Context) error {
	return errors.New("close failed")
}

func TestCloseAll(t *testing.T) {
	t.Parallel()

	err := CloseAll(t.Context(), map[string]Provider{
		"ok":     NewMemoryProvider("ok"),
		"broken": failingCloser{NewMemoryProvider("broken")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider broken: close failed")
}
