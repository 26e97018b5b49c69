package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0600))

	cm, err := NewManager(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cm.Close() })

	cfg := cm.GetConfig()
	require.Len(t, cfg.Repositories, 1)
	assert.Equal(t, "base", cfg.Repositories[0].Name)
}

func TestNewManager_InvalidConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repositories: []"), 0600))

	_, err := NewManager(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load initial configuration")
}

func TestManager_ReloadKeepsPreviousOnInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0600))

	cm, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("repositories: []"), 0600))
	require.Error(t, cm.ReloadConfig())

	assert.Equal(t, "base", cm.GetConfig().Repositories[0].Name)
}

func TestManager_WatchConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0600))

	reloaded := make(chan *Config, 4)
	cm, err := NewManager(path,
		WithReloadDebounce(10*time.Millisecond),
		WithReloadFunc(func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cm.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cm.WatchConfig(ctx) }()

	updated := strings.Replace(validConfig, "repositories:\n",
		"repositories:\n  - name: extra\n    providers: [local]\n", 1)
	// Give the watcher time to register before writing
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(updated), 0600); err != nil {
			return false
		}
		select {
		case cfg := <-reloaded:
			return len(cfg.Repositories) == 2
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestManager_WatchConfig_RenameAndUnchanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0600))

	var calls atomic.Int32
	reloaded := make(chan *Config, 4)
	cm, err := NewManager(path,
		WithReloadDebounce(10*time.Millisecond),
		WithReloadFunc(func(cfg *Config) {
			calls.Add(1)
			reloaded <- cfg
		}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cm.WatchConfig(ctx) }()

	// Rewriting identical content never triggers a reload
	require.Never(t, func() bool {
		_ = os.WriteFile(path, []byte(validConfig), 0600)
		return calls.Load() > 0
	}, 300*time.Millisecond, 50*time.Millisecond)

	// Editors save by writing a temporary file and renaming it over the original
	updated := strings.Replace(validConfig, "maxAttempts: 5", "maxAttempts: 7", 1)
	require.Eventually(t, func() bool {
		tmp := filepath.Join(dir, ".config.yaml.swp")
		if err := os.WriteFile(tmp, []byte(updated), 0600); err != nil {
			return false
		}
		if err := os.Rename(tmp, path); err != nil {
			return false
		}
		select {
		case cfg := <-reloaded:
			return cfg.Sync.MaxAttempts == 7
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, cm.Close())
	assert.NoError(t, <-done)
}

func TestManager_ReloadConfig_Unchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0600))

	cm, err := NewManager(path)
	require.NoError(t, err)
	impl := cm.(*configManager)

	changed, err := impl.reload()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(validConfig, "30m", "45m", 1)), 0600))
	changed, err = impl.reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 45*time.Minute, cm.GetConfig().Repositories[0].GetSyncInterval())
}
