package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/opencontainers/go-digest"
)

// DefaultReloadDebounce is how long the watcher waits for a burst of file
// events to settle before reloading
const DefaultReloadDebounce = 500 * time.Millisecond

// Manager provides thread-safe, read-only access to a configuration file.
// The file is never written by the server; updates come from external
// sources (volume mounts or editors) and are validated
// before they replace the active configuration.
type Manager interface {
	// GetConfig returns a copy of the current configuration
	GetConfig() *Config

	// ReloadConfig reads the file again and applies it if valid. The
	// previous configuration stays active when the new one is invalid.
	ReloadConfig() error

	// WatchConfig reloads on every change of the file content and invokes
	// the registered callbacks with the new configuration. Blocks until
	// ctx is done or the manager is closed.
	WatchConfig(ctx context.Context) error

	// Close releases the file watcher
	Close() error
}

// ReloadFunc is invoked with every configuration applied by the watcher
type ReloadFunc func(cfg *Config)

type configManager struct {
	mu         sync.RWMutex
	config     *Config
	digest     digest.Digest
	configPath string
	onReload   []ReloadFunc
	debounce   time.Duration

	watcherMu sync.Mutex
	watcher   *fsnotify.Watcher
}

// ManagerOption allows customizing Manager behavior
type ManagerOption func(*configManager)

// WithReloadFunc registers a callback for configurations applied by the watcher
func WithReloadFunc(fn ReloadFunc) ManagerOption {
	return func(cm *configManager) {
		cm.onReload = append(cm.onReload, fn)
	}
}

// WithReloadDebounce overrides DefaultReloadDebounce
func WithReloadDebounce(d time.Duration) ManagerOption {
	return func(cm *configManager) {
		cm.debounce = d
	}
}

// NewManager loads and validates the configuration at configPath.
func NewManager(configPath string, opts ...ManagerOption) (Manager, error) {
	cm := &configManager{configPath: configPath, debounce: DefaultReloadDebounce}
	for _, opt := range opts {
		opt(cm)
	}

	if _, err := cm.reload(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}
	return cm, nil
}

func (cm *configManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	configCopy := *cm.config
	return &configCopy
}

func (cm *configManager) ReloadConfig() error {
	_, err := cm.reload()
	return err
}

// reload applies the file if it is valid, reporting whether its content
// differs from the active configuration
func (cm *configManager) reload() (bool, error) {
	data, err := readConfigFile(WithConfigPath(cm.configPath))
	if err != nil {
		return false, err
	}

	dgst := digest.FromBytes(data)
	cm.mu.RLock()
	unchanged := cm.config != nil && cm.digest == dgst
	cm.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	newConfig, err := Parse(data)
	if err != nil {
		return false, err
	}

	cm.mu.Lock()
	cm.config = newConfig
	cm.digest = dgst
	cm.mu.Unlock()

	slog.Info("Configuration loaded", "path", cm.configPath, "digest", dgst.String())
	return true, nil
}

func (cm *configManager) WatchConfig(ctx context.Context) error {
	cm.watcherMu.Lock()
	if cm.watcher != nil {
		cm.watcherMu.Unlock()
		return fmt.Errorf("config watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cm.watcherMu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cm.watcher = watcher
	cm.watcherMu.Unlock()

	// The directory is watched rather than the file: editors replace the
	// file by rename and ConfigMap updates swap a symlink, both of which
	// drop a watch placed on the file itself.
	dir := filepath.Dir(cm.configPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}

	slog.Info("Watching configuration file", "path", cm.configPath)

	timer := time.NewTimer(cm.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if cm.relevant(event) {
				timer.Reset(cm.debounce)
			}

		case <-timer.C:
			cm.reloadAndNotify()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

// relevant reports whether event may have changed the configuration file.
// ConfigMap mounts update the file through a "..data" symlink in the same
// directory, so any create or rename there counts.
func (cm *configManager) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return filepath.Clean(event.Name) == filepath.Clean(cm.configPath) || name == "..data"
}

func (cm *configManager) reloadAndNotify() {
	changed, err := cm.reload()
	if err != nil {
		slog.Error("Failed to reload configuration, keeping previous", "error", err)
		return
	}
	if !changed {
		slog.Debug("Configuration file content unchanged", "path", cm.configPath)
		return
	}

	cfg := cm.GetConfig()
	for _, fn := range cm.onReload {
		fn(cfg)
	}
}

func (cm *configManager) Close() error {
	cm.watcherMu.Lock()
	defer cm.watcherMu.Unlock()

	if cm.watcher != nil {
		if err := cm.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		cm.watcher = nil
	}
	return nil
}
