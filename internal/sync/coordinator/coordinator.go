package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	gosync "sync"
	"time"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/status"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
)

//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks -source=coordinator.go Coordinator

// staleSyncTimeout is how long an in-progress status may be held before
// another instance treats the run as abandoned
const staleSyncTimeout = time.Hour

// Coordinator manages background synchronization scheduling and execution for multiple repositories
type Coordinator interface {
	// Start begins background sync coordination for all repositories.
	// Blocks until context is cancelled or an unrecoverable error occurs
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator
	Stop() error

	// SyncNow runs a sync of the named repository immediately, outside the schedule
	SyncNow(ctx context.Context, name string) (*pkgsync.Result, error)

	// SetRepositories replaces the scheduled repositories after a configuration reload
	SetRepositories(ctx context.Context, repositories []config.RepositoryConfig) error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	synchronizer pkgsync.Synchronizer
	statusSvc    state.RepositoryStateService
	store        store.Store
	intervals    intervals
	now          func() time.Time

	// mu guards repositories and cancelFunc
	mu           gosync.RWMutex
	repositories []config.RepositoryConfig

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithClock replaces the clock used for scheduling decisions
func WithClock(now func() time.Time) Option {
	return func(c *defaultCoordinator) {
		c.now = now
	}
}

// New creates a new coordinator with injected dependencies
func New(
	synchronizer pkgsync.Synchronizer,
	statusSvc state.RepositoryStateService,
	st store.Store,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		synchronizer: synchronizer,
		statusSvc:    statusSvc,
		store:        st,
		intervals:    intervalsFromConfig(&cfg.Sync),
		now:          time.Now,
		repositories: slices.Clone(cfg.Repositories),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background sync coordination for all repositories
func (c *defaultCoordinator) Start(ctx context.Context) error {
	repos := c.snapshot()
	slog.Info("Starting background sync coordinator", "repository_count", len(repos))

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	if err := c.statusSvc.Initialize(ctx, repos); err != nil {
		return fmt.Errorf("failed to initialize repository sync status: %w", err)
	}

	pollingInterval := c.intervals.nextPoll()
	slog.Info("Configured coordinator poll interval",
		"base_interval", c.intervals.poll,
		"actual_interval", pollingInterval)

	ticker := time.NewTicker(pollingInterval)
	defer ticker.Stop()

	c.processDueRepositories(coordCtx)

	for {
		select {
		case <-ticker.C:
			c.processDueRepositories(coordCtx)
			ticker.Reset(c.intervals.nextPoll())
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.RLock()
	cancel := c.cancelFunc
	c.mu.RUnlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// SetRepositories implements Coordinator
func (c *defaultCoordinator) SetRepositories(ctx context.Context, repositories []config.RepositoryConfig) error {
	if err := c.statusSvc.Initialize(ctx, repositories); err != nil {
		return fmt.Errorf("failed to initialize repository sync status: %w", err)
	}

	c.mu.Lock()
	c.repositories = slices.Clone(repositories)
	c.mu.Unlock()

	slog.Info("Updated scheduled repositories", "repository_count", len(repositories))
	return nil
}

// SyncNow implements Coordinator
func (c *defaultCoordinator) SyncNow(ctx context.Context, name string) (*pkgsync.Result, error) {
	repoCfg, ok := c.repository(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgsync.ErrRepositoryNotFound, name)
	}

	claimed, reason, err := c.claim(ctx, repoCfg, true)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s (%s)", pkgsync.ErrAlreadyInProgress, name, reason)
	}

	return c.performRepositorySync(ctx, repoCfg)
}

func (c *defaultCoordinator) snapshot() []config.RepositoryConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.repositories)
}

func (c *defaultCoordinator) repository(name string) (*config.RepositoryConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.repositories {
		if c.repositories[i].Name == name {
			repo := c.repositories[i]
			return &repo, true
		}
	}
	return nil, false
}

func (c *defaultCoordinator) policy(repoCfg *config.RepositoryConfig) Policy {
	return Policy{
		Interval:      repoCfg.GetSyncInterval(),
		RetryInterval: c.intervals.retry,
		StaleAfter:    staleSyncTimeout,
	}
}

// processDueRepositories runs every repository that is due, one at a time
func (c *defaultCoordinator) processDueRepositories(ctx context.Context) {
	for _, repoCfg := range c.snapshot() {
		if ctx.Err() != nil {
			return
		}

		claimed, reason, err := c.claim(ctx, &repoCfg, false)
		if err != nil {
			slog.Error("Error checking repository sync", "repository", repoCfg.Name, "error", err)
			continue
		}
		if !claimed {
			slog.Debug("Repository does not need sync", "repository", repoCfg.Name, "reason", reason)
			continue
		}

		slog.Info("Repository is due for sync", "repository", repoCfg.Name, "reason", reason)
		_, _ = c.performRepositorySync(ctx, &repoCfg)
	}
}

// claim flips the status to Syncing when the repository should sync. The
// check and the flip are one atomic update so only one instance runs it.
func (c *defaultCoordinator) claim(ctx context.Context, repoCfg *config.RepositoryConfig, manual bool) (bool, Reason, error) {
	var reason Reason
	claimed, err := c.statusSvc.UpdateStatusAtomically(ctx, repoCfg.Name, func(s *status.SyncStatus) bool {
		now := c.now()
		reason = ShouldSync(s, c.policy(repoCfg), now, manual)
		if !reason.ShouldSync() {
			return false
		}

		s.Phase = status.SyncPhaseSyncing
		s.Message = "Sync in progress"
		s.LastAttempt = &now
		s.AttemptCount++
		return true
	})
	if err != nil {
		return false, reason, err
	}
	return claimed, reason, nil
}

// performRepositorySync runs a claimed repository and records the outcome
func (c *defaultCoordinator) performRepositorySync(
	ctx context.Context, repoCfg *config.RepositoryConfig,
) (*pkgsync.Result, error) {
	name := repoCfg.Name

	current, err := c.statusSvc.GetSyncStatus(ctx, name)
	if err != nil {
		current = &status.SyncStatus{}
	}

	// Always leave the Syncing phase, even if the run panics or ctx is gone
	final := *current
	final.Phase = status.SyncPhaseFailed
	final.Message = fmt.Sprintf("Unexpected failure while syncing repository %s", name)
	defer func() {
		if err := c.statusSvc.UpdateSyncStatus(context.WithoutCancel(ctx), name, &final); err != nil {
			slog.Error("Error updating sync status", "repository", name, "error", err)
		}
	}()

	slog.Info("Starting sync operation", "repository", name, "attempt", current.AttemptCount)

	repo, err := c.store.GetRepositoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("%w: %s", pkgsync.ErrRepositoryNotFound, name)
		}
		final.Message = err.Error()
		return nil, err
	}

	result, syncErr := c.synchronizer.Synchronize(ctx, repo.ID)
	applyResult(&final, result, syncErr)
	return result, syncErr
}

// applyResult folds a run outcome into the repository status
func applyResult(s *status.SyncStatus, result *pkgsync.Result, syncErr error) {
	if result != nil {
		s.LastRunID = result.RunID.String()
		s.Failed = result.Failed
	}

	if syncErr != nil || result == nil || !result.Status.Completed() {
		s.Phase = status.SyncPhaseFailed
		s.Added, s.Removed = 0, 0
		switch {
		case syncErr != nil:
			s.Message = syncErr.Error()
		case result != nil:
			s.Message = result.Error
		}
		return
	}

	finished := result.FinishedAt
	s.LastSyncTime = &finished
	s.AttemptCount = 0
	s.Added = result.Added
	s.Removed = result.Removed
	s.Unchanged = result.Unchanged
	s.PackageCount = result.PackageCount()

	if result.Status == pkgsync.StatusPartiallyFailed {
		s.Phase = status.SyncPhasePartiallyFailed
		s.Message = fmt.Sprintf("Sync completed with %d provider failures and %d package failures",
			len(result.ProviderErrors), result.Failed)
		return
	}
	s.Phase = status.SyncPhaseComplete
	s.Message = "Sync completed successfully"
}
