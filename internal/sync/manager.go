package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-content-sync/internal/blob"
	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/otel"
	"github.com/stacklok/toolhive-content-sync/internal/providers"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/sync/writer"
	"github.com/stacklok/toolhive-content-sync/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_synchronizer.go -package=mocks -source=manager.go Synchronizer

// Synchronizer runs repository syncs
type Synchronizer interface {
	// Synchronize runs one sync of the repository. A run that did not
	// complete returns its Result together with a *Error; a rejected run
	// (unknown repository, already in progress) returns only the error.
	Synchronize(ctx context.Context, repoID uuid.UUID) (*Result, error)

	// SynchronizeRepo runs one sync and reports whether it completed,
	// possibly with some packages failed
	SynchronizeRepo(ctx context.Context, repoID uuid.UUID) bool

	// IsRunning reports whether a run for the repository is executing
	IsRunning(repoID uuid.UUID) bool
}

// defaultSynchronizer is the default implementation of Synchronizer
type defaultSynchronizer struct {
	store       store.Store
	committer   writer.Committer
	providers   *providers.Set
	fetcher     *Fetcher
	blobs       blob.Store
	metrics     *telemetry.SyncMetrics
	tracer      trace.Tracer
	locks       *repoLocks
	policy      string
	lockWait    time.Duration
	listTimeout time.Duration
}

// Option configures a Synchronizer
type Option func(*defaultSynchronizer)

// WithProviders sets the providers repositories refer to by name
func WithProviders(set *providers.Set) Option {
	return func(s *defaultSynchronizer) {
		s.providers = set
	}
}

// WithFetcher replaces the default fetcher
func WithFetcher(f *Fetcher) Option {
	return func(s *defaultSynchronizer) {
		s.fetcher = f
	}
}

// WithBlobStore lets runs reuse stored package versions whose blob exists
// instead of fetching them again. Without a blob store every stored package
// version is reused.
func WithBlobStore(b blob.Store) Option {
	return func(s *defaultSynchronizer) {
		s.blobs = b
	}
}

// WithMetrics records run metrics
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(s *defaultSynchronizer) {
		s.metrics = m
	}
}

// WithTracer traces runs
func WithTracer(t trace.Tracer) Option {
	return func(s *defaultSynchronizer) {
		s.tracer = t
	}
}

// WithConcurrentRunPolicy decides what happens to a run requested while
// another run of the same repository executes: config.ConcurrentRunReject
// fails it immediately, config.ConcurrentRunWait waits up to wait.
func WithConcurrentRunPolicy(policy string, wait time.Duration) Option {
	return func(s *defaultSynchronizer) {
		s.policy = policy
		s.lockWait = wait
	}
}

// WithListTimeout bounds the listing of each provider
func WithListTimeout(d time.Duration) Option {
	return func(s *defaultSynchronizer) {
		if d > 0 {
			s.listTimeout = d
		}
	}
}

// NewSynchronizer creates a Synchronizer
func NewSynchronizer(st store.Store, committer writer.Committer, opts ...Option) (Synchronizer, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if committer == nil {
		return nil, fmt.Errorf("committer is required")
	}

	s := &defaultSynchronizer{
		store:       st,
		committer:   committer,
		providers:   providers.NewSet(nil),
		fetcher:     NewFetcher(),
		locks:       newRepoLocks(),
		policy:      config.ConcurrentRunReject,
		lockWait:    config.DefaultLockWaitTimeout,
		listTimeout: config.DefaultListTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IsRunning implements Synchronizer
func (s *defaultSynchronizer) IsRunning(repoID uuid.UUID) bool {
	return s.locks.held(repoID)
}

// SynchronizeRepo implements Synchronizer
func (s *defaultSynchronizer) SynchronizeRepo(ctx context.Context, repoID uuid.UUID) bool {
	result, err := s.Synchronize(ctx, repoID)
	if err != nil {
		slog.Error("Repository sync did not complete", "repository_id", repoID, "error", err)
		return false
	}
	return result.Status.Completed()
}

// Synchronize implements Synchronizer
func (s *defaultSynchronizer) Synchronize(ctx context.Context, repoID uuid.UUID) (*Result, error) {
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrRepositoryNotFound, repoID, StageIdle, err)
		}
		return nil, fmt.Errorf("failed to load repository %s: %w", repoID, err)
	}

	release, err := s.acquire(ctx, repoID)
	if err != nil {
		return nil, err
	}
	defer release()

	runDone := s.metrics.RunStarted(ctx, repo.Name)
	defer runDone()

	r := &run{
		s:    s,
		repo: *repo,
		result: &Result{
			RunID:        uuid.New(),
			RepositoryID: repo.ID,
			Repository:   repo.Name,
			Stage:        StageIdle,
			StartedAt:    time.Now().UTC(),
		},
		providers: s.providers.Snapshot(),
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.Synchronize",
		trace.WithAttributes(
			otel.AttrRepositoryName.String(repo.Name),
			otel.AttrRepositoryID.String(repo.ID.String()),
			otel.AttrRunID.String(r.result.RunID.String()),
		),
	)
	defer span.End()

	slog.Info("Starting repository sync",
		"repository", repo.Name,
		"run_id", r.result.RunID,
		"providers", repo.Providers)

	r.execute(ctx)
	result := r.finish(ctx, span)

	if result.Err != nil {
		return result, result.Err
	}
	return result, nil
}

func (s *defaultSynchronizer) acquire(ctx context.Context, repoID uuid.UUID) (func(), error) {
	if s.policy != config.ConcurrentRunWait {
		release, ok := s.locks.tryAcquire(repoID)
		if !ok {
			return nil, newError(ErrAlreadyInProgress, repoID, StageIdle, nil)
		}
		return release, nil
	}

	release, ok, err := s.locks.acquire(ctx, repoID, s.lockWait)
	if err != nil {
		return nil, newError(ErrCancelled, repoID, StageIdle, err)
	}
	if !ok {
		return nil, newError(ErrAlreadyInProgress, repoID, StageIdle,
			fmt.Errorf("timed out after %s waiting for the running sync", s.lockWait))
	}
	return release, nil
}

// run is the state of one Synchronize call
type run struct {
	s         *defaultSynchronizer
	repo      content.Repository
	result    *Result
	providers map[string]providers.Provider
	spools    []*Spool
	failure   *Error
}

func (r *run) fail(kind error, err error) {
	r.failure = newError(kind, r.repo.ID, r.result.Stage, err)
}

func (r *run) enter(ctx context.Context, stage Stage) bool {
	r.result.Stage = stage
	if err := ctx.Err(); err != nil {
		r.fail(ErrCancelled, err)
		return false
	}
	return true
}

// execute drives the stages. On return either the change set was committed
// or r.failure is set and nothing was persisted.
func (r *run) execute(ctx context.Context) {
	defer r.releaseSpools()

	if !r.enter(ctx, StageListingProviders) {
		return
	}
	reports := r.listProviders(ctx)

	if !r.enter(ctx, StageDiffing) {
		return
	}
	existing, err := r.s.store.ListAssociations(ctx, r.repo.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.fail(ErrRepositoryNotFound, err)
			return
		}
		r.fail(ErrCommitFailed, fmt.Errorf("failed to load associations: %w", err))
		return
	}
	r.result.Unchanged = len(existing)

	merged := MergeReports(existing, reports)
	if merged.AllFailed {
		r.fail(allFailedKind(reports), r.allFailedCause(reports))
		return
	}
	r.recordConflicts(merged.Conflicts)

	if !r.enter(ctx, StageFetching) {
		return
	}
	additions, err := r.fetch(ctx, merged.ToAdd)
	if err != nil {
		r.fail(ErrFetchFailed, err)
		return
	}

	if !r.enter(ctx, StageCommitting) {
		return
	}
	cs := writer.ChangeSet{
		Additions:         additions,
		Removals:          merged.ToRemove,
		ProvenanceUpdates: merged.ProvenanceUpdates,
	}
	committed, err := r.s.committer.Commit(ctx, r.repo, cs)
	if err != nil {
		r.fail(ErrCommitFailed, err)
		return
	}

	r.result.Added = committed.Added
	r.result.Removed = committed.Removed
	r.result.Unchanged = len(merged.Unchanged)
}

// listProviders lists every attached provider concurrently. Reports keep the
// repository provider order.
func (r *run) listProviders(ctx context.Context) []ProviderReport {
	reports := make([]ProviderReport, len(r.repo.Providers))

	var g errgroup.Group
	for i, name := range r.repo.Providers {
		reports[i].Provider = name

		p, ok := r.providers[name]
		if !ok {
			reports[i].Err = providers.Unavailable(name, errors.New("provider is not configured"))
			continue
		}

		g.Go(func() error {
			reports[i] = r.listProvider(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	for _, report := range reports {
		if report.Succeeded() {
			continue
		}
		slog.Warn("Provider listing failed",
			"repository", r.repo.Name,
			"provider", report.Provider,
			"error", report.Err)
		r.result.ProviderErrors = append(r.result.ProviderErrors, ProviderFailure{
			Provider: report.Provider,
			Kind:     providers.KindOf(report.Err).Error(),
			Error:    report.Err.Error(),
		})
	}
	return reports
}

func (r *run) listProvider(ctx context.Context, p providers.Provider) ProviderReport {
	ctx, span := otel.StartSpan(ctx, r.s.tracer, "sync.ListProvider",
		trace.WithAttributes(
			otel.AttrProviderName.String(p.Name()),
			otel.AttrProviderType.String(p.Type()),
		),
	)
	defer span.End()

	listCtx, cancel := context.WithTimeout(ctx, r.s.listTimeout)
	defer cancel()

	descs, err := providers.Collect(listCtx, p)
	if err != nil {
		otel.RecordError(span, err)
		return ProviderReport{Provider: p.Name(), Err: err}
	}

	slog.Debug("Listed provider",
		"repository", r.repo.Name,
		"provider", p.Name(),
		"packages", len(descs))
	return ProviderReport{Provider: p.Name(), Packages: descs}
}

func allFailedKind(reports []ProviderReport) error {
	if len(reports) == 0 {
		return ErrProviderUnavailable
	}
	for _, rep := range reports {
		if providers.KindOf(rep.Err) != ErrProviderProtocol {
			return ErrProviderUnavailable
		}
	}
	return ErrProviderProtocol
}

func (r *run) allFailedCause(reports []ProviderReport) error {
	if len(reports) == 0 {
		return errors.New("repository has no providers")
	}
	errs := make([]error, 0, len(reports))
	for _, rep := range reports {
		errs = append(errs, rep.Err)
	}
	return errors.Join(errs...)
}

func (r *run) recordConflicts(conflicts []Conflict) {
	for _, c := range conflicts {
		slog.Warn("Providers disagree on package content, first fetched copy wins",
			"repository", r.repo.Name,
			"package", c.Identity.Key(),
			"providers", Addition{Candidates: c.Candidates}.Providers())
		r.result.Conflicts = append(r.result.Conflicts, c.Identity)
	}
}

// fetch resolves every addition to stored or freshly fetched content.
// Packages that cannot be fetched are recorded on the result and left out.
func (r *run) fetch(ctx context.Context, toAdd []Addition) ([]writer.StagedPackage, error) {
	if len(toAdd) == 0 {
		return nil, nil
	}

	reuse, err := r.reusable(ctx, toAdd)
	if err != nil {
		return nil, err
	}

	staged := make([]writer.StagedPackage, 0, len(toAdd))
	var toFetch []Addition
	for _, add := range toAdd {
		if pv, ok := reuse[add.Identity]; ok {
			staged = append(staged, writer.StagedPackage{
				Identity:  add.Identity,
				Providers: add.Providers(),
				Reused:    &pv,
			})
			continue
		}
		toFetch = append(toFetch, add)
	}

	outcomes := r.s.fetcher.FetchAll(ctx, r.providers, toFetch)
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			r.result.FailedPackages = append(r.result.FailedPackages, FailedPackage{
				Identity: outcome.Identity,
				Provider: outcome.Provider,
				Attempts: outcome.Attempts,
				Error:    outcome.Err.Error(),
			})
			r.s.metrics.RecordFetchFailure(ctx, r.repo.Name, outcome.Provider)
			continue
		}
		r.spools = append(r.spools, outcome.Spool)
		staged = append(staged, writer.StagedPackage{
			Identity:  outcome.Identity,
			Providers: toFetch[i].Providers(),
			Content:   outcome.Spool,
		})
	}
	r.result.Failed = len(r.result.FailedPackages)

	slog.Info("Fetched package content",
		"repository", r.repo.Name,
		"reused", len(reuse),
		"fetched", len(toFetch)-r.result.Failed,
		"failed", r.result.Failed)
	return staged, nil
}

// reusable returns the additions already stored globally with their content
func (r *run) reusable(ctx context.Context, toAdd []Addition) (map[content.PackageIdentity]content.PackageVersion, error) {
	ids := make([]content.PackageIdentity, 0, len(toAdd))
	for _, add := range toAdd {
		ids = append(ids, add.Identity)
	}
	found, err := r.s.store.FindPackageVersions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up package versions: %w", err)
	}
	if r.s.blobs == nil {
		return found, nil
	}

	for id, pv := range found {
		exists, err := r.s.blobs.Exists(ctx, pv.BlobKey)
		if err != nil || !exists {
			slog.Debug("Stored package version has no content, fetching again",
				"package", id.Key(),
				"blob_key", pv.BlobKey,
				"error", err)
			delete(found, id)
		}
	}
	return found, nil
}

func (r *run) releaseSpools() {
	for _, s := range r.spools {
		if err := s.Release(); err != nil {
			slog.Warn("Failed to release spool", "error", err)
		}
	}
	r.spools = nil
}

// finish settles the terminal status and records logs, metrics and span data
func (r *run) finish(ctx context.Context, span trace.Span) *Result {
	res := r.result
	res.FinishedAt = time.Now().UTC()

	switch {
	case r.failure != nil:
		res.Status = StatusFailed
		res.Added, res.Removed = 0, 0
		res.Err = r.failure
		res.Error = r.failure.Error()
	case len(res.ProviderErrors) > 0 || res.Failed > 0:
		res.Status = StatusPartiallyFailed
	default:
		res.Status = StatusSucceeded
	}

	ctx = context.WithoutCancel(ctx)
	metrics := r.s.metrics
	metrics.RecordSyncDuration(ctx, r.repo.Name, res.Duration(), string(res.Status))
	metrics.RecordPackages(ctx, r.repo.Name, telemetry.ChangeAdded, res.Added)
	metrics.RecordPackages(ctx, r.repo.Name, telemetry.ChangeRemoved, res.Removed)
	metrics.RecordPackages(ctx, r.repo.Name, telemetry.ChangeUnchanged, res.Unchanged)
	metrics.RecordPackages(ctx, r.repo.Name, telemetry.ChangeFailed, res.Failed)

	span.SetAttributes(
		otel.AttrStage.String(string(res.Stage)),
		otel.AttrStatus.String(string(res.Status)),
		otel.AttrAddedCount.Int(res.Added),
		otel.AttrRemovedCount.Int(res.Removed),
		otel.AttrUnchangedCount.Int(res.Unchanged),
		otel.AttrFailedCount.Int(res.Failed),
	)

	logArgs := []any{
		"repository", r.repo.Name,
		"run_id", res.RunID,
		"status", res.Status,
		"stage", res.Stage,
		"added", res.Added,
		"removed", res.Removed,
		"unchanged", res.Unchanged,
		"failed", res.Failed,
		"duration", res.Duration(),
	}
	if res.Err != nil {
		otel.RecordError(span, res.Err)
		slog.Error("Repository sync failed", append(logArgs, "error", res.Err)...)
	} else {
		slog.Info("Repository sync finished", logArgs...)
	}
	return res
}
