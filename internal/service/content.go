package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/otel"
	"github.com/stacklok/toolhive-content-sync/internal/status"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
	"github.com/stacklok/toolhive-content-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
	"github.com/stacklok/toolhive-content-sync/internal/versions"
)

// contentService implements ContentService over the store, the persisted
// sync state and the coordinator
type contentService struct {
	store       store.Store
	statusSvc   state.RepositoryStateService
	coordinator coordinator.Coordinator
	tracer      trace.Tracer
	readiness   []func(ctx context.Context) error
}

// ServiceOption configures the content service
type ServiceOption func(*contentService)

// WithTracer sets the tracer used for service spans
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *contentService) {
		s.tracer = tracer
	}
}

// WithReadinessCheck adds a check that must pass for the service to be ready
func WithReadinessCheck(check func(ctx context.Context) error) ServiceOption {
	return func(s *contentService) {
		s.readiness = append(s.readiness, check)
	}
}

// NewContentService creates a ContentService
func NewContentService(
	st store.Store,
	statusSvc state.RepositoryStateService,
	coord coordinator.Coordinator,
	opts ...ServiceOption,
) (ContentService, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if statusSvc == nil {
		return nil, fmt.Errorf("state service is required")
	}
	if coord == nil {
		return nil, fmt.Errorf("coordinator is required")
	}

	s := &contentService{
		store:       st,
		statusSvc:   statusSvc,
		coordinator: coord,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckReadiness implements ContentService.CheckReadiness
func (s *contentService) CheckReadiness(ctx context.Context) error {
	for _, check := range s.readiness {
		if err := check(ctx); err != nil {
			return err
		}
	}
	if _, err := s.store.ListRepositories(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// ListRepositories implements ContentService.ListRepositories
func (s *contentService) ListRepositories(ctx context.Context) ([]RepositoryInfo, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.ListRepositories")
	defer span.End()

	repos, err := s.store.ListRepositories(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	statuses, err := s.statusSvc.ListSyncStatuses(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list sync statuses: %w", err)
	}

	result := make([]RepositoryInfo, 0, len(repos))
	for _, repo := range repos {
		result = append(result, repositoryInfo(repo, statuses[repo.Name]))
	}
	return result, nil
}

// GetRepository implements ContentService.GetRepository
func (s *contentService) GetRepository(ctx context.Context, name string) (*RepositoryInfo, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetRepository",
		trace.WithAttributes(otel.AttrRepositoryName.String(name)))
	defer span.End()

	repo, err := s.repository(ctx, name)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	st, err := s.syncStatus(ctx, name)
	if err != nil && !errors.Is(err, ErrRepositoryNotFound) {
		otel.RecordError(span, err)
		return nil, err
	}

	info := repositoryInfo(*repo, st)
	return &info, nil
}

// ListPackages implements ContentService.ListPackages. Versions of a package
// are ordered by semantic version; the page is cut after filtering.
func (s *contentService) ListPackages(ctx context.Context, name string, opts ...Option) (*PackageList, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.ListPackages",
		trace.WithAttributes(otel.AttrRepositoryName.String(name)))
	defer span.End()

	options, err := newListPackagesOptions(opts...)
	if err != nil {
		return nil, err
	}

	repo, err := s.repository(ctx, name)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	all, err := s.store.ListPackages(ctx, repo.ID, 0, 0)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list packages of %s: %w", name, err)
	}

	filtered := slices.DeleteFunc(all, func(pv content.PackageVersion) bool {
		if options.Name != "" && pv.Name != options.Name {
			return true
		}
		return options.Match != nil && !options.Match(pv.Version)
	})
	slices.SortFunc(filtered, comparePackageVersions)

	list := &PackageList{
		Packages: []content.PackageVersion{},
		Total:    len(filtered),
		Limit:    options.Limit,
		Offset:   options.Offset,
	}
	if options.Offset < len(filtered) {
		end := min(options.Offset+options.Limit, len(filtered))
		list.Packages = filtered[options.Offset:end]
	}
	return list, nil
}

// GetSyncStatus implements ContentService.GetSyncStatus
func (s *contentService) GetSyncStatus(ctx context.Context, name string) (*status.SyncStatus, error) {
	return s.syncStatus(ctx, name)
}

// SyncNow implements ContentService.SyncNow
func (s *contentService) SyncNow(ctx context.Context, name string) (*pkgsync.Result, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.SyncNow",
		trace.WithAttributes(otel.AttrRepositoryName.String(name)))
	defer span.End()

	result, err := s.coordinator.SyncNow(ctx, name)
	if err != nil {
		otel.RecordError(span, err)
	}
	return result, err
}

func (s *contentService) repository(ctx context.Context, name string) (*content.Repository, error) {
	repo, err := s.store.GetRepositoryByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s: %w", name, err)
	}
	return repo, nil
}

func (s *contentService) syncStatus(ctx context.Context, name string) (*status.SyncStatus, error) {
	st, err := s.statusSvc.GetSyncStatus(ctx, name)
	if errors.Is(err, state.ErrRepositoryNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status of %s: %w", name, err)
	}
	return st, nil
}

func comparePackageVersions(a, b content.PackageVersion) int {
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Type, b.Type),
		versions.Compare(a.Version, b.Version),
		cmp.Compare(a.Qualifier, b.Qualifier),
	)
}
