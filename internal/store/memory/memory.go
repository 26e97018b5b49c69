// Package memory provides an in-process Store. Writes are applied to a
// copy of the current state inside InTx and swapped in only when the
// transaction function succeeds.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/store"
)

type state struct {
	repositories map[uuid.UUID]content.Repository
	versions     map[uuid.UUID]content.PackageVersion
	byIdentity   map[content.PackageIdentity]uuid.UUID
	associations map[uuid.UUID]map[uuid.UUID]content.Association
}

func newState() *state {
	return &state{
		repositories: make(map[uuid.UUID]content.Repository),
		versions:     make(map[uuid.UUID]content.PackageVersion),
		byIdentity:   make(map[content.PackageIdentity]uuid.UUID),
		associations: make(map[uuid.UUID]map[uuid.UUID]content.Association),
	}
}

func (s *state) clone() *state {
	out := &state{
		repositories: make(map[uuid.UUID]content.Repository, len(s.repositories)),
		versions:     make(map[uuid.UUID]content.PackageVersion, len(s.versions)),
		byIdentity:   make(map[content.PackageIdentity]uuid.UUID, len(s.byIdentity)),
		associations: make(map[uuid.UUID]map[uuid.UUID]content.Association, len(s.associations)),
	}
	for id, r := range s.repositories {
		r.Providers = slices.Clone(r.Providers)
		out.repositories[id] = r
	}
	for id, v := range s.versions {
		out.versions[id] = v
	}
	for ident, id := range s.byIdentity {
		out.byIdentity[ident] = id
	}
	for repoID, assocs := range s.associations {
		m := make(map[uuid.UUID]content.Association, len(assocs))
		for id, a := range assocs {
			a.Providers = slices.Clone(a.Providers)
			m[id] = a
		}
		out.associations[repoID] = m
	}
	return out
}

// Store is an in-memory store.Store
type Store struct {
	current atomic.Pointer[state]
	writeMu sync.Mutex
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty Store
func New(opts ...Option) *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(newState())
	return s
}

func (s *Store) snapshot() *state {
	return s.current.Load()
}

// ListRepositories implements store.Store
func (s *Store) ListRepositories(_ context.Context) ([]content.Repository, error) {
	st := s.snapshot()
	out := make([]content.Repository, 0, len(st.repositories))
	for _, r := range st.repositories {
		r.Providers = slices.Clone(r.Providers)
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b content.Repository) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// GetRepository implements store.Store
func (s *Store) GetRepository(_ context.Context, id uuid.UUID) (*content.Repository, error) {
	r, ok := s.snapshot().repositories[id]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", id, store.ErrNotFound)
	}
	r.Providers = slices.Clone(r.Providers)
	return &r, nil
}

// GetRepositoryByName implements store.Store
func (s *Store) GetRepositoryByName(_ context.Context, name string) (*content.Repository, error) {
	for _, r := range s.snapshot().repositories {
		if r.Name == name {
			r.Providers = slices.Clone(r.Providers)
			return &r, nil
		}
	}
	return nil, fmt.Errorf("repository %s: %w", name, store.ErrNotFound)
}

// UpsertRepositories implements store.Store
func (s *Store) UpsertRepositories(ctx context.Context, specs []store.RepositorySpec) ([]content.Repository, error) {
	s.writeMu.Lock()
	next := s.snapshot().clone()
	now := s.now()

	byName := make(map[string]uuid.UUID, len(next.repositories))
	for id, r := range next.repositories {
		byName[r.Name] = id
	}

	keep := make(map[uuid.UUID]bool, len(specs))
	for _, spec := range specs {
		id, ok := byName[spec.Name]
		repo := next.repositories[id]
		if !ok {
			id = uuid.New()
			repo = content.Repository{ID: id, Name: spec.Name, CreatedAt: now}
		}
		repo.Description = spec.Description
		repo.Providers = slices.Clone(spec.Providers)
		repo.SyncInterval = spec.SyncInterval
		repo.UpdatedAt = now
		next.repositories[id] = repo
		keep[id] = true
	}

	for id := range next.repositories {
		if !keep[id] {
			delete(next.repositories, id)
			delete(next.associations, id)
		}
	}

	s.current.Store(next)
	s.writeMu.Unlock()

	return s.ListRepositories(ctx)
}

// ListAssociations implements store.Store
func (s *Store) ListAssociations(_ context.Context, repoID uuid.UUID) ([]content.Association, error) {
	st := s.snapshot()
	if _, ok := st.repositories[repoID]; !ok {
		return nil, fmt.Errorf("repository %s: %w", repoID, store.ErrNotFound)
	}
	out := make([]content.Association, 0, len(st.associations[repoID]))
	for _, a := range st.associations[repoID] {
		a.Providers = slices.Clone(a.Providers)
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b content.Association) int { return a.Identity.Compare(b.Identity) })
	return out, nil
}

// ListPackages implements store.Store
func (s *Store) ListPackages(_ context.Context, repoID uuid.UUID, limit, offset int) ([]content.PackageVersion, error) {
	st := s.snapshot()
	if _, ok := st.repositories[repoID]; !ok {
		return nil, fmt.Errorf("repository %s: %w", repoID, store.ErrNotFound)
	}
	out := make([]content.PackageVersion, 0, len(st.associations[repoID]))
	for id := range st.associations[repoID] {
		out = append(out, st.versions[id])
	}
	slices.SortFunc(out, func(a, b content.PackageVersion) int {
		return a.PackageIdentity.Compare(b.PackageIdentity)
	})

	if offset >= len(out) {
		return []content.PackageVersion{}, nil
	}
	out = out[max(offset, 0):]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// FindPackageVersions implements store.Store
func (s *Store) FindPackageVersions(
	_ context.Context, ids []content.PackageIdentity,
) (map[content.PackageIdentity]content.PackageVersion, error) {
	st := s.snapshot()
	out := make(map[content.PackageIdentity]content.PackageVersion)
	for _, ident := range ids {
		if id, ok := st.byIdentity[ident]; ok {
			out[ident] = st.versions[id]
		}
	}
	return out, nil
}

// InTx implements store.Store
func (s *Store) InTx(ctx context.Context, repoID uuid.UUID, fn func(store.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	next := s.snapshot().clone()
	if _, ok := next.repositories[repoID]; !ok {
		return fmt.Errorf("repository %s: %w", repoID, store.ErrNotFound)
	}

	if err := fn(&tx{state: next, repoID: repoID, now: s.now()}); err != nil {
		return err
	}

	s.current.Store(next)
	return nil
}

type tx struct {
	state  *state
	repoID uuid.UUID
	now    time.Time
}

func (t *tx) UpsertPackageVersion(_ context.Context, pv store.NewPackageVersion) (content.PackageVersion, error) {
	if id, ok := t.state.byIdentity[pv.Identity]; ok {
		return t.state.versions[id], nil
	}
	v := content.PackageVersion{
		ID:              uuid.New(),
		PackageIdentity: pv.Identity,
		Size:            pv.Size,
		Digest:          pv.Digest,
		BlobKey:         pv.BlobKey,
		CreatedAt:       t.now,
		UpdatedAt:       t.now,
	}
	t.state.versions[v.ID] = v
	t.state.byIdentity[v.PackageIdentity] = v.ID
	return v, nil
}

func (t *tx) ReplacePackageContent(
	_ context.Context, id uuid.UUID, pv store.NewPackageVersion,
) (content.PackageVersion, error) {
	v, ok := t.state.versions[id]
	if !ok {
		return content.PackageVersion{}, fmt.Errorf("package version %s: %w", id, store.ErrNotFound)
	}
	v.Size = pv.Size
	v.Digest = pv.Digest
	v.BlobKey = pv.BlobKey
	v.UpdatedAt = t.now
	t.state.versions[id] = v
	return v, nil
}

func (t *tx) InsertAssociation(_ context.Context, pv content.PackageVersion, providers []string) error {
	if _, ok := t.state.versions[pv.ID]; !ok {
		return fmt.Errorf("package version %s: %w", pv.ID, store.ErrNotFound)
	}
	assocs := t.state.associations[t.repoID]
	if assocs == nil {
		assocs = make(map[uuid.UUID]content.Association)
		t.state.associations[t.repoID] = assocs
	}
	a, ok := assocs[pv.ID]
	if !ok {
		a = content.Association{
			RepositoryID:     t.repoID,
			PackageVersionID: pv.ID,
			Identity:         pv.PackageIdentity,
			CreatedAt:        t.now,
		}
	}
	a.Providers = slices.Clone(providers)
	a.UpdatedAt = t.now
	assocs[pv.ID] = a
	return nil
}

func (t *tx) UpdateAssociationProviders(_ context.Context, packageVersionID uuid.UUID, providers []string) error {
	a, ok := t.state.associations[t.repoID][packageVersionID]
	if !ok {
		return fmt.Errorf("association %s: %w", packageVersionID, store.ErrNotFound)
	}
	a.Providers = slices.Clone(providers)
	a.UpdatedAt = t.now
	t.state.associations[t.repoID][packageVersionID] = a
	return nil
}

func (t *tx) DeleteAssociations(_ context.Context, packageVersionIDs []uuid.UUID) (int, error) {
	assocs := t.state.associations[t.repoID]
	removed := 0
	for _, id := range packageVersionIDs {
		if _, ok := assocs[id]; ok {
			delete(assocs, id)
			removed++
		}
	}
	return removed, nil
}
