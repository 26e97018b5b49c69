// Package postgres implements store.Store on PostgreSQL using the sqlc
// generated queries.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/db/sqlc"
	"github.com/stacklok/toolhive-content-sync/internal/store"
)

// serializationFailure is the SQLSTATE of a serializable transaction conflict
const serializationFailure = "40001"

const defaultTxAttempts = 3

// Store is a PostgreSQL backed store.Store
type Store struct {
	pool       *pgxpool.Pool
	txAttempts uint
	now        func() time.Time
}

var _ store.Store = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithTxAttempts sets how many times a transaction is attempted when it
// fails with a serialization conflict
func WithTxAttempts(n uint) Option {
	return func(s *Store) {
		if n > 0 {
			s.txAttempts = n
		}
	}
}

// New creates a Store on pool. The caller owns the pool.
func New(pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	s := &Store{
		pool:       pool,
		txAttempts: defaultTxAttempts,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListRepositories implements store.Store
func (s *Store) ListRepositories(ctx context.Context) ([]content.Repository, error) {
	rows, err := sqlc.New(s.pool).ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	out := make([]content.Repository, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRepository(r.ID, r.Name, r.Description, r.SyncIntervalSeconds, r.Providers, r.CreatedAt, r.UpdatedAt))
	}
	return out, nil
}

// GetRepository implements store.Store
func (s *Store) GetRepository(ctx context.Context, id uuid.UUID) (*content.Repository, error) {
	r, err := sqlc.New(s.pool).GetRepository(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get repository %s: %w", id, err)
	}
	repo := toRepository(r.ID, r.Name, r.Description, r.SyncIntervalSeconds, r.Providers, r.CreatedAt, r.UpdatedAt)
	return &repo, nil
}

// GetRepositoryByName implements store.Store
func (s *Store) GetRepositoryByName(ctx context.Context, name string) (*content.Repository, error) {
	r, err := sqlc.New(s.pool).GetRepositoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository %s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get repository %s: %w", name, err)
	}
	repo := toRepository(r.ID, r.Name, r.Description, r.SyncIntervalSeconds, r.Providers, r.CreatedAt, r.UpdatedAt)
	return &repo, nil
}

// UpsertRepositories implements store.Store
func (s *Store) UpsertRepositories(ctx context.Context, specs []store.RepositorySpec) ([]content.Repository, error) {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		querier := sqlc.New(tx)
		now := s.now()
		names := make([]string, 0, len(specs))

		for _, spec := range specs {
			names = append(names, spec.Name)

			row, err := querier.UpsertRepository(ctx, sqlc.UpsertRepositoryParams{
				Name:                spec.Name,
				Description:         nilIfEmpty(spec.Description),
				SyncIntervalSeconds: int64(spec.SyncInterval / time.Second),
				Now:                 now,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert repository %s: %w", spec.Name, err)
			}

			if err := querier.DeleteRepositoryProviders(ctx, row.ID); err != nil {
				return fmt.Errorf("failed to reset providers of %s: %w", spec.Name, err)
			}
			for i, provider := range spec.Providers {
				if err := querier.InsertRepositoryProvider(ctx, sqlc.InsertRepositoryProviderParams{
					RepositoryID: row.ID,
					ProviderName: provider,
					Position:     int32(i), // #nosec G115 -- provider lists are small
				}); err != nil {
					return fmt.Errorf("failed to attach provider %s to %s: %w", provider, spec.Name, err)
				}
			}
		}

		if err := querier.DeleteRepositoriesNotInList(ctx, names); err != nil {
			return fmt.Errorf("failed to delete unconfigured repositories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ListRepositories(ctx)
}

// ListAssociations implements store.Store
func (s *Store) ListAssociations(ctx context.Context, repoID uuid.UUID) ([]content.Association, error) {
	if _, err := s.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	rows, err := sqlc.New(s.pool).ListRepositoryAssociations(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list associations of %s: %w", repoID, err)
	}
	out := make([]content.Association, 0, len(rows))
	for _, r := range rows {
		out = append(out, content.Association{
			RepositoryID:     r.RepositoryID,
			PackageVersionID: r.PackageVersionID,
			Identity: content.PackageIdentity{
				Name:      r.Name,
				Version:   r.Version,
				Qualifier: r.Qualifier,
				Type:      r.PackageType,
			},
			Providers: r.Providers,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

// ListPackages implements store.Store
func (s *Store) ListPackages(ctx context.Context, repoID uuid.UUID, limit, offset int) ([]content.PackageVersion, error) {
	if _, err := s.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	params := sqlc.ListRepositoryPackagesParams{
		RepositoryID: repoID,
		PageOffset:   int64(max(offset, 0)),
	}
	if limit > 0 {
		l := int64(limit)
		params.PageLimit = &l
	}
	rows, err := sqlc.New(s.pool).ListRepositoryPackages(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages of %s: %w", repoID, err)
	}
	out := make([]content.PackageVersion, 0, len(rows))
	for _, r := range rows {
		out = append(out, toPackageVersion(r))
	}
	return out, nil
}

// FindPackageVersions implements store.Store
func (s *Store) FindPackageVersions(
	ctx context.Context, ids []content.PackageIdentity,
) (map[content.PackageIdentity]content.PackageVersion, error) {
	out := make(map[content.PackageIdentity]content.PackageVersion, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	params := sqlc.FindPackageVersionsParams{
		PackageTypes: make([]string, 0, len(ids)),
		Names:        make([]string, 0, len(ids)),
		Versions:     make([]string, 0, len(ids)),
		Qualifiers:   make([]string, 0, len(ids)),
	}
	for _, id := range ids {
		params.PackageTypes = append(params.PackageTypes, id.Type)
		params.Names = append(params.Names, id.Name)
		params.Versions = append(params.Versions, id.Version)
		params.Qualifiers = append(params.Qualifiers, id.Qualifier)
	}

	rows, err := sqlc.New(s.pool).FindPackageVersions(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to find package versions: %w", err)
	}
	for _, r := range rows {
		pv := toPackageVersion(r)
		out[pv.PackageIdentity] = pv
	}
	return out, nil
}

// InTx implements store.Store. The transaction is serializable and holds a
// transaction-scoped advisory lock on the repository so commits for one
// repository never interleave across processes. Serialization conflicts
// with commits for other repositories are retried.
func (s *Store) InTx(ctx context.Context, repoID uuid.UUID, fn func(store.Tx) error) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		querier := sqlc.New(tx)
		if err := querier.AcquireRepositoryLock(ctx, repoID); err != nil {
			return fmt.Errorf("failed to lock repository %s: %w", repoID, err)
		}
		if _, err := querier.GetRepository(ctx, repoID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("repository %s: %w", repoID, store.ErrNotFound)
			}
			return fmt.Errorf("failed to get repository %s: %w", repoID, err)
		}
		return fn(&pgTx{querier: querier, repoID: repoID, now: s.now()})
	})
}

func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	op := func() (struct{}, error) {
		err := s.runTx(ctx, fn)
		if err != nil && !isSerializationFailure(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.txAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Debug("Retrying serializable transaction", "error", err, "backoff", next)
		}),
	)
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("Failed to roll back transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}

type pgTx struct {
	querier *sqlc.Queries
	repoID  uuid.UUID
	now     time.Time
}

func (t *pgTx) UpsertPackageVersion(ctx context.Context, pv store.NewPackageVersion) (content.PackageVersion, error) {
	row, err := t.querier.UpsertPackageVersion(ctx, sqlc.UpsertPackageVersionParams{
		PackageType: pv.Identity.Type,
		Name:        pv.Identity.Name,
		Version:     pv.Identity.Version,
		Qualifier:   pv.Identity.Qualifier,
		Size:        pv.Size,
		Digest:      pv.Digest,
		BlobKey:     pv.BlobKey,
		Now:         t.now,
	})
	if err != nil {
		return content.PackageVersion{}, fmt.Errorf("failed to upsert package version %s: %w", pv.Identity, err)
	}
	return toPackageVersion(row), nil
}

func (t *pgTx) ReplacePackageContent(
	ctx context.Context, id uuid.UUID, pv store.NewPackageVersion,
) (content.PackageVersion, error) {
	row, err := t.querier.ReplacePackageVersionContent(ctx, sqlc.ReplacePackageVersionContentParams{
		Size:    pv.Size,
		Digest:  pv.Digest,
		BlobKey: pv.BlobKey,
		Now:     t.now,
		ID:      id,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return content.PackageVersion{}, fmt.Errorf("package version %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return content.PackageVersion{}, fmt.Errorf("failed to replace content of %s: %w", pv.Identity, err)
	}
	return toPackageVersion(row), nil
}

func (t *pgTx) InsertAssociation(ctx context.Context, pv content.PackageVersion, providers []string) error {
	if err := t.querier.InsertRepositoryPackage(ctx, sqlc.InsertRepositoryPackageParams{
		RepositoryID:     t.repoID,
		PackageVersionID: pv.ID,
		Providers:        nonNil(providers),
		Now:              t.now,
	}); err != nil {
		return fmt.Errorf("failed to associate %s: %w", pv.PackageIdentity, err)
	}
	return nil
}

func (t *pgTx) UpdateAssociationProviders(ctx context.Context, packageVersionID uuid.UUID, providers []string) error {
	n, err := t.querier.UpdateRepositoryPackageProviders(ctx, sqlc.UpdateRepositoryPackageProvidersParams{
		Providers:        nonNil(providers),
		Now:              t.now,
		RepositoryID:     t.repoID,
		PackageVersionID: packageVersionID,
	})
	if err != nil {
		return fmt.Errorf("failed to update providers of %s: %w", packageVersionID, err)
	}
	if n == 0 {
		return fmt.Errorf("association %s: %w", packageVersionID, store.ErrNotFound)
	}
	return nil
}

func (t *pgTx) DeleteAssociations(ctx context.Context, packageVersionIDs []uuid.UUID) (int, error) {
	if len(packageVersionIDs) == 0 {
		return 0, nil
	}
	n, err := t.querier.DeleteRepositoryPackages(ctx, sqlc.DeleteRepositoryPackagesParams{
		RepositoryID:      t.repoID,
		PackageVersionIds: packageVersionIDs,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete associations: %w", err)
	}
	return int(n), nil
}

func toRepository(
	id uuid.UUID, name string, description *string, intervalSeconds int64, providers []string, createdAt, updatedAt time.Time,
) content.Repository {
	repo := content.Repository{
		ID:           id,
		Name:         name,
		Providers:    nonNil(providers),
		SyncInterval: time.Duration(intervalSeconds) * time.Second,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if description != nil {
		repo.Description = *description
	}
	return repo
}

func toPackageVersion(r sqlc.PackageVersion) content.PackageVersion {
	return content.PackageVersion{
		ID: r.ID,
		PackageIdentity: content.PackageIdentity{
			Name:      r.Name,
			Version:   r.Version,
			Qualifier: r.Qualifier,
			Type:      r.PackageType,
		},
		Size:      r.Size,
		Digest:    r.Digest,
		BlobKey:   r.BlobKey,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
