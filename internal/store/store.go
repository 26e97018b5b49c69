// Package store defines the persistence boundary of the sync engine:
// repositories, global package versions and the associations between them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store,Tx

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// RepositorySpec is the configured shape of a repository
type RepositorySpec struct {
	Name         string
	Description  string
	Providers    []string
	SyncInterval time.Duration
}

// NewPackageVersion is a package version about to be recorded
type NewPackageVersion struct {
	Identity content.PackageIdentity
	Size     int64
	Digest   string
	BlobKey  string
}

// Store persists repositories, package versions and associations.
type Store interface {
	// ListRepositories returns every repository ordered by name
	ListRepositories(ctx context.Context) ([]content.Repository, error)

	// GetRepository returns a repository by id, or ErrNotFound
	GetRepository(ctx context.Context, id uuid.UUID) (*content.Repository, error)

	// GetRepositoryByName returns a repository by name, or ErrNotFound
	GetRepositoryByName(ctx context.Context, name string) (*content.Repository, error)

	// UpsertRepositories makes the stored repositories match specs exactly.
	// Repositories missing from specs are deleted together with their
	// associations.
	UpsertRepositories(ctx context.Context, specs []RepositorySpec) ([]content.Repository, error)

	// ListAssociations returns the associations of a repository
	ListAssociations(ctx context.Context, repoID uuid.UUID) ([]content.Association, error)

	// ListPackages returns the package versions of a repository ordered by
	// identity. A limit of 0 returns everything after offset.
	ListPackages(ctx context.Context, repoID uuid.UUID, limit, offset int) ([]content.PackageVersion, error)

	// FindPackageVersions returns the stored package versions among ids
	FindPackageVersions(
		ctx context.Context, ids []content.PackageIdentity,
	) (map[content.PackageIdentity]content.PackageVersion, error)

	// InTx runs fn in a single transaction scoped to a repository. Commits
	// for the same repository are serialized. Any error from fn rolls back
	// every write made through the Tx.
	InTx(ctx context.Context, repoID uuid.UUID, fn func(Tx) error) error
}

// Tx is the write surface available inside Store.InTx.
type Tx interface {
	// UpsertPackageVersion stores a package version, returning the existing
	// row when the identity is already known
	UpsertPackageVersion(ctx context.Context, pv NewPackageVersion) (content.PackageVersion, error)

	// ReplacePackageContent points an existing package version at new
	// content. It is used when the content a version referenced is gone.
	ReplacePackageContent(ctx context.Context, id uuid.UUID, pv NewPackageVersion) (content.PackageVersion, error)

	// InsertAssociation links a package version to the transaction's repository
	InsertAssociation(ctx context.Context, pv content.PackageVersion, providers []string) error

	// UpdateAssociationProviders replaces the provenance of an association
	UpdateAssociationProviders(ctx context.Context, packageVersionID uuid.UUID, providers []string) error

	// DeleteAssociations unlinks package versions from the repository and
	// returns how many associations were removed
	DeleteAssociations(ctx context.Context, packageVersionIDs []uuid.UUID) (int, error)
}
