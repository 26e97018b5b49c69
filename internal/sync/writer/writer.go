// Package writer applies the outcome of a sync run to persistent storage.
package writer

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

//go:generate mockgen -destination=mocks/mock_committer.go -package=mocks -source=writer.go Committer

// Commit stages reported by CommitError
const (
	StageBlobs       = "blob-staging"
	StageTransaction = "transaction"
)

// Content is fetched package content ready to be stored
type Content interface {
	Size() int64
	Digest() digest.Digest
	Open() (io.ReadCloser, error)
}

// StagedPackage is an addition ready to commit. Exactly one of Content and
// Reused is set: Content for freshly fetched packages, Reused for package
// versions already stored globally.
type StagedPackage struct {
	Identity  content.PackageIdentity
	Providers []string
	Content   Content
	Reused    *content.PackageVersion
}

// ProvenanceUpdate replaces the provider list of an existing association
type ProvenanceUpdate struct {
	Association content.Association
	Providers   []string
}

// ChangeSet is everything a run changes in one repository
type ChangeSet struct {
	Additions         []StagedPackage
	Removals          []content.Association
	ProvenanceUpdates []ProvenanceUpdate
}

// IsEmpty reports whether the change set writes nothing
func (c ChangeSet) IsEmpty() bool {
	return len(c.Additions) == 0 && len(c.Removals) == 0 && len(c.ProvenanceUpdates) == 0
}

// CommitResult summarizes an applied change set
type CommitResult struct {
	Added             int
	Removed           int
	ProvenanceUpdated int
	BlobsWritten      int
}

// CommitError is a failed commit. Nothing from the change set was persisted.
type CommitError struct {
	RepositoryID uuid.UUID
	Stage        string
	Err          error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit of repository %s failed during %s: %v", e.RepositoryID, e.Stage, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Committer applies change sets.
type Committer interface {
	// Commit applies cs to repo atomically. An empty change set performs no writes.
	Commit(ctx context.Context, repo content.Repository, cs ChangeSet) (CommitResult, error)
}
