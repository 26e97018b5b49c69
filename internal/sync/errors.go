package sync

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-content-sync/internal/providers"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrProviderUnavailable means every provider failed and at least one
	// failure was transient
	ErrProviderUnavailable = providers.ErrProviderUnavailable

	// ErrProviderProtocol means every provider failed with a permanent error
	ErrProviderProtocol = providers.ErrProviderProtocol

	// ErrFetchFailed marks a package whose content could not be fetched
	ErrFetchFailed = errors.New("package fetch failed")

	// ErrCommitFailed means the change set could not be applied
	ErrCommitFailed = errors.New("commit failed")

	// ErrAlreadyInProgress means another run holds the repository
	ErrAlreadyInProgress = errors.New("sync already in progress")

	// ErrCancelled means the run was cancelled before committing
	ErrCancelled = errors.New("sync cancelled")

	// ErrRepositoryNotFound means the repository does not exist
	ErrRepositoryNotFound = errors.New("repository not found")
)

// Error describes why a run did not complete.
type Error struct {
	Kind         error
	RepositoryID uuid.UUID
	Stage        Stage
	Err          error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("repository %s: %v", e.RepositoryID, e.Kind)
	if e.Stage != "" {
		msg = fmt.Sprintf("repository %s: %s: %v", e.RepositoryID, e.Stage, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, repoID uuid.UUID, stage Stage, err error) *Error {
	return &Error{Kind: kind, RepositoryID: repoID, Stage: stage, Err: err}
}
