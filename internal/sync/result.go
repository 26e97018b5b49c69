package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

// Stage is a step of a sync run
type Stage string

// Run stages in execution order
const (
	StageIdle             Stage = "idle"
	StageListingProviders Stage = "listing-providers"
	StageDiffing          Stage = "diffing"
	StageFetching         Stage = "fetching"
	StageCommitting       Stage = "committing"
)

// Status is the terminal status of a run
type Status string

// Terminal statuses
const (
	StatusSucceeded       Status = "succeeded"
	StatusPartiallyFailed Status = "partially-failed"
	StatusFailed          Status = "failed"
)

// Completed reports whether the run applied its changes
func (s Status) Completed() bool {
	return s == StatusSucceeded || s == StatusPartiallyFailed
}

// ProviderFailure is a provider that could not be listed
type ProviderFailure struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

// FailedPackage is an addition whose content could not be fetched
type FailedPackage struct {
	Identity content.PackageIdentity `json:"identity"`
	Provider string                  `json:"provider,omitempty"`
	Attempts int                     `json:"attempts"`
	Error    string                  `json:"error"`
}

// Result is the outcome of one run. It is not modified after Synchronize
// returns it.
type Result struct {
	RunID        uuid.UUID `json:"runId"`
	RepositoryID uuid.UUID `json:"repositoryId"`
	Repository   string    `json:"repository"`
	Status       Status    `json:"status"`

	// Stage is the last stage the run entered
	Stage Stage `json:"stage"`

	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`

	FailedPackages []FailedPackage           `json:"failedPackages,omitempty"`
	ProviderErrors []ProviderFailure         `json:"providerErrors,omitempty"`
	Conflicts      []content.PackageIdentity `json:"conflicts,omitempty"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Duration is the wall time of the run
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// PackageCount is the number of packages the repository holds after the run
func (r *Result) PackageCount() int {
	return r.Added + r.Unchanged
}
