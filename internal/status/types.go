package status

import "time"

// SyncPhase represents the current phase of a repository sync
type SyncPhase string

const (
	// SyncPhaseSyncing means a sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last sync applied every change
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhasePartiallyFailed means the last sync committed its changes
	// but some providers or packages failed
	SyncPhasePartiallyFailed SyncPhase = "PartiallyFailed"

	// SyncPhaseFailed means the last sync did not commit anything
	SyncPhaseFailed SyncPhase = "Failed"
)

// Succeeded reports whether the phase ends a run that committed its changes
func (p SyncPhase) Succeeded() bool {
	return p == SyncPhaseComplete || p == SyncPhasePartiallyFailed
}

// SyncStatus represents the current state of repository synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `yaml:"phase" json:"phase"`

	// Message provides additional information about the sync status
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	// LastRunID identifies the last run that finished
	LastRunID string `yaml:"lastRunId,omitempty" json:"lastRunId,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `yaml:"lastAttempt,omitempty" json:"lastAttempt,omitempty"`

	// AttemptCount is the number of failed attempts since the last success
	AttemptCount int `yaml:"attemptCount,omitempty" json:"attemptCount"`

	// LastSyncTime is the timestamp of the last sync that committed
	LastSyncTime *time.Time `yaml:"lastSyncTime,omitempty" json:"lastSyncTime,omitempty"`

	// Counts of the last finished run
	Added     int `yaml:"added,omitempty" json:"added"`
	Removed   int `yaml:"removed,omitempty" json:"removed"`
	Unchanged int `yaml:"unchanged,omitempty" json:"unchanged"`
	Failed    int `yaml:"failed,omitempty" json:"failed"`

	// PackageCount is the number of packages in the repository after the
	// last committed run
	PackageCount int `yaml:"packageCount,omitempty" json:"packageCount"`
}
