package coordinator

import (
	"time"

	"github.com/stacklok/toolhive-content-sync/internal/status"
)

// Reason explains a ShouldSync decision
type Reason string

// Sync decisions
const (
	ReasonNeverSynced     Reason = "never-synced"
	ReasonIntervalElapsed Reason = "interval-elapsed"
	ReasonRetryFailed     Reason = "retry-failed"
	ReasonManual          Reason = "manual"
	ReasonInProgress      Reason = "in-progress"
	ReasonUpToDate        Reason = "up-to-date"
)

// ShouldSync reports whether the reason calls for a run
func (r Reason) ShouldSync() bool {
	switch r {
	case ReasonNeverSynced, ReasonIntervalElapsed, ReasonRetryFailed, ReasonManual:
		return true
	default:
		return false
	}
}

// Policy holds the timing used by ShouldSync
type Policy struct {
	// Interval between runs; zero means the repository only syncs on demand
	Interval time.Duration

	// RetryInterval is how long a failed repository waits before retrying
	RetryInterval time.Duration

	// StaleAfter is how long an in-progress status is trusted before it is
	// considered abandoned by a crashed instance
	StaleAfter time.Duration
}

// ShouldSync decides whether a repository with the given status is due at now
func ShouldSync(s *status.SyncStatus, p Policy, now time.Time, manual bool) Reason {
	if s.Phase == status.SyncPhaseSyncing {
		if p.StaleAfter > 0 && s.LastAttempt != nil && now.Sub(*s.LastAttempt) >= p.StaleAfter {
			return ReasonRetryFailed
		}
		return ReasonInProgress
	}
	if manual {
		return ReasonManual
	}
	if p.Interval <= 0 {
		return ReasonUpToDate
	}
	if s.LastAttempt == nil {
		return ReasonNeverSynced
	}
	if s.Phase == status.SyncPhaseFailed {
		if now.Sub(*s.LastAttempt) >= p.RetryInterval {
			return ReasonRetryFailed
		}
		return ReasonUpToDate
	}
	if s.LastSyncTime == nil || now.Sub(*s.LastSyncTime) >= p.Interval {
		return ReasonIntervalElapsed
	}
	return ReasonUpToDate
}
