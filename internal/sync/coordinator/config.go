package coordinator

import (
	"math/rand/v2"
	"time"

	"github.com/stacklok/toolhive-content-sync/internal/config"
)

// intervals holds the coordinator timing settings
type intervals struct {
	poll   time.Duration
	retry  time.Duration
	jitter time.Duration
}

func intervalsFromConfig(cfg *config.SyncConfig) intervals {
	poll := config.DurationOr(cfg.PollInterval, config.DefaultPollInterval)
	return intervals{
		poll:   poll,
		retry:  config.DurationOr(cfg.RetryInterval, config.DefaultRetryInterval),
		jitter: poll / 4,
	}
}

// nextPoll returns the poll interval with a random jitter applied, so
// instances sharing a database do not poll it simultaneously.
func (i intervals) nextPoll() time.Duration {
	if i.jitter <= 0 {
		return i.poll
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*i.jitter))) - i.jitter
	return i.poll + offset
}
