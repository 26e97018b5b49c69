// Package coordinator schedules repository syncs.
//
// The coordinator polls on a jittered interval. For every configured
// repository it decides with ShouldSync whether a run is due: never synced,
// interval elapsed, or a failed run whose retry interval elapsed. A due
// repository is claimed by atomically flipping its status to Syncing
// through the state service, so instances sharing a database never run the
// same repository twice. The claimed run goes through the synchronizer and
// its Result is folded back into the status.
//
// SyncNow runs a repository on demand through the same claim, which makes an
// on-demand run and a scheduled run mutually exclusive.
//
//	coord := coordinator.New(synchronizer, stateService, store, cfg)
//	go func() {
//	    if err := coord.Start(ctx); err != nil {
//	        slog.Error("Coordinator failed", "error", err)
//	    }
//	}()
//	defer coord.Stop()
package coordinator
