// Package sync keeps a repository in step with the content providers
// attached to it.
//
// A run for one repository moves through a fixed sequence of stages:
//
//	Idle → ListingProviders → Diffing → Fetching → Committing → {Succeeded | PartiallyFailed | Failed}
//
// # Listing and diffing
//
// Every attached provider is listed concurrently. MergeReports combines the
// successful listings with the persisted associations: additions are the
// union of what the providers report, while an existing package is removed
// only when no successful provider reports it and none of the providers
// that reported it last time failed in this run. A failed provider never
// causes a removal.
//
// # Fetching
//
// The Fetcher downloads the content of each addition through a bounded
// worker pool. Content is spooled in memory up to a threshold and spilled
// to a temporary file beyond it, while its digest is computed. Transient
// failures are retried with exponential backoff; permanent failures move on
// to the next provider that reported the package. A package that cannot be
// fetched from any provider is reported as failed and the run continues.
//
// # Committing
//
// The fetched content and the membership changes are handed to the writer
// package, which stores blobs and applies every association change in one
// transaction.
//
// # Concurrency
//
// At most one run per repository executes at a time. A second request is
// rejected with ErrAlreadyInProgress, or waits for the running sync when
// the wait policy is configured.
package sync
