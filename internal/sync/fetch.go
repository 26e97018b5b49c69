package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/providers"
)

// FetchOutcome is the result of fetching one addition. On success Spool
// holds the content and the caller must release it.
type FetchOutcome struct {
	Identity content.PackageIdentity
	Provider string
	Spool    *Spool
	Attempts int
	Err      error
}

// Fetcher downloads package content with bounded concurrency and retries.
type Fetcher struct {
	spooler        *Spooler
	concurrency    int
	maxAttempts    uint
	initialBackoff time.Duration
	maxBackoff     time.Duration
	fetchTimeout   time.Duration
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithConcurrency bounds how many packages are fetched at once
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithMaxAttempts sets how many times a retryable fetch is attempted per provider
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = uint(n)
		}
	}
}

// WithBackoff sets the exponential backoff bounds between attempts
func WithBackoff(initial, maxInterval time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.initialBackoff = initial
		f.maxBackoff = maxInterval
	}
}

// WithFetchTimeout bounds a single content stream
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.fetchTimeout = d
		}
	}
}

// WithSpooler replaces the default spooler
func WithSpooler(s *Spooler) FetcherOption {
	return func(f *Fetcher) {
		f.spooler = s
	}
}

// NewFetcher creates a Fetcher with the configured defaults
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		spooler:        NewSpooler(config.DefaultSpoolThreshold, config.DefaultMaxPackageSize, ""),
		concurrency:    config.DefaultFetchConcurrency,
		maxAttempts:    config.DefaultMaxAttempts,
		initialBackoff: config.DefaultInitialBackoff,
		maxBackoff:     config.DefaultMaxBackoff,
		fetchTimeout:   config.DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFetcherFromConfig creates a Fetcher from the sync section of the configuration
func NewFetcherFromConfig(cfg *config.SyncConfig) *Fetcher {
	return NewFetcher(
		WithSpooler(NewSpooler(
			config.Int64Or(cfg.SpoolThreshold, config.DefaultSpoolThreshold),
			config.Int64Or(cfg.MaxPackageSize, config.DefaultMaxPackageSize),
			cfg.SpoolDir,
		)),
		WithConcurrency(cfg.FetchConcurrency),
		WithMaxAttempts(cfg.MaxAttempts),
		WithBackoff(
			config.DurationOr(cfg.InitialBackoff, config.DefaultInitialBackoff),
			config.DurationOr(cfg.MaxBackoff, config.DefaultMaxBackoff),
		),
		WithFetchTimeout(config.DurationOr(cfg.FetchTimeout, config.DefaultFetchTimeout)),
	)
}

// FetchAll fetches every addition and returns one outcome per addition, in
// the same order, once every fetch finished. A failed addition never stops
// the others. After ctx is cancelled no new fetch starts; the remaining
// additions report ErrCancelled.
func (f *Fetcher) FetchAll(
	ctx context.Context, provs map[string]providers.Provider, additions []Addition,
) []FetchOutcome {
	outcomes := make([]FetchOutcome, len(additions))

	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for i, add := range additions {
		outcomes[i].Identity = add.Identity
		if ctx.Err() != nil {
			outcomes[i].Err = fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i].Err = fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
				return nil
			}
			outcomes[i] = f.fetch(ctx, provs, add)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// fetch tries the candidates of add in order until one yields content
func (f *Fetcher) fetch(ctx context.Context, provs map[string]providers.Provider, add Addition) FetchOutcome {
	outcome := FetchOutcome{Identity: add.Identity}
	var errs []error

	for _, cand := range add.Candidates {
		p, ok := provs[cand.Provider]
		if !ok {
			errs = append(errs, fmt.Errorf("provider %s is not configured", cand.Provider))
			continue
		}

		spool, attempts, err := f.fetchFrom(ctx, p, cand.Descriptor)
		outcome.Attempts += attempts
		outcome.Provider = cand.Provider
		if err == nil {
			outcome.Spool = spool
			outcome.Err = nil
			return outcome
		}

		slog.Warn("Failed to fetch package from provider",
			"package", add.Identity.Key(),
			"provider", cand.Provider,
			"attempts", attempts,
			"error", err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	outcome.Err = fmt.Errorf("%w: %s: %w", ErrFetchFailed, add.Identity, errors.Join(errs...))
	return outcome
}

// fetchFrom fetches one descriptor from one provider, retrying transient failures
func (f *Fetcher) fetchFrom(
	ctx context.Context, p providers.Provider, desc content.PackageDescriptor,
) (*Spool, int, error) {
	attempts := 0
	op := func() (*Spool, error) {
		attempts++
		spool, err := f.stream(ctx, p, desc)
		if err != nil {
			if providers.Classify(err) == providers.OutcomeFatal {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return spool, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialBackoff
	b.MaxInterval = f.maxBackoff

	spool, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(f.maxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Debug("Retrying package fetch",
				"package", desc.Key(),
				"provider", p.Name(),
				"error", err,
				"backoff", next)
		}),
	)
	return spool, attempts, err
}

// stream reads one content stream into a spool. The stream is detached from
// run cancellation and bounded by the fetch timeout instead.
func (f *Fetcher) stream(ctx context.Context, p providers.Provider, desc content.PackageDescriptor) (*Spool, error) {
	streamCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.fetchTimeout)
	defer cancel()

	rc, err := p.OpenContent(streamCtx, desc)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()

	return f.spooler.Spool(rc, desc.DeclaredSize, desc.Checksum)
}
