package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/providers"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return NewFetcher(
		WithSpooler(NewSpooler(1024, 1<<20, t.TempDir())),
		WithMaxAttempts(3),
		WithBackoff(time.Millisecond, 5*time.Millisecond),
		WithFetchTimeout(5*time.Second),
		WithConcurrency(2),
	)
}

func additionFrom(id content.PackageIdentity, provs ...*providers.MemoryProvider) Addition {
	add := Addition{Identity: id}
	for _, p := range provs {
		d := content.PackageDescriptor{PackageIdentity: id, DeclaredSize: content.UnknownSize}
		for listed, err := range p.ListPackages(context.Background()) {
			if err == nil && listed.PackageIdentity == id {
				d = listed
			}
		}
		add.Candidates = append(add.Candidates, Candidate{Provider: p.Name(), Descriptor: d})
	}
	return add
}

func providerMap(provs ...*providers.MemoryProvider) map[string]providers.Provider {
	m := make(map[string]providers.Provider, len(provs))
	for _, p := range provs {
		m[p.Name()] = p
	}
	return m
}

func TestFetcher_FetchAll(t *testing.T) {
	t.Parallel()

	transient := func(name string) error {
		return providers.Unavailable(name, errors.New("connection reset"))
	}

	tests := []struct {
		name         string
		setup        func(a, b *providers.MemoryProvider)
		useB         bool
		wantErr      error
		wantProvider string
		wantAttempts int
	}{
		{
			name:         "first candidate serves content",
			setup:        func(_, _ *providers.MemoryProvider) {},
			wantProvider: "a",
			wantAttempts: 1,
		},
		{
			name: "transient failures are retried",
			setup: func(a, _ *providers.MemoryProvider) {
				a.FailContent(p1, transient("a"), transient("a"))
			},
			wantProvider: "a",
			wantAttempts: 3,
		},
		{
			name: "retries are bounded",
			setup: func(a, _ *providers.MemoryProvider) {
				a.FailContent(p1, transient("a"), transient("a"), transient("a"), transient("a"))
			},
			wantErr:      ErrFetchFailed,
			wantProvider: "a",
			wantAttempts: 3,
		},
		{
			name: "protocol failures are not retried",
			setup: func(a, _ *providers.MemoryProvider) {
				a.FailContent(p1, providers.Protocol("a", errors.New("bad frame")))
			},
			wantErr:      ErrProviderProtocol,
			wantProvider: "a",
			wantAttempts: 1,
		},
		{
			name: "checksum mismatch is fatal",
			setup: func(a, _ *providers.MemoryProvider) {
				a.Put(content.PackageDescriptor{
					PackageIdentity: p1,
					DeclaredSize:    content.UnknownSize,
					Checksum:        digest.FromString("something else").String(),
				}, []byte("payload-1"))
			},
			wantErr:      providers.ErrContentMismatch,
			wantProvider: "a",
			wantAttempts: 1,
		},
		{
			name: "next candidate is tried after a failure",
			setup: func(a, _ *providers.MemoryProvider) {
				a.FailContent(p1, providers.NotFound("a", errors.New("gone")))
			},
			useB:         true,
			wantProvider: "b",
			wantAttempts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := providers.NewMemoryProvider("a")
			b := providers.NewMemoryProvider("b")
			a.AddPackage(p1, []byte("payload-1"))
			b.AddPackage(p1, []byte("payload-1"))
			tt.setup(a, b)

			add := additionFrom(p1, a)
			if tt.useB {
				add = additionFrom(p1, a, b)
			}

			outcomes := newTestFetcher(t).FetchAll(context.Background(), providerMap(a, b), []Addition{add})
			require.Len(t, outcomes, 1)
			out := outcomes[0]

			assert.Equal(t, p1, out.Identity)
			assert.Equal(t, tt.wantProvider, out.Provider)
			assert.Equal(t, tt.wantAttempts, out.Attempts)

			if tt.wantErr != nil {
				require.Error(t, out.Err)
				assert.ErrorIs(t, out.Err, tt.wantErr)
				assert.ErrorIs(t, out.Err, ErrFetchFailed)
				assert.Nil(t, out.Spool)
				return
			}
			require.NoError(t, out.Err)
			require.NotNil(t, out.Spool)
			t.Cleanup(func() { _ = out.Spool.Release() })
			assert.Equal(t, []byte("payload-1"), readSpool(t, out.Spool))
			assert.Equal(t, digest.FromString("payload-1"), out.Spool.Digest())
		})
	}
}

func TestFetcher_FetchAllKeepsOrder(t *testing.T) {
	t.Parallel()

	a := providers.NewMemoryProvider("a")
	a.AddPackage(p1, []byte("one"))
	a.AddPackage(p2, []byte("two"))
	a.AddPackage(p3, []byte("three"))
	a.FailContent(p2, providers.NotFound("a", errors.New("gone")))

	adds := []Addition{additionFrom(p1, a), additionFrom(p2, a), additionFrom(p3, a)}
	outcomes := newTestFetcher(t).FetchAll(context.Background(), providerMap(a), adds)
	require.Len(t, outcomes, 3)

	assert.Equal(t, p1, outcomes[0].Identity)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, p2, outcomes[1].Identity)
	assert.ErrorIs(t, outcomes[1].Err, ErrFetchFailed)
	assert.Equal(t, p3, outcomes[2].Identity)
	assert.NoError(t, outcomes[2].Err)

	for _, out := range outcomes {
		if out.Spool != nil {
			require.NoError(t, out.Spool.Release())
		}
	}
}

func TestFetcher_FetchAllCancelled(t *testing.T) {
	t.Parallel()

	a := providers.NewMemoryProvider("a")
	a.AddPackage(p1, []byte("one"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := newTestFetcher(t).FetchAll(ctx, providerMap(a), []Addition{additionFrom(p1, a)})
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, ErrCancelled)
	assert.Zero(t, a.TotalOpenCalls())
}

func TestFetcher_UnconfiguredProvider(t *testing.T) {
	t.Parallel()

	add := Addition{Identity: p1, Candidates: []Candidate{{Provider: "missing", Descriptor: desc(p1)}}}
	outcomes := newTestFetcher(t).FetchAll(context.Background(), nil, []Addition{add})
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, ErrFetchFailed)
	assert.Zero(t, outcomes[0].Attempts)
}

func TestNewFetcherFromConfig_ZeroSizesUseDefaults(t *testing.T) {
	t.Parallel()

	a := providers.NewMemoryProvider("a")
	a.AddPackage(p1, []byte("hello"))

	f := NewFetcherFromConfig(&config.SyncConfig{SpoolDir: t.TempDir()})
	outcomes := f.FetchAll(context.Background(), providerMap(a), []Addition{additionFrom(p1, a)})
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	t.Cleanup(func() { _ = outcomes[0].Spool.Release() })

	assert.Equal(t, int64(5), outcomes[0].Spool.Size())
	assert.False(t, outcomes[0].Spool.OnDisk())
}
