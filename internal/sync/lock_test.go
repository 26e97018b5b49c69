package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoLocks_TryAcquire(t *testing.T) {
	t.Parallel()

	locks := newRepoLocks()
	a, b := uuid.New(), uuid.New()

	release, ok := locks.tryAcquire(a)
	require.True(t, ok)
	assert.True(t, locks.held(a))

	_, ok = locks.tryAcquire(a)
	assert.False(t, ok, "second run for the same repository is rejected")

	releaseB, ok := locks.tryAcquire(b)
	require.True(t, ok, "other repositories are independent")
	releaseB()

	release()
	assert.False(t, locks.held(a))

	release, ok = locks.tryAcquire(a)
	require.True(t, ok)
	release()
}

func TestRepoLocks_AcquireWaits(t *testing.T) {
	t.Parallel()

	locks := newRepoLocks()
	id := uuid.New()

	release, ok := locks.tryAcquire(id)
	require.True(t, ok)

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	release2, ok, err := locks.acquire(context.Background(), id, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	release2()
}

func TestRepoLocks_AcquireTimeout(t *testing.T) {
	t.Parallel()

	locks := newRepoLocks()
	id := uuid.New()

	release, ok := locks.tryAcquire(id)
	require.True(t, ok)
	defer release()

	_, ok, err := locks.acquire(context.Background(), id, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err = locks.acquire(ctx, id, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestRepoLocks_HeldDoesNotAllocate(t *testing.T) {
	t.Parallel()

	locks := newRepoLocks()
	for range 10 {
		assert.False(t, locks.held(uuid.New()))
	}
	assert.Empty(t, locks.slots)
}
