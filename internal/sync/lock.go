package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
)

// repoLocks hands out one run slot per repository. A slot is a channel with
// capacity one; holding the slot means the channel is full.
type repoLocks struct {
	mu    gosync.Mutex
	slots map[uuid.UUID]chan struct{}
}

func newRepoLocks() *repoLocks {
	return &repoLocks{slots: make(map[uuid.UUID]chan struct{})}
}

func (l *repoLocks) slot(id uuid.UUID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[id] = ch
	}
	return ch
}

// tryAcquire takes the slot of id without waiting
func (l *repoLocks) tryAcquire(id uuid.UUID) (func(), bool) {
	ch := l.slot(id)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true
	default:
		return nil, false
	}
}

// acquire waits up to timeout for the slot of id. It returns ctx.Err()
// when ctx ends first and ok=false when the timeout expires.
func (l *repoLocks) acquire(ctx context.Context, id uuid.UUID, timeout time.Duration) (func(), bool, error) {
	ch := l.slot(id)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// held reports whether a run currently holds the slot of id. Unknown ids
// get no slot.
func (l *repoLocks) held(id uuid.UUID) bool {
	l.mu.Lock()
	ch, ok := l.slots[id]
	l.mu.Unlock()
	return ok && len(ch) == 1
}
