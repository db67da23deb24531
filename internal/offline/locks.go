package offline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ownerLocks hands out one exclusive slot per owner. Entries are dropped
// once nobody holds or waits on them.
type ownerLocks struct {
	mu    sync.Mutex
	slots map[string]*ownerSlot
}

type ownerSlot struct {
	sem  *semaphore.Weighted
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{slots: map[string]*ownerSlot{}}
}

// acquire blocks until owner's slot is free or ctx ends.
func (l *ownerLocks) acquire(ctx context.Context, owner string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[owner]
	if !ok {
		slot = &ownerSlot{sem: semaphore.NewWeighted(1)}
		l.slots[owner] = slot
	}
	slot.refs++
	l.mu.Unlock()

	if err := slot.sem.Acquire(ctx, 1); err != nil {
		l.drop(owner, slot)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			slot.sem.Release(1)
			l.drop(owner, slot)
		})
	}, nil
}

func (l *ownerLocks) drop(owner string, slot *ownerSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 && l.slots[owner] == slot {
		delete(l.slots, owner)
	}
}
