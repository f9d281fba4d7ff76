package ledger

import (
	"context"
	"sync"
)

// lockTable provides exclusive per-wallet locks keyed by username.
//
// Locks are channel-backed so waiters can abandon a contended acquire when
// their context ends. Entries are never evicted; the working set is bounded
// by the number of wallets.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (t *lockTable) handle(name string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[name]
	if !ok {
		lock = make(chan struct{}, 1)
		t.locks[name] = lock
	}
	return lock
}

// acquire takes the exclusive lock for name, blocking until it is free or
// ctx ends.
func (t *lockTable) acquire(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case t.handle(name) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees the lock for name. Calling release without a prior acquire
// is a programming error and blocks.
func (t *lockTable) release(name string) {
	<-t.handle(name)
}
