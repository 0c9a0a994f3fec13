package usecase

import (
	"context"
	"sync"
)

// AccountLockRegistry hands out one mutual-exclusion handle per account.
//
// Handles are reference counted over holders and waiters and are dropped from the
// registry once nobody holds or awaits them, so the map only ever contains accounts
// with operations in flight.
type AccountLockRegistry struct {
	mu    sync.Mutex
	locks map[int64]*accountLock
}

type accountLock struct {
	sem  chan struct{}
	refs int
}

// NewAccountLockRegistry creates an empty registry.
func NewAccountLockRegistry() *AccountLockRegistry {
	return &AccountLockRegistry{
		locks: make(map[int64]*accountLock),
	}
}

// Acquire blocks until the lock for accountID is held or ctx is done.
// On success the returned release func must be called to unlock; calling it more
// than once is a no-op. When ctx ends first, ctx.Err() is returned and nothing is held.
func (r *AccountLockRegistry) Acquire(ctx context.Context, accountID int64) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := r.ref(accountID)

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		r.unref(accountID, l)
		return nil, ctx.Err()
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			<-l.sem
			r.unref(accountID, l)
		})
	}, nil
}

// Len returns the number of accounts currently holding a registry entry.
func (r *AccountLockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.locks)
}

func (r *AccountLockRegistry) ref(accountID int64) *accountLock {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[accountID]
	if !ok {
		l = &accountLock{sem: make(chan struct{}, 1)}
		r.locks[accountID] = l
	}
	l.refs++

	return l
}

func (r *AccountLockRegistry) unref(accountID int64, l *accountLock) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(r.locks, accountID)
	}
}
