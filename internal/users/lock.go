package users

import "sync"

// Locker hands out per-user mutexes so enforcement actions and
// promotion-award flows serialize on the same rider without blocking
// unrelated riders (§5: "Rider state is writer-serialized by holding a
// per-user lock for the duration of enforcement or gold-status grants").
// This is in addition to, not instead of, the storage-level transaction:
// the lock protects the read-modify-write window across the repository
// Get/Update pair, which a single Mongo document transaction does not by
// itself serialize against a concurrent read-then-write from another goroutine.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-user mutex for userID and returns a function that
// releases it. Callers must defer the returned function.
func (l *Locker) Lock(userID string) func() {
	l.mu.Lock()
	userLock, ok := l.locks[userID]
	if !ok {
		userLock = &sync.Mutex{}
		l.locks[userID] = userLock
	}
	l.mu.Unlock()

	userLock.Lock()
	return userLock.Unlock
}
