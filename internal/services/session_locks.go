package services

import "sync"

// sessionLocks serialises the read-history, complete, append-turn cycle per
// session so concurrent requests cannot interleave turns. Entries are reference
// counted and removed once no request holds or waits for them.
type sessionLocks struct {
	enabled bool
	mu      sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks(enabled bool) *sessionLocks {
	return &sessionLocks{enabled: enabled, locks: make(map[string]*sessionLock)}
}

// Lock blocks until the session is free and returns the matching unlock.
func (l *sessionLocks) Lock(sessionID string) func() {
	if !l.enabled {
		return func() {}
	}

	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		l.locks[sessionID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
