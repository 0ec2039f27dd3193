package service

import "sync"

// entityLocker serializes operations on the same target entity. Locks are
// created lazily per key and never released back; the key space (pages and
// intents seen this process lifetime) is small enough that this is fine.
type entityLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocker() *entityLocker {
	return &entityLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *entityLocker) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
