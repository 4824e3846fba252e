// Package keylock provides per-key mutual exclusion with FIFO hand-off.
package keylock

import "sync"

type entry struct {
	waiters []chan struct{}
}

// KeyLock serializes callers that share a key. Waiters acquire the key in the
// order they called Lock; idle keys hold no memory.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{entries: make(map[string]*entry)}
}

func (l *KeyLock) Lock(key string) {
	l.mu.Lock()
	e, held := l.entries[key]
	if !held {
		l.entries[key] = &entry{}
		l.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	e.waiters = append(e.waiters, ch)
	l.mu.Unlock()
	<-ch
}

// Unlock releases key, handing it directly to the oldest waiter if any.
func (l *KeyLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, held := l.entries[key]
	if !held {
		panic("keylock: unlock of unlocked key " + key)
	}
	if len(e.waiters) == 0 {
		delete(l.entries, key)
		return
	}
	next := e.waiters[0]
	e.waiters[0] = nil
	e.waiters = e.waiters[1:]
	close(next)
}

// With runs fn while holding key. The key is released on every exit path.
func (l *KeyLock) With(key string, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}

// Len returns the number of keys currently held.
func (l *KeyLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
