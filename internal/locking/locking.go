// Package locking serializes engine work per character/user pair so
// concurrent interactions for the same pair cannot interleave their
// read-modify-write of relationship state.
package locking

import (
	"sync"

	"github.com/easeaico/mnemosyne/internal/types"
)

// KeyedLocker hands out one mutex per pair key. Locks are never evicted;
// the map grows with the number of distinct pairs seen by this process,
// which is bounded by the active user population.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLocker returns an empty KeyedLocker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the pair and returns its unlock function.
func (l *KeyedLocker) Lock(pair types.Pair) func() {
	key := pair.Key()

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
