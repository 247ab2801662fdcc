package store

import "sync"

// KeyedMutex provides per-entity mutual exclusion: one mutex per key, created
// on demand. The session service locks per session ID around capacity
// read-modify-writes, and the rating service locks per ratee ID around
// rating-plus-recompute. Mutexes are never evicted; key cardinality is
// bounded by live entities.
type KeyedMutex struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
