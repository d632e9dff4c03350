// Package kmutex provides per-key mutual exclusion. Each offering's
// mutations run under its own key so overlapping requests against one
// offering are strictly serialized while unrelated offerings proceed in
// parallel.
package kmutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

type Kmutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Kmutex {
	return &Kmutex{
		entries: map[string]*entry{},
	}
}

func (k *Kmutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *Kmutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("kmutex: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
