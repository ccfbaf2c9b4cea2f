// Package lockmap provides per-key mutual exclusion for user-scoped work.
package lockmap

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map hands out one mutex per int64 key. Entries are dropped once no goroutine
// holds or waits on them, so the map stays bounded by the number of active keys.
type Map struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: make(map[int64]*entry)}
}

// Lock blocks until the mutex for key is held and returns its release func.
// The release func must be called exactly once.
func (m *Map) Lock(key int64) func() {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.entries, key)
			}
			m.mu.Unlock()
		})
	}
}

// Len reports how many keys currently have holders or waiters.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
