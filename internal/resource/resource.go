// Package resource implements the ResourceMap (spec §4.8): add-only
// immutable buffer lending by name, and named mutable buffers for
// feedback taps.
package resource

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// Immutable is a shared, never-mutated multichannel audio buffer. Once
// published, its contents never change for the lifetime of any
// outstanding reference — realtime readers may hold a *Immutable across
// many blocks without re-checking it.
type Immutable struct {
	Name     string
	Channels [][]float32

	refs atomix.Int32 // strong-reference count; the map itself holds one
}

// Borrow records a new reference to h. Call once per schedule (or other
// long-lived holder) that stores the handle.
func (h *Immutable) Borrow() {
	h.refs.AddAcqRel(1)
}

// Release drops a reference taken by Borrow. Call when the holder (e.g.
// a retired schedule) is discarded.
func (h *Immutable) Release() {
	h.refs.AddAcqRel(-1)
}

// Mutable is a named, block-sized mutable buffer shared between a
// tap-out producer and a tap-in consumer (spec §4.6).
type Mutable struct {
	Name string
	Data []float32
}

// Map is the ResourceMap: two disjoint maps keyed by name, mutated only
// on the control thread.
type Map struct {
	mu        sync.RWMutex
	immutable map[string]*Immutable
	mutable   map[string]*Mutable
}

// New returns an empty ResourceMap.
func New() *Map {
	return &Map{
		immutable: make(map[string]*Immutable),
		mutable:   make(map[string]*Mutable),
	}
}

// Add publishes buffer under name. Insertion is add-only: a second Add
// with an existing name returns false and leaves the stored buffer
// untouched (spec §4.8, tested by spec §8's add-only invariant).
func (m *Map) Add(name string, channels [][]float32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.immutable[name]; exists {
		return false
	}
	h := &Immutable{Name: name, Channels: channels}
	h.refs.StoreRelaxed(1) // the map's own reference
	m.immutable[name] = h
	return true
}

// Lookup returns the shared immutable handle published under name.
func (m *Map) Lookup(name string) (*Immutable, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.immutable[name]
	return h, ok
}

// Prune removes immutable entries with no outstanding borrower — only
// the map's own reference remains (spec §4.8).
func (m *Map) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, h := range m.immutable {
		if h.refs.LoadRelaxed() <= 1 {
			delete(m.immutable, name)
		}
	}
}

// Keys lists the published immutable resource names. Never exposes
// values (spec §4.8).
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.immutable))
	for name := range m.immutable {
		out = append(out, name)
	}
	return out
}

// Tap returns the shared mutable buffer for name, creating it with the
// given size on first request. Subsequent requests by the same name
// return the same handle so a tap-in and tap-out meet (spec §4.6).
func (m *Map) Tap(name string, size int) *Mutable {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.mutable[name]; ok {
		return b
	}
	b := &Mutable{Name: name, Data: make([]float32, size)}
	m.mutable[name] = b
	return b
}
