package telemetry

import (
	"slices"
	"sync"
)

// Registry tracks telemetry sources by dataset id. It is safe for concurrent
// use; sources themselves are only polled, never mutated.
type Registry struct {
	mu      sync.RWMutex
	sources map[uint64]Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[uint64]Source)}
}

// Register adds src under id, replacing any previous source with that id.
func (r *Registry) Register(id uint64, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[id] = src
}

// Unregister removes the source with id. It reports whether one was present.
func (r *Registry) Unregister(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return false
	}
	delete(r.sources, id)
	return true
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Collect polls every source and returns the snapshots ordered by dataset id.
func (r *Registry) Collect() []Stats {
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Stats, len(ids))
	for i, id := range ids {
		r.sources[id].Collect(&out[i])
	}
	r.mu.RUnlock()
	return out
}

// Totals returns the sum over all sources.
func (r *Registry) Totals() Stats {
	var total Stats
	total.SetName("total")
	for _, s := range r.Collect() {
		total.Add(s)
	}
	return total
}
