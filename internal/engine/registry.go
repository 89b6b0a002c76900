package engine

import (
	"sort"
	"sync"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// entry is one venue slot. mu guards v, removed, seq and outbox; dispatchMu
// is held while outbox events are handed to the dispatcher.
type entry struct {
	mu      sync.Mutex
	v       *venue.Venue
	removed bool
	seq     uint64
	outbox  []venue.TransitionEvent

	dispatchMu sync.Mutex
}

type registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*entry)}
}

func (r *registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *registry) add(v *venue.Venue) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[v.ID]; exists {
		return nil, false
	}
	e := &entry{v: v}
	r.entries[v.ID] = e
	return e, true
}

func (r *registry) remove(id string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return e, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ids returns every registered id in ascending order.
func (r *registry) ids() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
