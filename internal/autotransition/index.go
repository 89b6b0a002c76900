// Package autotransition indexes pending auto-transitions by fire time.
//
// The index owns no timers. The reconciliation loop asks which venues are due
// and the engine keeps the index in step with every committed venue mutation.
package autotransition

import (
	"container/heap"
	"sort"
	"sync"
	"time"
)

type entry struct {
	venueID string
	fireAt  time.Time
	pos     int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].venueID < h[j].venueID
	}
	return h[i].fireAt.Before(h[j].fireAt)
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.pos = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.pos = -1
	*h = old[:n-1]
	return e
}

// Index is a min-heap of pending auto-transitions keyed by venue id.
// It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	heap    entryHeap
	byVenue map[string]*entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byVenue: make(map[string]*entry)}
}

// Arm records or replaces the pending transition for venueID.
func (x *Index) Arm(venueID string, fireAt time.Time) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if e, ok := x.byVenue[venueID]; ok {
		e.fireAt = fireAt
		heap.Fix(&x.heap, e.pos)
		return
	}
	e := &entry{venueID: venueID, fireAt: fireAt}
	heap.Push(&x.heap, e)
	x.byVenue[venueID] = e
}

// Clear removes any pending transition for venueID.
func (x *Index) Clear(venueID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.byVenue[venueID]
	if !ok {
		return
	}
	heap.Remove(&x.heap, e.pos)
	delete(x.byVenue, venueID)
}

// DueAsOf returns every venue whose transition fires at or before now, ordered
// by fire time. Entries stay in the index until the engine clears them, so a
// long gap between calls returns every overdue venue.
func (x *Index) DueAsOf(now time.Time) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var due []*entry
	var walk func(i int)
	walk = func(i int) {
		if i >= len(x.heap) || x.heap[i].fireAt.After(now) {
			return
		}
		due = append(due, x.heap[i])
		walk(2*i + 1)
		walk(2*i + 2)
	}
	walk(0)

	sort.Slice(due, func(i, j int) bool { return entryHeap(due).Less(i, j) })
	ids := make([]string, len(due))
	for i, e := range due {
		ids[i] = e.venueID
	}
	return ids
}

// Next returns the earliest pending transition.
func (x *Index) Next() (venueID string, fireAt time.Time, ok bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.heap) == 0 {
		return "", time.Time{}, false
	}
	return x.heap[0].venueID, x.heap[0].fireAt, true
}

// Lookup returns the fire time recorded for venueID.
func (x *Index) Lookup(venueID string) (time.Time, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	e, ok := x.byVenue[venueID]
	if !ok {
		return time.Time{}, false
	}
	return e.fireAt, true
}

// Len returns the number of pending transitions.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.heap)
}
