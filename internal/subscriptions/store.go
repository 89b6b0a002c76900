// Package subscriptions answers which devices follow which venues.
package subscriptions

import (
	"context"
	"sort"
	"sync"

	"git.home.luguber.info/inful/venuestatus/internal/foundation/errors"
)

// ErrLookupFailed is returned when the favorites backend cannot be queried.
var ErrLookupFailed = errors.SubscriptionError("favorites lookup failed").Build()

// Store is the read side used by the notification dispatcher.
type Store interface {
	IsFavorited(ctx context.Context, deviceID, venueID string) (bool, error)
	FavoritesOf(ctx context.Context, venueID string) ([]string, error)
}

// MemoryStore is an in-process Store, used by tests and the log-only daemon mode.
type MemoryStore struct {
	mu      sync.RWMutex
	byVenue map[string]map[string]struct{}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byVenue: make(map[string]map[string]struct{})}
}

// Favorite marks venueID as a favorite of deviceID.
func (m *MemoryStore) Favorite(deviceID, venueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	devices, ok := m.byVenue[venueID]
	if !ok {
		devices = make(map[string]struct{})
		m.byVenue[venueID] = devices
	}
	devices[deviceID] = struct{}{}
}

// Unfavorite removes the pairing; missing pairs are ignored.
func (m *MemoryStore) Unfavorite(deviceID, venueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byVenue[venueID], deviceID)
}

func (m *MemoryStore) IsFavorited(_ context.Context, deviceID, venueID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byVenue[venueID][deviceID]
	return ok, nil
}

// FavoritesOf returns device ids in ascending order.
func (m *MemoryStore) FavoritesOf(_ context.Context, venueID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byVenue[venueID]))
	for id := range m.byVenue[venueID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
