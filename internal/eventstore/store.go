// Package eventstore keeps an append-only history of venue status
// transitions.
package eventstore

import (
	"context"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// Store defines the interface for persisting and retrieving transitions.
type Store interface {
	// Append adds a transition to the history.
	Append(ctx context.Context, ev venue.TransitionEvent) error

	// ByVenue returns the most recent transitions of one venue, newest
	// first. A limit of zero or less returns all of them.
	ByVenue(ctx context.Context, venueID string, limit int) ([]venue.TransitionEvent, error)

	// Range returns transitions that occurred within [start, end] in
	// append order.
	Range(ctx context.Context, start, end time.Time) ([]venue.TransitionEvent, error)

	// Close releases resources.
	Close() error
}
