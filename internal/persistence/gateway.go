package persistence

import (
	"context"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// Gateway is the durable store for venue snapshots.
type Gateway interface {
	Save(ctx context.Context, v venue.Venue) error
	LoadAll(ctx context.Context) ([]venue.Venue, error)
}
