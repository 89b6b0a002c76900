package engine

import "git.home.luguber.info/inful/venuestatus/internal/foundation/errors"

var (
	// ErrVenueExists is returned when registering an id already present.
	ErrVenueExists = errors.NewError(errors.CategoryConflict, "venue already registered").Build()

	// ErrInvalidVenue is returned when registering a venue without id or owner.
	ErrInvalidVenue = errors.ValidationError("invalid venue").Build()
)
