package venue

import (
	"git.home.luguber.info/inful/venuestatus/internal/foundation/errors"
)

var (
	// ErrUnauthorized is returned when a caller other than the owner attempts a mutation.
	ErrUnauthorized = errors.AuthError("caller is not the venue owner").Build()

	// ErrVenueNotFound is returned for operations on an unknown venue id.
	ErrVenueNotFound = errors.NotFoundError("venue not found").Build()

	// ErrInvalidSchedule is returned when a schedule has an ambiguous or contradictory program.
	ErrInvalidSchedule = errors.ValidationError("invalid schedule").Build()

	// ErrInvalidStatus is returned for status values outside the known set.
	ErrInvalidStatus = errors.ValidationError("invalid status").Build()
)
