package persistence

import "git.home.luguber.info/inful/venuestatus/internal/foundation/errors"

// ErrPersistenceFailure wraps a failed gateway write.
var ErrPersistenceFailure = errors.PersistenceError("venue save failed").Build()
