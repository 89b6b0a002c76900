package eventstore

import (
	"git.home.luguber.info/inful/venuestatus/internal/foundation/errors"
)

var (
	// ErrEventAppendFailed indicates appending a transition failed.
	ErrEventAppendFailed = errors.PersistenceError("failed to append transition to history").Build()

	// ErrEventQueryFailed indicates querying the history failed.
	ErrEventQueryFailed = errors.PersistenceError("failed to query transition history").Build()
)
