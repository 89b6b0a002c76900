package notify

import "git.home.luguber.info/inful/venuestatus/internal/foundation/errors"

var (
	// ErrDeliveryFailed wraps a transport failure.
	ErrDeliveryFailed = errors.DeliveryError("notification delivery failed").Build()

	// ErrOutboxFull is logged when a forwarded job cannot be queued.
	ErrOutboxFull = errors.RuntimeError("notification outbox full").Warning().Build()
)
