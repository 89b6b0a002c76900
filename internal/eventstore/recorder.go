package eventstore

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// Recorder appends every observed transition to a Store. A failed append is
// logged and does not affect the transition.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewRecorder creates a Recorder with a per-append timeout.
func NewRecorder(store Store, logger *slog.Logger, timeout time.Duration) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{store: store, logger: logger, timeout: timeout}
}

// Observe implements engine.Observer.
func (r *Recorder) Observe(ev venue.TransitionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Append(ctx, ev); err != nil {
		r.logger.Warn("Failed to record transition",
			logfields.VenueID(ev.VenueID),
			logfields.Status(ev.NewStatus.String()),
			logfields.Error(err))
	}
}
