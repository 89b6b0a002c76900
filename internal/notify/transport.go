package notify

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/venuestatus/internal/logfields"
)

// Transport hands a notification to the push provider.
type Transport interface {
	Deliver(ctx context.Context, d Delivery) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, d Delivery) error

func (f TransportFunc) Deliver(ctx context.Context, d Delivery) error { return f(ctx, d) }

// LogTransport writes deliveries to the log instead of sending them.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Deliver(_ context.Context, d Delivery) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Notification",
		logfields.JobID(d.JobID),
		logfields.DeviceID(d.DeviceID),
		logfields.VenueID(d.VenueID),
		slog.String("kind", string(d.Kind)),
		slog.String("title", d.Title),
		slog.String("body", d.Body))
	return nil
}
