package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/metrics"
)

// Deliverer drains an outbox into a Transport, one job at a time.
type Deliverer struct {
	transport Transport
	jobs      <-chan Job
	timeout   time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// DelivererOption configures a Deliverer.
type DelivererOption func(*Deliverer)

// WithDeliveryTimeout bounds each Deliver call.
func WithDeliveryTimeout(d time.Duration) DelivererOption {
	return func(x *Deliverer) { x.timeout = d }
}

// WithDelivererLogger sets the logger.
func WithDelivererLogger(l *slog.Logger) DelivererOption {
	return func(x *Deliverer) { x.logger = l }
}

// WithDelivererRecorder sets the metrics recorder.
func WithDelivererRecorder(r metrics.Recorder) DelivererOption {
	return func(x *Deliverer) { x.recorder = r }
}

// WithDelivererClock sets the clock used to time deliveries.
func WithDelivererClock(c clockwork.Clock) DelivererOption {
	return func(x *Deliverer) { x.clock = c }
}

// NewDeliverer returns a Deliverer reading from jobs.
func NewDeliverer(t Transport, jobs <-chan Job, opts ...DelivererOption) *Deliverer {
	d := &Deliverer{
		transport: t,
		jobs:      jobs,
		timeout:   10 * time.Second,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run delivers jobs until ctx is cancelled or the outbox is closed. Jobs
// still queued at cancellation are abandoned and counted in the log.
func (d *Deliverer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := len(d.jobs); n > 0 {
				d.logger.Warn("Undelivered notifications at shutdown", logfields.Count(n))
			}
			return nil
		case job, ok := <-d.jobs:
			if !ok {
				return nil
			}
			d.deliver(ctx, job)
		}
	}
}

func (d *Deliverer) deliver(ctx context.Context, job Job) {
	start := d.clock.Now()
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.transport.Deliver(dctx, job.Delivery()); err != nil {
		d.recorder.IncNotification(metrics.NotificationFailed)
		d.logger.Warn("Notification delivery failed",
			logfields.JobID(job.ID),
			logfields.DeviceID(job.DeviceID),
			logfields.VenueID(job.VenueID),
			logfields.Error(err))
		return
	}
	d.recorder.IncNotification(metrics.NotificationDelivered)
	d.logger.Debug("Notification delivered",
		logfields.JobID(job.ID),
		logfields.DeviceID(job.DeviceID),
		logfields.Duration(d.clock.Since(start)))
}
