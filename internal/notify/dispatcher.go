package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/metrics"
	"git.home.luguber.info/inful/venuestatus/internal/subscriptions"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// DefaultDedupWindow matches the default fast tick interval.
const DefaultDedupWindow = 10 * time.Second

type dedupKey struct {
	deviceID string
	venueID  string
	status   venue.Status
}

// Dispatcher filters transition events and fans them out to favoriting devices.
type Dispatcher struct {
	favorites subscriptions.Store
	window    time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	recorder  metrics.Recorder

	mu        sync.Mutex
	lastSent  map[dedupKey]time.Time
	lastPrune time.Time
	outbox    chan Job
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDedupWindow sets how long a (device, venue, status) announcement suppresses repeats.
func WithDedupWindow(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.window = d
		}
	}
}

// WithQueueSize sets the outbox capacity.
func WithQueueSize(n int) Option {
	return func(x *Dispatcher) {
		if n > 0 {
			x.outbox = make(chan Job, n)
		}
	}
}

// WithClock sets the clock used for job creation times.
func WithClock(c clockwork.Clock) Option { return func(x *Dispatcher) { x.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(x *Dispatcher) { x.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(x *Dispatcher) { x.recorder = r } }

// NewDispatcher returns a Dispatcher reading favorites from store.
func NewDispatcher(store subscriptions.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		favorites: store,
		window:    DefaultDedupWindow,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		lastSent:  make(map[dedupKey]time.Time),
		outbox:    make(chan Job, 1024),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Outbox is the queue of forwarded jobs, consumed by a Deliverer.
func (d *Dispatcher) Outbox() <-chan Job { return d.outbox }

// Dispatch forwards the jobs an event warrants and returns them. Events whose
// new status is not OpeningSoon or ClosingSoon produce nothing. The returned
// error is a favorites lookup failure; no job is forwarded in that case.
func (d *Dispatcher) Dispatch(ctx context.Context, ev venue.TransitionEvent) ([]Job, error) {
	name := ev.VenueName
	if name == "" {
		name = ev.VenueID
	}
	kind, title, body, ok := message(ev.NewStatus, name)
	if !ok {
		d.recorder.IncNotification(metrics.NotificationDropped)
		return nil, nil
	}

	devices, err := d.favorites.FavoritesOf(ctx, ev.VenueID)
	if err != nil {
		d.logger.Warn("Favorites lookup failed",
			logfields.VenueID(ev.VenueID),
			logfields.Status(ev.NewStatus.String()),
			logfields.Error(err))
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(ev.OccurredAt)

	var jobs []Job
	for _, deviceID := range devices {
		key := dedupKey{deviceID: deviceID, venueID: ev.VenueID, status: ev.NewStatus}
		if last, seen := d.lastSent[key]; seen && within(ev.OccurredAt, last, d.window) {
			d.recorder.IncNotification(metrics.NotificationDeduplicated)
			continue
		}

		job := Job{
			ID:         uuid.NewString(),
			Key:        jobKey(deviceID, ev.VenueID, ev.NewStatus, ev.OccurredAt, d.window),
			DeviceID:   deviceID,
			VenueID:    ev.VenueID,
			VenueName:  ev.VenueName,
			Status:     ev.NewStatus,
			Kind:       kind,
			Title:      title,
			Body:       body,
			OccurredAt: ev.OccurredAt,
			CreatedAt:  d.clock.Now(),
		}
		select {
		case d.outbox <- job:
		default:
			d.recorder.IncNotification(metrics.NotificationOverflow)
			d.logger.Warn("Notification dropped",
				logfields.JobID(job.ID),
				logfields.DeviceID(deviceID),
				logfields.VenueID(ev.VenueID),
				logfields.Error(ErrOutboxFull))
			continue
		}

		d.lastSent[key] = ev.OccurredAt
		d.recorder.IncNotification(metrics.NotificationForwarded)
		jobs = append(jobs, job)
	}

	if len(jobs) > 0 {
		d.logger.Debug("Notifications forwarded",
			logfields.VenueID(ev.VenueID),
			logfields.Status(ev.NewStatus.String()),
			logfields.Count(len(jobs)))
	}
	return jobs, nil
}

func within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < window
}

// pruneLocked forgets announcements that can no longer suppress anything.
func (d *Dispatcher) pruneLocked(now time.Time) {
	if now.Sub(d.lastPrune) < d.window {
		return
	}
	for k, t := range d.lastSent {
		if now.Sub(t) >= d.window {
			delete(d.lastSent, k)
		}
	}
	d.lastPrune = now
}
