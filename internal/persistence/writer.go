package persistence

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/metrics"
	"git.home.luguber.info/inful/venuestatus/internal/retry"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

type pendingSave struct {
	snapshot  venue.Venue
	retries   int
	notBefore time.Time
}

// Writer saves venue snapshots asynchronously. Enqueue never blocks; only the
// latest snapshot per venue is kept, and failed saves are retried per venue
// on the configured backoff without holding up other venues.
type Writer struct {
	gateway  Gateway
	policy   retry.Policy
	clock    clockwork.Clock
	logger   *slog.Logger
	recorder metrics.Recorder

	mu      sync.Mutex
	pending map[string]*pendingSave
	wake    chan struct{}
	done    chan struct{}
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithPolicy sets the retry policy.
func WithPolicy(p retry.Policy) WriterOption { return func(w *Writer) { w.policy = p } }

// WithClock sets the clock used for backoff timing.
func WithClock(c clockwork.Clock) WriterOption { return func(w *Writer) { w.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) WriterOption { return func(w *Writer) { w.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) WriterOption { return func(w *Writer) { w.recorder = r } }

// NewWriter returns a Writer in front of gateway. Call Run to start saving.
func NewWriter(gateway Gateway, opts ...WriterOption) *Writer {
	w := &Writer{
		gateway:  gateway,
		policy:   retry.DefaultPolicy(),
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		pending:  make(map[string]*pendingSave),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue records the latest snapshot for v.ID. A newer snapshot replaces any
// queued one and resets its retry budget.
func (w *Writer) Enqueue(v venue.Venue) {
	w.mu.Lock()
	w.pending[v.ID] = &pendingSave{snapshot: v}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of snapshots waiting to be saved.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Run saves queued snapshots until ctx is cancelled. On shutdown every
// remaining snapshot gets one final attempt.
func (w *Writer) Run(ctx context.Context) error {
	defer close(w.done)

	for {
		next := w.saveReady(ctx)

		var (
			timer   clockwork.Timer
			backoff <-chan time.Time
		)
		if !next.IsZero() {
			timer = w.clock.NewTimer(next.Sub(w.clock.Now()))
			backoff = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.drain(context.WithoutCancel(ctx))
			return nil
		case <-w.wake:
		case <-backoff:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Done is closed once Run has returned.
func (w *Writer) Done() <-chan struct{} { return w.done }

// saveReady attempts every snapshot whose backoff has elapsed and returns the
// earliest time a deferred snapshot becomes ready (zero when none remain).
func (w *Writer) saveReady(ctx context.Context) time.Time {
	now := w.clock.Now()
	for _, id := range w.readyIDs(now) {
		if ctx.Err() != nil {
			break
		}
		w.attempt(ctx, id)
	}
	return w.earliestDeferred()
}

func (w *Writer) readyIDs(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]string, 0, len(w.pending))
	for id, p := range w.pending {
		if !p.notBefore.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (w *Writer) earliestDeferred() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	var earliest time.Time
	for _, p := range w.pending {
		if earliest.IsZero() || p.notBefore.Before(earliest) {
			earliest = p.notBefore
		}
	}
	return earliest
}

func (w *Writer) attempt(ctx context.Context, id string) {
	w.mu.Lock()
	p, ok := w.pending[id]
	if ok {
		delete(w.pending, id)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	start := w.clock.Now()
	err := w.gateway.Save(ctx, p.snapshot)
	w.recorder.IncPersistResult(err == nil)
	if err == nil {
		w.logger.Debug("Venue saved",
			logfields.VenueID(id),
			logfields.Attempt(p.retries+1),
			logfields.Duration(w.clock.Since(start)))
		return
	}

	retries := p.retries + 1
	if w.policy.Exhausted(retries) {
		w.recorder.IncPersistExhausted()
		w.logger.Error("Venue save abandoned after retries",
			logfields.VenueID(id),
			logfields.Attempt(retries),
			logfields.Error(err))
		return
	}

	delay := w.policy.Delay(retries)
	w.recorder.IncPersistRetry()
	w.logger.Warn("Venue save failed, retrying",
		logfields.VenueID(id),
		logfields.Attempt(retries),
		slog.Duration("backoff", delay),
		logfields.Error(err))

	w.mu.Lock()
	defer w.mu.Unlock()
	// A snapshot enqueued while saving supersedes the failed one.
	if _, newer := w.pending[id]; newer {
		return
	}
	p.retries = retries
	p.notBefore = w.clock.Now().Add(delay)
	w.pending[id] = p
}

func (w *Writer) drain(ctx context.Context) {
	w.mu.Lock()
	remaining := make([]*pendingSave, 0, len(w.pending))
	for _, p := range w.pending {
		remaining = append(remaining, p)
	}
	w.pending = make(map[string]*pendingSave)
	w.mu.Unlock()

	sort.Slice(remaining, func(i, j int) bool { return remaining[i].snapshot.ID < remaining[j].snapshot.ID })
	for _, p := range remaining {
		err := w.gateway.Save(ctx, p.snapshot)
		w.recorder.IncPersistResult(err == nil)
		if err != nil {
			w.logger.Error("Venue save lost at shutdown",
				logfields.VenueID(p.snapshot.ID),
				logfields.Error(err))
		}
	}
	if len(remaining) > 0 {
		w.logger.Info("Persistence writer drained", logfields.Count(len(remaining)))
	}
}
