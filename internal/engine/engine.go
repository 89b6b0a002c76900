package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/venuestatus/internal/autotransition"
	"git.home.luguber.info/inful/venuestatus/internal/lifecycle"
	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/metrics"
	"git.home.luguber.info/inful/venuestatus/internal/notify"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// dispatchTimeout bounds a single Dispatch call, which includes the
// favorites lookup.
const dispatchTimeout = 10 * time.Second

// Persister receives a snapshot after every committed mutation. Enqueue must
// not block; persistence.Writer satisfies it.
type Persister interface {
	Enqueue(v venue.Venue)
}

// Dispatcher receives transition events in per-venue commit order.
// notify.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev venue.TransitionEvent) ([]notify.Job, error)
}

// Observer is told about every dispatched event, after the dispatcher.
// Observe must not block.
type Observer interface {
	Observe(ev venue.TransitionEvent)
}

type nopPersister struct{}

func (nopPersister) Enqueue(venue.Venue) {}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, venue.TransitionEvent) ([]notify.Job, error) {
	return nil, nil
}

// Engine is the venue registry plus the operations that mutate it.
type Engine struct {
	machine    *lifecycle.Machine
	index      *autotransition.Index
	persister  Persister
	dispatcher Dispatcher
	observers  []Observer
	clock      clockwork.Clock
	logger     *slog.Logger
	recorder   metrics.Recorder

	venues *registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithPersister sets where committed snapshots are sent.
func WithPersister(p Persister) Option { return func(e *Engine) { e.persister = p } }

// WithDispatcher sets where transition events are sent.
func WithDispatcher(d Dispatcher) Option { return func(e *Engine) { e.dispatcher = d } }

// WithObserver adds an event observer.
func WithObserver(o Observer) Option { return func(e *Engine) { e.observers = append(e.observers, o) } }

// WithClock sets the authoritative clock.
func WithClock(c clockwork.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(e *Engine) { e.recorder = r } }

// New returns an empty Engine driven by machine.
func New(machine *lifecycle.Machine, opts ...Option) *Engine {
	e := &Engine{
		machine:    machine,
		index:      autotransition.NewIndex(),
		persister:  nopPersister{},
		dispatcher: nopDispatcher{},
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
		venues:     newRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's clock.
func (e *Engine) Clock() clockwork.Clock { return e.clock }

// Machine returns the state machine.
func (e *Engine) Machine() *lifecycle.Machine { return e.machine }

// Register adds a venue loaded from storage or created by the owner. A venue
// without a mode starts as Manual{Closed}. Pending auto-transitions are
// indexed so an overdue one fires on the next fast tick. A venue whose
// schedule does not validate is rejected with venue.ErrInvalidSchedule.
func (e *Engine) Register(v venue.Venue) error {
	if v.ID == "" || v.OwnerID == "" {
		return ErrInvalidVenue.WithContext("venue_id", v.ID)
	}
	if err := v.Schedule.Validate(); err != nil {
		return err
	}
	if v.Mode == nil {
		v.Mode = venue.Manual{Status: venue.StatusClosed}
	}
	staged := v.Clone()
	ent, added := e.venues.add(staged)
	if !added {
		return ErrVenueExists.WithContext("venue_id", v.ID)
	}
	ent.mu.Lock()
	e.syncIndex(staged)
	ent.mu.Unlock()
	e.recorder.SetVenues(e.venues.len())
	e.logger.Debug("Venue registered",
		logfields.VenueID(v.ID),
		logfields.OwnerID(v.OwnerID),
		logfields.Mode(string(v.Mode.Kind())),
		logfields.Status(v.Status().String()))
	return nil
}

// Remove drops a venue from the registry. Operations already holding the
// venue complete; later ones see ErrVenueNotFound.
func (e *Engine) Remove(id string) error {
	ent, ok := e.venues.remove(id)
	if !ok {
		return venue.ErrVenueNotFound.WithContext("venue_id", id)
	}
	ent.mu.Lock()
	ent.removed = true
	e.index.Clear(id)
	ent.mu.Unlock()
	e.recorder.SetVenues(e.venues.len())
	e.recorder.SetPendingAutoTransitions(e.index.Len())
	e.logger.Debug("Venue removed", logfields.VenueID(id))
	return nil
}

// Get returns a copy of the venue.
func (e *Engine) Get(id string) (venue.Venue, error) {
	ent, ok := e.venues.get(id)
	if !ok {
		return venue.Venue{}, venue.ErrVenueNotFound.WithContext("venue_id", id)
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if ent.removed {
		return venue.Venue{}, venue.ErrVenueNotFound.WithContext("venue_id", id)
	}
	return *ent.v.Clone(), nil
}

// Snapshot returns copies of every venue ordered by id.
func (e *Engine) Snapshot() []venue.Venue {
	ids := e.venues.ids()
	out := make([]venue.Venue, 0, len(ids))
	for _, id := range ids {
		if v, err := e.Get(id); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// PendingAutoTransitions returns the number of armed auto-transitions.
func (e *Engine) PendingAutoTransitions() int { return e.index.Len() }

// NextAutoTransition returns the earliest armed auto-transition.
func (e *Engine) NextAutoTransition() (venueID string, fireAt time.Time, ok bool) {
	return e.index.Next()
}

// SetManualStatus sets a manual status on behalf of the owner.
func (e *Engine) SetManualStatus(ctx context.Context, ownerID, venueID string, status venue.Status) (venue.Venue, error) {
	return e.ownerOp(ctx, ownerID, venueID, func(v *venue.Venue, now time.Time) (lifecycle.Result, error) {
		return e.machine.SetManualStatus(v, status, now)
	})
}

// FollowSchedule switches the venue to schedule-following mode.
func (e *Engine) FollowSchedule(ctx context.Context, ownerID, venueID string) (venue.Venue, error) {
	return e.ownerOp(ctx, ownerID, venueID, func(v *venue.Venue, now time.Time) (lifecycle.Result, error) {
		return e.machine.FollowSchedule(v, now), nil
	})
}

// CancelAutoTransition clears a pending auto-transition, keeping the status.
func (e *Engine) CancelAutoTransition(ctx context.Context, ownerID, venueID string) (venue.Venue, error) {
	return e.ownerOp(ctx, ownerID, venueID, func(v *venue.Venue, now time.Time) (lifecycle.Result, error) {
		return e.machine.CancelAutoTransition(v, now), nil
	})
}

// UpdateSchedule replaces the venue's weekly schedule.
func (e *Engine) UpdateSchedule(ctx context.Context, ownerID, venueID string, s venue.WeeklySchedule) (venue.Venue, error) {
	return e.ownerOp(ctx, ownerID, venueID, func(v *venue.Venue, now time.Time) (lifecycle.Result, error) {
		return e.machine.UpdateSchedule(v, s, now)
	})
}

type mutation func(v *venue.Venue, now time.Time) (lifecycle.Result, error)

func (e *Engine) ownerOp(ctx context.Context, ownerID, venueID string, fn mutation) (venue.Venue, error) {
	v, _, err := e.mutate(ctx, venueID, func(v *venue.Venue, now time.Time) (lifecycle.Result, error) {
		if !v.IsOwnedBy(ownerID) {
			return lifecycle.Result{}, venue.ErrUnauthorized.WithContext("venue_id", venueID)
		}
		return fn(v, now)
	})
	if err != nil {
		e.logger.Debug("Owner operation rejected",
			logfields.VenueID(venueID),
			logfields.OwnerID(ownerID),
			logfields.Error(err))
	}
	return v, err
}

// outcome reports what a mutation did beyond the returned snapshot.
type outcome struct {
	transitioned     bool
	dispatchFailures int
}

// mutate runs fn against a staged copy of the venue under its lock and
// commits the copy when fn succeeds. Events are dispatched after the lock is
// released.
func (e *Engine) mutate(ctx context.Context, venueID string, fn mutation) (venue.Venue, outcome, error) {
	ent, ok := e.venues.get(venueID)
	if !ok {
		return venue.Venue{}, outcome{}, venue.ErrVenueNotFound.WithContext("venue_id", venueID)
	}

	ent.mu.Lock()
	if ent.removed {
		ent.mu.Unlock()
		return venue.Venue{}, outcome{}, venue.ErrVenueNotFound.WithContext("venue_id", venueID)
	}

	now := e.clock.Now()
	staged := ent.v.Clone()
	res, err := fn(staged, now)
	if err != nil {
		ent.mu.Unlock()
		return venue.Venue{}, outcome{}, err
	}

	var out outcome
	if res.Changed {
		ent.v = staged
		e.syncIndex(staged)
		e.persister.Enqueue(*staged.Clone())
		if res.Event != nil {
			ent.seq++
			ev := *res.Event
			ev.Seq = ent.seq
			ent.outbox = append(ent.outbox, ev)
			out.transitioned = true
			e.recorder.IncTransition(ev.NewStatus.String(), ev.CausedBySchedule)
			e.logger.Info("Venue status changed",
				logfields.VenueID(ev.VenueID),
				logfields.OldStatus(ev.OldStatus.String()),
				logfields.Status(ev.NewStatus.String()),
				slog.Bool("by_schedule", ev.CausedBySchedule))
		}
	}
	snapshot := *ent.v.Clone()
	ent.mu.Unlock()

	out.dispatchFailures = e.flush(ctx, ent)
	return snapshot, out, nil
}

// flush hands queued events to the dispatcher in FIFO order and returns the
// number that failed. Callers serialize on dispatchMu, and a caller only
// returns once the outbox is empty, so its own events have been handed off.
// The events are already committed, so dispatch ignores cancellation of ctx
// and is bounded by dispatchTimeout per event instead.
func (e *Engine) flush(ctx context.Context, ent *entry) int {
	ent.dispatchMu.Lock()
	defer ent.dispatchMu.Unlock()

	ctx = context.WithoutCancel(ctx)

	failures := 0
	for {
		ent.mu.Lock()
		batch := ent.outbox
		ent.outbox = nil
		ent.mu.Unlock()
		if len(batch) == 0 {
			return failures
		}
		for _, ev := range batch {
			dctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
			_, err := e.dispatcher.Dispatch(dctx, ev)
			cancel()
			if err != nil {
				failures++
				e.logger.Warn("Transition event not dispatched",
					logfields.VenueID(ev.VenueID),
					logfields.Status(ev.NewStatus.String()),
					slog.Uint64("seq", ev.Seq),
					logfields.Error(err))
			}
			for _, o := range e.observers {
				o.Observe(ev)
			}
		}
	}
}

// syncIndex mirrors the venue's pending auto-transition into the index.
// Called with the venue lock held.
func (e *Engine) syncIndex(v *venue.Venue) {
	if pending, ok := v.PendingAutoTransition(); ok {
		e.index.Arm(v.ID, pending.FireAt)
	} else {
		e.index.Clear(v.ID)
	}
	e.recorder.SetPendingAutoTransitions(e.index.Len())
}
