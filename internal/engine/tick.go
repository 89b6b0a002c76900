package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/lifecycle"
	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// TickKind names a reconciliation cadence.
type TickKind string

const (
	TickFast TickKind = "fast"
	TickSlow TickKind = "slow"
)

// TickReport summarizes one reconciliation pass.
type TickReport struct {
	Kind        TickKind
	At          time.Time
	Checked     int
	Transitions int
	Failures    int
	Duration    time.Duration
}

// FastTick fires every auto-transition due at the current time, however
// overdue. Every resulting event has been handed to the dispatcher when it
// returns. A cancelled ctx stops the tick before the next venue; whatever
// is left stays due for the next tick.
func (e *Engine) FastTick(ctx context.Context) TickReport {
	report := TickReport{Kind: TickFast, At: e.clock.Now()}
	for _, id := range e.index.DueAsOf(report.At) {
		if ctx.Err() != nil {
			break
		}
		e.reconcileOne(ctx, &report, id, e.machine.ApplyDueAutoTransition)
	}
	return e.finish(report)
}

// SlowTick re-evaluates the schedule of every schedule-following venue.
func (e *Engine) SlowTick(ctx context.Context) TickReport {
	report := TickReport{Kind: TickSlow, At: e.clock.Now()}
	for _, id := range e.venues.ids() {
		if ctx.Err() != nil {
			break
		}
		e.reconcileOne(ctx, &report, id, e.machine.ApplyScheduleRecompute)
	}
	return e.finish(report)
}

func (e *Engine) reconcileOne(ctx context.Context, report *TickReport, id string, apply func(*venue.Venue, time.Time) lifecycle.Result) {
	report.Checked++
	_, out, err := e.mutate(ctx, id, func(v *venue.Venue, now time.Time) (res lifecycle.Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic reconciling venue: %v", r)
			}
		}()
		return apply(v, now), nil
	})
	switch {
	case errors.Is(err, venue.ErrVenueNotFound):
		// Removed since the tick started.
		report.Checked--
		return
	case err != nil:
		report.Failures++
		e.logger.Error("Venue reconciliation failed",
			logfields.TickKind(string(report.Kind)),
			logfields.VenueID(id),
			logfields.Error(err))
		return
	}
	if out.transitioned {
		report.Transitions++
	}
	report.Failures += out.dispatchFailures
}

func (e *Engine) finish(report TickReport) TickReport {
	report.Duration = e.clock.Since(report.At)
	e.recorder.ObserveTick(string(report.Kind), report.Duration, report.Failures)

	level := slog.LevelDebug
	if report.Failures > 0 {
		level = slog.LevelWarn
	}
	e.logger.Log(context.Background(), level, "Reconciliation tick",
		logfields.TickKind(string(report.Kind)),
		slog.Int("checked", report.Checked),
		slog.Int("transitions", report.Transitions),
		slog.Int("failures", report.Failures),
		logfields.Duration(report.Duration))
	return report
}
