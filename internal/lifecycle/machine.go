// Package lifecycle implements the venue status state machine: manual
// overrides, timed auto-transitions and schedule following.
//
// Machine methods mutate the *venue.Venue they are given and never block. The
// caller is responsible for ownership checks and for serializing access to a
// venue; internal/engine does both.
package lifecycle

import (
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/schedule"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// DefaultAutoTransitionDelay is how long a manual OpeningSoon/ClosingSoon holds
// before moving on to Open/Closed.
const DefaultAutoTransitionDelay = 60 * time.Minute

// Result describes the effect of one operation.
type Result struct {
	// Changed is true when the venue record was modified and must be persisted.
	Changed bool
	// Event is set when the displayed status changed.
	Event *venue.TransitionEvent
}

// Machine applies status transitions.
type Machine struct {
	evaluator schedule.Evaluator
	delay     time.Duration
}

// NewMachine creates a state machine. A non-positive delay uses the default.
func NewMachine(evaluator schedule.Evaluator, autoTransitionDelay time.Duration) *Machine {
	if autoTransitionDelay <= 0 {
		autoTransitionDelay = DefaultAutoTransitionDelay
	}
	return &Machine{evaluator: evaluator, delay: autoTransitionDelay}
}

// AutoTransitionDelay returns the configured hold time.
func (m *Machine) AutoTransitionDelay() time.Duration { return m.delay }

// Evaluator returns the schedule evaluator used for schedule-following venues.
func (m *Machine) Evaluator() schedule.Evaluator { return m.evaluator }

// autoTarget maps a lead-time status to the status it decays into.
func autoTarget(s venue.Status) (venue.Status, bool) {
	switch s {
	case venue.StatusOpeningSoon:
		return venue.StatusOpen, true
	case venue.StatusClosingSoon:
		return venue.StatusClosed, true
	default:
		return "", false
	}
}

// SetManualStatus puts the venue in manual mode with status. Any pending
// auto-transition is dropped; OpeningSoon and ClosingSoon arm a new one at
// now+delay, so repeating the same status extends the window.
func (m *Machine) SetManualStatus(v *venue.Venue, status venue.Status, now time.Time) (Result, error) {
	if !status.Valid() {
		return Result{}, venue.ErrInvalidStatus.WithContext("status", string(status))
	}

	mode := venue.Manual{Status: status}
	if target, ok := autoTarget(status); ok {
		mode.Pending = &venue.AutoTransition{Target: target, FireAt: now.Add(m.delay)}
	}
	return m.commit(v, mode, now, false), nil
}

// FollowSchedule switches the venue to schedule-following mode and evaluates
// the schedule at now. The pending auto-transition disappears with the manual
// mode that held it.
func (m *Machine) FollowSchedule(v *venue.Venue, now time.Time) Result {
	status := m.evaluator.Evaluate(v.Schedule, now)
	return m.commit(v, venue.ScheduleFollowing{Status: status}, now, true)
}

// CancelAutoTransition clears a pending auto-transition and keeps the status.
// It is a no-op for venues without one.
func (m *Machine) CancelAutoTransition(v *venue.Venue, now time.Time) Result {
	manual, ok := v.Mode.(venue.Manual)
	if !ok || manual.Pending == nil {
		return Result{}
	}
	return m.commit(v, venue.Manual{Status: manual.Status}, now, false)
}

// ApplyDueAutoTransition fires the pending auto-transition if it is due at now.
func (m *Machine) ApplyDueAutoTransition(v *venue.Venue, now time.Time) Result {
	manual, ok := v.Mode.(venue.Manual)
	if !ok || manual.Pending == nil || !manual.Pending.DueAt(now) {
		return Result{}
	}
	return m.commit(v, venue.Manual{Status: manual.Pending.Target}, now, false)
}

// ApplyScheduleRecompute re-evaluates a schedule-following venue at now.
func (m *Machine) ApplyScheduleRecompute(v *venue.Venue, now time.Time) Result {
	if _, ok := v.Mode.(venue.ScheduleFollowing); !ok {
		return Result{}
	}
	status := m.evaluator.Evaluate(v.Schedule, now)
	if status == v.Status() {
		return Result{}
	}
	return m.commit(v, venue.ScheduleFollowing{Status: status}, now, true)
}

// UpdateSchedule validates and installs a new weekly schedule. A
// schedule-following venue is re-evaluated against it in the same step.
func (m *Machine) UpdateSchedule(v *venue.Venue, s venue.WeeklySchedule, now time.Time) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	v.Schedule = s
	mode := v.Mode
	if _, ok := mode.(venue.ScheduleFollowing); ok {
		mode = venue.ScheduleFollowing{Status: m.evaluator.Evaluate(s, now)}
	}
	return m.commit(v, mode, now, true), nil
}

func (m *Machine) commit(v *venue.Venue, mode venue.Mode, now time.Time, bySchedule bool) Result {
	old := v.Status()
	v.Mode = mode
	v.LastUpdated = now

	res := Result{Changed: true}
	if next := mode.CurrentStatus(); next != old {
		res.Event = &venue.TransitionEvent{
			VenueID:          v.ID,
			VenueName:        v.Name,
			OldStatus:        old,
			NewStatus:        next,
			OccurredAt:       now,
			CausedBySchedule: bySchedule,
		}
	}
	return res
}
