// Package venue defines the venue status domain model: the Status enum, the
// operation mode tagged union (Manual or ScheduleFollowing), the weekly
// schedule and the ephemeral TransitionEvent.
//
// Types in this package carry no behavior beyond validation and encoding. Status
// transitions live in internal/lifecycle and schedule evaluation in
// internal/schedule.
package venue
