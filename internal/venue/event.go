package venue

import "time"

// TransitionEvent records a change of displayed status. It is produced by a
// lifecycle operation and consumed once by the notification dispatcher.
type TransitionEvent struct {
	VenueID          string    `json:"venue_id"`
	VenueName        string    `json:"venue_name"`
	OldStatus        Status    `json:"old_status"`
	NewStatus        Status    `json:"new_status"`
	OccurredAt       time.Time `json:"occurred_at"`
	CausedBySchedule bool      `json:"caused_by_schedule"`
	// Seq is the per-venue commit number assigned by the engine.
	Seq uint64 `json:"seq"`
}
