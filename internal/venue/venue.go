package venue

import "time"

// Venue is a tracked establishment. It is owned by exactly one owner identity
// and mutated only through lifecycle operations performed by that owner or by
// the reconciliation ticks.
type Venue struct {
	ID          string
	Name        string
	OwnerID     string
	Mode        Mode
	Schedule    WeeklySchedule
	LastUpdated time.Time
}

// Status returns the status the venue currently displays.
func (v *Venue) Status() Status {
	if v.Mode == nil {
		return StatusClosed
	}
	return v.Mode.CurrentStatus()
}

// PendingAutoTransition returns the armed auto-transition, if any.
func (v *Venue) PendingAutoTransition() (AutoTransition, bool) {
	if m, ok := v.Mode.(Manual); ok && m.Pending != nil {
		return *m.Pending, true
	}
	return AutoTransition{}, false
}

// IsOwnedBy reports whether ownerID owns the venue.
func (v *Venue) IsOwnedBy(ownerID string) bool {
	return ownerID != "" && v.OwnerID == ownerID
}

// Clone returns a deep copy so mutations can be staged before commit.
func (v *Venue) Clone() *Venue {
	cp := *v
	if m, ok := v.Mode.(Manual); ok && m.Pending != nil {
		pending := *m.Pending
		m.Pending = &pending
		cp.Mode = m
	}
	return &cp
}
