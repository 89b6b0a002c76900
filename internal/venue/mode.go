package venue

import "time"

// ModeKind names the two operation modes.
type ModeKind string

const (
	ModeManual   ModeKind = "manual"
	ModeSchedule ModeKind = "schedule"
)

// Mode is the operation mode of a venue. The only implementations are Manual
// and ScheduleFollowing.
type Mode interface {
	Kind() ModeKind
	CurrentStatus() Status
	isMode()
}

// AutoTransition is a one-shot status change armed after OpeningSoon or
// ClosingSoon is set manually.
type AutoTransition struct {
	Target Status    `json:"target"`
	FireAt time.Time `json:"fire_at"`
}

// DueAt reports whether the transition should fire at now.
func (a AutoTransition) DueAt(now time.Time) bool {
	return !a.FireAt.After(now)
}

// Manual is an owner-set status with an optional pending auto-transition.
type Manual struct {
	Status  Status
	Pending *AutoTransition
}

func (Manual) Kind() ModeKind          { return ModeManual }
func (m Manual) CurrentStatus() Status { return m.Status }
func (Manual) isMode()                 {}

// ScheduleFollowing derives the status from the weekly schedule. Status caches
// the last evaluated value so changes can be detected.
type ScheduleFollowing struct {
	Status Status
}

func (ScheduleFollowing) Kind() ModeKind          { return ModeSchedule }
func (s ScheduleFollowing) CurrentStatus() Status { return s.Status }
func (ScheduleFollowing) isMode()                 {}
