package venue

import (
	"fmt"
	"time"
)

// MinutesPerDay bounds TimeOfDay.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time as minutes after midnight.
type TimeOfDay int

// At builds a TimeOfDay from hours and minutes.
func At(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// ParseTimeOfDay parses "HH:MM" in 24h notation. Anything else, including
// trailing text or single-digit minutes, matches ErrInvalidSchedule.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	if len(raw) != len("15:04") {
		return 0, invalidTimeOfDay(raw, nil)
	}
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, invalidTimeOfDay(raw, err)
	}
	return At(parsed.Hour(), parsed.Minute()), nil
}

func invalidTimeOfDay(raw string, cause error) error {
	err := ErrInvalidSchedule.
		WithContext("value", raw).
		WithContext("reason", "time of day must be HH:MM")
	if cause != nil {
		return err.Wrap(cause)
	}
	return err
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DayProgram is the operating program for one day of the week. Overnight
// must be set explicitly when the interval crosses midnight, in which case
// ClosesAt falls on the following calendar day.
type DayProgram struct {
	Day       time.Weekday `json:"day" yaml:"day"`
	Open      bool         `json:"open" yaml:"open"`
	OpensAt   TimeOfDay    `json:"opens_at" yaml:"opens_at"`
	ClosesAt  TimeOfDay    `json:"closes_at" yaml:"closes_at"`
	Overnight bool         `json:"overnight,omitempty" yaml:"overnight,omitempty"`
}

// WeeklySchedule holds one program per weekday, indexed by time.Weekday.
type WeeklySchedule struct {
	TimeZone string        `json:"time_zone" yaml:"time_zone"`
	Days     [7]DayProgram `json:"days" yaml:"days"`
}

// NewWeeklySchedule places the given programs by weekday. Days not mentioned
// are closed.
func NewWeeklySchedule(tz string, programs ...DayProgram) WeeklySchedule {
	s := WeeklySchedule{TimeZone: tz}
	for d := time.Sunday; d <= time.Saturday; d++ {
		s.Days[d] = DayProgram{Day: d}
	}
	for _, p := range programs {
		if p.Day >= time.Sunday && p.Day <= time.Saturday {
			s.Days[p.Day] = p
		}
	}
	return s
}

// Location resolves the schedule's time zone. An empty zone means UTC.
func (s WeeklySchedule) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.TimeZone)
}

// Program returns the program for day.
func (s WeeklySchedule) Program(day time.Weekday) DayProgram {
	return s.Days[day]
}

// Validate rejects ambiguous or contradictory programs. The returned error
// matches ErrInvalidSchedule.
func (s WeeklySchedule) Validate() error {
	if _, err := s.Location(); err != nil {
		return invalidSchedule("time_zone", fmt.Sprintf("unknown time zone %q", s.TimeZone))
	}
	for i, p := range s.Days {
		field := fmt.Sprintf("days[%d]", i)
		if p.Day != time.Weekday(i) {
			return invalidSchedule(field, fmt.Sprintf("expected %s, got %s", time.Weekday(i), p.Day))
		}
		if !p.Open {
			if p.Overnight {
				return invalidSchedule(field, "closed day cannot be marked overnight")
			}
			continue
		}
		if !p.OpensAt.Valid() || !p.ClosesAt.Valid() {
			return invalidSchedule(field, "times must lie within 00:00-23:59")
		}
		if p.OpensAt == p.ClosesAt {
			return invalidSchedule(field, "opening and closing times are equal")
		}
		wraps := p.ClosesAt < p.OpensAt
		if wraps && !p.Overnight {
			return invalidSchedule(field, "closing time precedes opening time but overnight is not set")
		}
		if !wraps && p.Overnight {
			return invalidSchedule(field, "overnight is set but closing time follows opening time")
		}
	}
	return nil
}

func invalidSchedule(field, reason string) error {
	return ErrInvalidSchedule.
		WithContext("field", field).
		WithContext("reason", reason)
}
