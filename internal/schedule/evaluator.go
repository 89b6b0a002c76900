// Package schedule derives a venue's status from its weekly operating schedule.
package schedule

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

const (
	DefaultOpeningSoonWindow = 30 * time.Minute
	DefaultClosingSoonWindow = 30 * time.Minute
)

// Evaluator maps (schedule, instant) to a status. It holds only configuration,
// so the same inputs always give the same answer.
type Evaluator struct {
	OpeningSoonWindow time.Duration
	ClosingSoonWindow time.Duration
}

// NewEvaluator returns an evaluator with the given lead-time windows. Non-positive
// windows fall back to the defaults.
func NewEvaluator(openingSoon, closingSoon time.Duration) Evaluator {
	if openingSoon <= 0 {
		openingSoon = DefaultOpeningSoonWindow
	}
	if closingSoon <= 0 {
		closingSoon = DefaultClosingSoonWindow
	}
	return Evaluator{OpeningSoonWindow: openingSoon, ClosingSoonWindow: closingSoon}
}

// Interval is a concrete half-open open period [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Evaluate returns the status the schedule implies at instant.
//
// Checks run in order: opening soon, closing soon, open, closed.
func (e Evaluator) Evaluate(s venue.WeeklySchedule, instant time.Time) venue.Status {
	intervals := e.Intervals(s, instant)

	for _, iv := range intervals {
		if instant.Before(iv.Start) && !instant.Before(iv.Start.Add(-e.OpeningSoonWindow)) {
			return venue.StatusOpeningSoon
		}
	}
	for _, iv := range intervals {
		if !iv.contains(instant) {
			continue
		}
		if !instant.Before(iv.End.Add(-e.ClosingSoonWindow)) {
			return venue.StatusClosingSoon
		}
		return venue.StatusOpen
	}
	return venue.StatusClosed
}

// Intervals returns the merged open intervals that can influence the status at
// instant: the previous day's overnight interval, today's interval and
// tomorrow's interval, resolved in the schedule's time zone.
func (e Evaluator) Intervals(s venue.WeeklySchedule, instant time.Time) []Interval {
	loc, err := s.Location()
	if err != nil {
		loc = time.UTC
	}
	local := instant.In(loc)
	y, m, d := local.Date()

	var raw []Interval
	for offset := -1; offset <= 1; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
		p := s.Program(day.Weekday())
		if !p.Open {
			continue
		}
		if offset == -1 && !p.Overnight {
			continue
		}
		raw = append(raw, programInterval(day, p, loc))
	}
	return merge(raw)
}

func programInterval(day time.Time, p venue.DayProgram, loc *time.Location) Interval {
	y, m, d := day.Date()
	start := time.Date(y, m, d, p.OpensAt.Hour(), p.OpensAt.Minute(), 0, 0, loc)
	closeDay := d
	if p.Overnight {
		closeDay++
	}
	end := time.Date(y, m, closeDay, p.ClosesAt.Hour(), p.ClosesAt.Minute(), 0, 0, loc)
	return Interval{Start: start, End: end}
}

// merge joins overlapping or abutting intervals so a venue open across
// midnight on consecutive days never reports closing soon at the seam.
func merge(in []Interval) []Interval {
	if len(in) < 2 {
		return in
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })
	out := []Interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
