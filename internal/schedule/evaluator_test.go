package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// 2026-03-02 is a Monday.
func mon(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC) }
func tue(h, m int) time.Time { return time.Date(2026, 3, 3, h, m, 0, 0, time.UTC) }

func overnight(day time.Weekday, open, close venue.TimeOfDay) venue.DayProgram {
	return venue.DayProgram{Day: day, Open: true, OpensAt: open, ClosesAt: close, Overnight: true}
}

func daytime(day time.Weekday, open, close venue.TimeOfDay) venue.DayProgram {
	return venue.DayProgram{Day: day, Open: true, OpensAt: open, ClosesAt: close}
}

func TestEvaluate_OvernightWrap(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("UTC", overnight(time.Monday, venue.At(18, 0), venue.At(2, 0)))

	tests := []struct {
		at   time.Time
		want venue.Status
	}{
		{mon(17, 29), venue.StatusClosed},
		{mon(17, 30), venue.StatusOpeningSoon},
		{mon(17, 45), venue.StatusOpeningSoon},
		{mon(18, 0), venue.StatusOpen},
		{mon(18, 5), venue.StatusOpen},
		{tue(1, 29), venue.StatusOpen},
		{tue(1, 30), venue.StatusClosingSoon},
		{tue(1, 35), venue.StatusClosingSoon},
		{tue(2, 0), venue.StatusClosed},
		{tue(2, 5), venue.StatusClosed},
	}
	for _, tt := range tests {
		t.Run(tt.at.Format("Mon 15:04"), func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(s, tt.at))
		})
	}
}

func TestEvaluate_WrapIntoOpenDay(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("UTC",
		overnight(time.Monday, venue.At(18, 0), venue.At(2, 0)),
		overnight(time.Tuesday, venue.At(18, 0), venue.At(2, 0)),
	)

	assert.Equal(t, venue.StatusClosingSoon, e.Evaluate(s, tue(1, 35)))
	assert.Equal(t, venue.StatusClosed, e.Evaluate(s, tue(12, 0)))
	assert.Equal(t, venue.StatusOpeningSoon, e.Evaluate(s, tue(17, 45)))
}

func TestEvaluate_AbuttingIntervalsMerge(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("UTC",
		overnight(time.Monday, venue.At(18, 0), venue.At(0, 0)),
		daytime(time.Tuesday, venue.At(0, 0), venue.At(3, 0)),
	)

	assert.Equal(t, venue.StatusOpen, e.Evaluate(s, mon(23, 45)))
	assert.Equal(t, venue.StatusOpen, e.Evaluate(s, tue(0, 10)))
	assert.Equal(t, venue.StatusClosingSoon, e.Evaluate(s, tue(2, 45)))
}

func TestEvaluate_WeekBoundary(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("UTC", overnight(time.Sunday, venue.At(20, 0), venue.At(1, 0)))

	assert.Equal(t, venue.StatusClosingSoon, e.Evaluate(s, mon(0, 45)))
	assert.Equal(t, venue.StatusClosed, e.Evaluate(s, mon(1, 0)))
}

func TestEvaluate_OpeningSoonAcrossMidnight(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("UTC", daytime(time.Tuesday, venue.At(0, 15), venue.At(4, 0)))

	assert.Equal(t, venue.StatusOpeningSoon, e.Evaluate(s, mon(23, 50)))
	assert.Equal(t, venue.StatusClosed, e.Evaluate(s, mon(23, 40)))
}

func TestEvaluate_TimeZone(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("America/New_York", daytime(time.Monday, venue.At(9, 0), venue.At(17, 0)))

	// 14:00 UTC is 09:00 EST.
	assert.Equal(t, venue.StatusOpen, e.Evaluate(s, mon(14, 0)))
	assert.Equal(t, venue.StatusOpeningSoon, e.Evaluate(s, mon(13, 45)))
	assert.Equal(t, venue.StatusClosingSoon, e.Evaluate(s, mon(21, 40)))
}

func TestEvaluate_CustomWindows(t *testing.T) {
	e := NewEvaluator(10*time.Minute, time.Hour)
	s := venue.NewWeeklySchedule("UTC", daytime(time.Monday, venue.At(9, 0), venue.At(17, 0)))

	assert.Equal(t, venue.StatusClosed, e.Evaluate(s, mon(8, 45)))
	assert.Equal(t, venue.StatusOpeningSoon, e.Evaluate(s, mon(8, 50)))
	assert.Equal(t, venue.StatusClosingSoon, e.Evaluate(s, mon(16, 0)))
}

func TestEvaluate_ClosedWeek(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("UTC")
	for h := 0; h < 24; h++ {
		assert.Equal(t, venue.StatusClosed, e.Evaluate(s, mon(h, 0)))
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := NewEvaluator(0, 0)
	s := venue.NewWeeklySchedule("Europe/Oslo",
		overnight(time.Friday, venue.At(20, 0), venue.At(3, 0)),
		daytime(time.Saturday, venue.At(12, 0), venue.At(23, 0)),
	)
	start := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	for step := 0; step < 48*4; step++ {
		at := start.Add(time.Duration(step) * 15 * time.Minute)
		assert.Equal(t, e.Evaluate(s, at), e.Evaluate(s, at), at.String())
	}
}
