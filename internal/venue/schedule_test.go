package venue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("18:30")
	require.NoError(t, err)
	assert.Equal(t, At(18, 30), got)
	assert.Equal(t, "18:30", got.String())

	got, err = ParseTimeOfDay("00:00")
	require.NoError(t, err)
	assert.Equal(t, At(0, 0), got)

	for _, bad := range []string{"24:00", "12:60", "noon", "", "7:30pm", "18:00xyz", "18:5", "7:30", " 18:00", "-1:30"} {
		_, err := ParseTimeOfDay(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrInvalidSchedule), bad)
	}
}

func TestDayProgram_JSONRejectsLooseTime(t *testing.T) {
	var p DayProgram
	err := json.Unmarshal([]byte(`{"day":1,"open":true,"opens_at":"7:30pm","closes_at":"23:00"}`), &p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSchedule))

	require.NoError(t, json.Unmarshal([]byte(`{"day":1,"open":true,"opens_at":"07:30","closes_at":"23:00"}`), &p))
	assert.Equal(t, At(7, 30), p.OpensAt)
}

func TestWeeklySchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		program DayProgram
		reason  string
	}{
		{
			name:    "plain daytime interval",
			program: DayProgram{Day: time.Monday, Open: true, OpensAt: At(9, 0), ClosesAt: At(17, 0)},
		},
		{
			name:    "explicit overnight interval",
			program: DayProgram{Day: time.Monday, Open: true, OpensAt: At(18, 0), ClosesAt: At(2, 0), Overnight: true},
		},
		{
			name:    "midnight close must be overnight",
			program: DayProgram{Day: time.Monday, Open: true, OpensAt: At(18, 0), ClosesAt: At(0, 0), Overnight: true},
		},
		{
			name:    "wrap without overnight flag",
			program: DayProgram{Day: time.Monday, Open: true, OpensAt: At(18, 0), ClosesAt: At(2, 0)},
			reason:  "closing time precedes opening time but overnight is not set",
		},
		{
			name:    "overnight flag on daytime interval",
			program: DayProgram{Day: time.Monday, Open: true, OpensAt: At(9, 0), ClosesAt: At(17, 0), Overnight: true},
			reason:  "overnight is set but closing time follows opening time",
		},
		{
			name:    "zero-length interval is ambiguous",
			program: DayProgram{Day: time.Monday, Open: true, OpensAt: At(9, 0), ClosesAt: At(9, 0)},
			reason:  "opening and closing times are equal",
		},
		{
			name:    "closed day marked overnight",
			program: DayProgram{Day: time.Monday, Overnight: true},
			reason:  "closed day cannot be marked overnight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewWeeklySchedule("Europe/Oslo", tt.program).Validate()
			if tt.reason == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSchedule))
			assert.Contains(t, err.Error(), "invalid schedule")
		})
	}
}

func TestWeeklySchedule_ValidateRejectsMisplacedDay(t *testing.T) {
	s := NewWeeklySchedule("")
	s.Days[2].Day = time.Friday

	err := s.Validate()
	require.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestWeeklySchedule_ValidateRejectsUnknownZone(t *testing.T) {
	err := NewWeeklySchedule("Mars/Olympus_Mons").Validate()
	require.ErrorIs(t, err, ErrInvalidSchedule)
}
