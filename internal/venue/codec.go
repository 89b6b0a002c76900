package venue

import (
	"encoding/json"
	"fmt"
	"time"
)

type modeRecord struct {
	Kind    ModeKind        `json:"kind"`
	Status  Status          `json:"status"`
	Pending *AutoTransition `json:"pending,omitempty"`
}

type venueRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	OwnerID     string         `json:"owner_id"`
	Mode        modeRecord     `json:"mode"`
	Schedule    WeeklySchedule `json:"schedule"`
	LastUpdated time.Time      `json:"last_updated"`
}

// encodeMode flattens a Mode into its tagged record form.
func encodeMode(m Mode) modeRecord {
	switch mode := m.(type) {
	case Manual:
		return modeRecord{Kind: ModeManual, Status: mode.Status, Pending: mode.Pending}
	case ScheduleFollowing:
		return modeRecord{Kind: ModeSchedule, Status: mode.Status}
	default:
		return modeRecord{Kind: ModeManual, Status: StatusClosed}
	}
}

func decodeMode(r modeRecord) (Mode, error) {
	if !r.Status.Valid() {
		return nil, fmt.Errorf("mode status %q is not valid", r.Status)
	}
	switch r.Kind {
	case ModeManual:
		return Manual{Status: r.Status, Pending: r.Pending}, nil
	case ModeSchedule:
		if r.Pending != nil {
			return nil, fmt.Errorf("schedule-following mode cannot carry a pending auto-transition")
		}
		return ScheduleFollowing{Status: r.Status}, nil
	default:
		return nil, fmt.Errorf("unknown mode kind %q", r.Kind)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Venue) MarshalJSON() ([]byte, error) {
	return json.Marshal(venueRecord{
		ID:          v.ID,
		Name:        v.Name,
		OwnerID:     v.OwnerID,
		Mode:        encodeMode(v.Mode),
		Schedule:    v.Schedule,
		LastUpdated: v.LastUpdated,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Venue) UnmarshalJSON(b []byte) error {
	var rec venueRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	mode, err := decodeMode(rec.Mode)
	if err != nil {
		return fmt.Errorf("venue %s: %w", rec.ID, err)
	}
	*v = Venue{
		ID:          rec.ID,
		Name:        rec.Name,
		OwnerID:     rec.OwnerID,
		Mode:        mode,
		Schedule:    rec.Schedule,
		LastUpdated: rec.LastUpdated,
	}
	return nil
}
