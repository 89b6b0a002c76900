package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyVenueID    = "venue_id"
	KeyOwnerID    = "owner_id"
	KeyStatus     = "status"
	KeyOldStatus  = "old_status"
	KeyMode       = "mode"
	KeyFireAt     = "fire_at"
	KeyTickKind   = "tick"
	KeyDeviceID   = "device_id"
	KeyJobID      = "job_id"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func VenueID(id string) slog.Attr      { return slog.String(KeyVenueID, id) }
func OwnerID(id string) slog.Attr      { return slog.String(KeyOwnerID, id) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func OldStatus(s string) slog.Attr     { return slog.String(KeyOldStatus, s) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func FireAt(t time.Time) slog.Attr     { return slog.Time(KeyFireAt, t) }
func TickKind(k string) slog.Attr      { return slog.String(KeyTickKind, k) }
func DeviceID(id string) slog.Attr     { return slog.String(KeyDeviceID, id) }
func JobID(id string) slog.Attr        { return slog.String(KeyJobID, id) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
