package notify

import (
	"fmt"
	"strconv"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// Kind is the message template a job renders with.
type Kind string

const (
	KindOpeningSoon Kind = "opening_soon"
	KindLastCall    Kind = "last_call"
)

// Job is one notification addressed to one device.
type Job struct {
	ID         string       `json:"id"`
	Key        string       `json:"key"`
	DeviceID   string       `json:"device_id"`
	VenueID    string       `json:"venue_id"`
	VenueName  string       `json:"venue_name,omitempty"`
	Status     venue.Status `json:"status"`
	Kind       Kind         `json:"kind"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	OccurredAt time.Time    `json:"occurred_at"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Delivery is the payload handed to a Transport.
type Delivery struct {
	JobID    string `json:"job_id"`
	Key      string `json:"key"`
	DeviceID string `json:"device_id"`
	VenueID  string `json:"venue_id"`
	Kind     Kind   `json:"kind"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Delivery returns the transport payload for the job.
func (j Job) Delivery() Delivery {
	return Delivery{
		JobID:    j.ID,
		Key:      j.Key,
		DeviceID: j.DeviceID,
		VenueID:  j.VenueID,
		Kind:     j.Kind,
		Title:    j.Title,
		Body:     j.Body,
	}
}

// jobKey is stable for every job describing the same announcement, so
// downstream consumers can deduplicate on it.
func jobKey(deviceID, venueID string, status venue.Status, occurredAt time.Time, window time.Duration) string {
	bucket := occurredAt.Truncate(window).Unix()
	return deviceID + "|" + venueID + "|" + string(status) + "|" + strconv.FormatInt(bucket, 10)
}

// message renders kind, title and body for a notify-worthy status.
func message(status venue.Status, venueName string) (Kind, string, string, bool) {
	switch status {
	case venue.StatusOpeningSoon:
		return KindOpeningSoon, "Opening soon", fmt.Sprintf("%s opens soon.", venueName), true
	case venue.StatusClosingSoon:
		return KindLastCall, "Last call", fmt.Sprintf("Last call at %s.", venueName), true
	default:
		return "", "", "", false
	}
}
