package metrics

import "time"

// NotificationOutcome enumerates what happened to a notification candidate.
type NotificationOutcome string

const (
	NotificationDropped      NotificationOutcome = "dropped"      // status not notify-worthy
	NotificationDeduplicated NotificationOutcome = "deduplicated" // suppressed inside the dedup window
	NotificationForwarded    NotificationOutcome = "forwarded"    // handed to the outbox
	NotificationDelivered    NotificationOutcome = "delivered"
	NotificationFailed       NotificationOutcome = "failed"
	NotificationOverflow     NotificationOutcome = "overflow" // outbox full
)

// Recorder defines observability hooks for the engine. All methods must be
// cheap and non-blocking; they are called while venue locks are held.
type Recorder interface {
	IncTransition(newStatus string, bySchedule bool)
	ObserveTick(kind string, d time.Duration, failures int)
	IncNotification(outcome NotificationOutcome)
	IncPersistResult(success bool)
	IncPersistRetry()
	IncPersistExhausted()
	SetPendingAutoTransitions(n int)
	SetVenues(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTransition(string, bool)             {}
func (NoopRecorder) ObserveTick(string, time.Duration, int) {}
func (NoopRecorder) IncNotification(NotificationOutcome)    {}
func (NoopRecorder) IncPersistResult(bool)                  {}
func (NoopRecorder) IncPersistRetry()                       {}
func (NoopRecorder) IncPersistExhausted()                   {}
func (NoopRecorder) SetPendingAutoTransitions(int)          {}
func (NoopRecorder) SetVenues(int)                          {}
