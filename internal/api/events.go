package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// StreamEvent is one server-sent event on a venue stream.
type StreamEvent struct {
	Type       string                 `json:"type"` // connected, transition
	VenueID    string                 `json:"venue_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Transition *venue.TransitionEvent `json:"transition,omitempty"`
}

// EventHub fans transition events out to SSE subscribers. It implements
// engine.Observer.
type EventHub struct {
	subscribers map[string][]chan StreamEvent
	mu          sync.RWMutex
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subscribers: make(map[string][]chan StreamEvent)}
}

// Subscribe returns a channel receiving the venue's events and a function to unsubscribe.
func (h *EventHub) Subscribe(venueID string) (<-chan StreamEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan StreamEvent, 16)
	h.subscribers[venueID] = append(h.subscribers[venueID], ch)

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[venueID]
		for i, sub := range subs {
			if sub == ch {
				h.subscribers[venueID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(h.subscribers[venueID]) == 0 {
			delete(h.subscribers, venueID)
		}
	}
	return ch, unsubscribe
}

// Observe publishes ev to the venue's subscribers without blocking.
func (h *EventHub) Observe(ev venue.TransitionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[ev.VenueID] {
		select {
		case ch <- StreamEvent{Type: "transition", VenueID: ev.VenueID, Timestamp: ev.OccurredAt, Transition: &ev}:
		default:
			slog.Warn("Event channel full, dropping event", logfields.VenueID(ev.VenueID))
		}
	}
}

// Close ends every open stream. Registered to run when the server shuts down
// so streaming connections do not hold up a graceful shutdown.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	h.subscribers = make(map[string][]chan StreamEvent)
}

// SubscriberCount returns the number of open streams for a venue.
func (h *EventHub) SubscriberCount(venueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[venueID])
}

const keepAliveInterval = 30 * time.Second

func (s *Server) handleVenueEvents(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "id")
	if _, err := s.engine.Get(venueID); err != nil {
		s.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, unsubscribe := s.hub.Subscribe(venueID)
	defer unsubscribe()

	s.logger.Debug("Venue event stream opened", logfields.VenueID(venueID))
	s.sendSSEEvent(w, StreamEvent{Type: "connected", VenueID: venueID, Timestamp: time.Now()})

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("Venue event stream closed", logfields.VenueID(venueID))
			return
		case <-keepAlive.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flush(w)
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.sendSSEEvent(w, ev)
		}
	}
}

// sendSSEEvent sends an event in SSE format.
func (s *Server) sendSSEEvent(w http.ResponseWriter, ev StreamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("Failed to marshal SSE event", logfields.Error(err))
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
