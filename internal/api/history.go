package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// History serves past transitions of a venue, newest first.
type History interface {
	ByVenue(ctx context.Context, venueID string, limit int) ([]venue.TransitionEvent, error)
}

// WithHistory enables GET /venues/{id}/history.
func WithHistory(h History) Option { return func(s *Server) { s.history = h } }

func (s *Server) handleVenueHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.engine.Get(id); err != nil {
		s.Error(w, r, err)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			s.Error(w, r, ErrBadRequest.WithContext("limit", raw))
			return
		}
		limit = n
	}

	events, err := s.history.ByVenue(r.Context(), id, limit)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if events == nil {
		events = []venue.TransitionEvent{}
	}
	s.Success(w, http.StatusOK, events)
}
