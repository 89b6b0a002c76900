package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/venuestatus/internal/foundation/errors"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// ErrBadRequest is returned for malformed request bodies.
var ErrBadRequest = errors.ValidationError("malformed request body").Build()

// VenueView is the JSON shape of a venue.
type VenueView struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Status         venue.Status         `json:"status"`
	Mode           venue.ModeKind       `json:"mode"`
	AutoTransition *AutoTransitionView  `json:"auto_transition,omitempty"`
	Schedule       venue.WeeklySchedule `json:"schedule"`
	LastUpdated    time.Time            `json:"last_updated"`
}

// AutoTransitionView describes a pending auto-transition.
type AutoTransitionView struct {
	Target venue.Status `json:"target"`
	FireAt time.Time    `json:"fire_at"`
}

func viewOf(v venue.Venue) VenueView {
	view := VenueView{
		ID:          v.ID,
		Name:        v.Name,
		Status:      v.Status(),
		Mode:        venue.ModeManual,
		Schedule:    v.Schedule,
		LastUpdated: v.LastUpdated,
	}
	if v.Mode != nil {
		view.Mode = v.Mode.Kind()
	}
	if p, ok := v.PendingAutoTransition(); ok {
		view.AutoTransition = &AutoTransitionView{Target: p.Target, FireAt: p.FireAt}
	}
	return view
}

// SetStatusRequest is the body of POST /venues/{id}/status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, viewOf(v))
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Error(w, r, ErrBadRequest.Wrap(err))
		return
	}
	status, err := venue.ParseStatus(req.Status)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	v, err := s.engine.SetManualStatus(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), status)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, viewOf(v))
}

func (s *Server) handleFollowSchedule(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.FollowSchedule(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, viewOf(v))
}

func (s *Server) handleCancelAutoTransition(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.CancelAutoTransition(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, viewOf(v))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var sched venue.WeeklySchedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		s.Error(w, r, ErrBadRequest.Wrap(err))
		return
	}
	v, err := s.engine.UpdateSchedule(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), sched)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, viewOf(v))
}
