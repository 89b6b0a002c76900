// Package api exposes the owner HTTP API for venue status.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/venuestatus/internal/foundation/errors"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// Engine is the subset of engine.Engine the API drives.
type Engine interface {
	Get(id string) (venue.Venue, error)
	SetManualStatus(ctx context.Context, ownerID, venueID string, status venue.Status) (venue.Venue, error)
	FollowSchedule(ctx context.Context, ownerID, venueID string) (venue.Venue, error)
	CancelAutoTransition(ctx context.Context, ownerID, venueID string) (venue.Venue, error)
	UpdateSchedule(ctx context.Context, ownerID, venueID string, s venue.WeeklySchedule) (venue.Venue, error)
}

// Server represents the API server.
type Server struct {
	Addr    string
	router  *chi.Mux
	server  *http.Server
	engine  Engine
	hub     *EventHub
	errors  *errors.HTTPErrorAdapter
	metrics http.Handler
	health  HealthReporter
	history History
	rate    int
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithEventHub enables GET /venues/{id}/events.
func WithEventHub(h *EventHub) Option { return func(s *Server) { s.hub = h } }

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithRateLimit caps requests per client IP per minute. Zero or less disables it.
func WithRateLimit(perMinute int) Option { return func(s *Server) { s.rate = perMinute } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer creates a new API server.
func NewServer(addr string, eng Engine, opts ...Option) *Server {
	s := &Server{
		Addr:   addr,
		router: chi.NewRouter(),
		engine: eng,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errors = errors.NewHTTPErrorAdapter(s.logger)

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if s.hub != nil {
		s.server.RegisterOnShutdown(s.hub.Close)
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics)
	}

	s.router.Route("/venues/{id}", func(r chi.Router) {
		if s.rate > 0 {
			r.Use(RateLimit(s.rate, time.Minute))
		}
		if s.hub != nil {
			r.Get("/events", s.handleVenueEvents)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/", s.handleGetVenue)
			if s.history != nil {
				r.Get("/history", s.handleVenueHistory)
			}

			r.Group(func(r chi.Router) {
				r.Use(OwnerMiddleware)
				r.Post("/status", s.handleSetStatus)
				r.Post("/follow-schedule", s.handleFollowSchedule)
				r.Delete("/auto-transition", s.handleCancelAutoTransition)
				r.Put("/schedule", s.handleUpdateSchedule)
			})
		})
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// Error writes a classified error response.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	s.errors.WriteErrorResponse(w, r, err)
}
