package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is the result of one component check.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime,omitempty"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthReporter produces the detailed health report.
type HealthReporter interface {
	Health(ctx context.Context) HealthResponse
}

// WithHealthReporter makes /health report component checks.
func WithHealthReporter(h HealthReporter) Option { return func(s *Server) { s.health = h } }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: HealthHealthy, Timestamp: time.Now().UTC()}
	if s.health != nil {
		resp = s.health.Health(r.Context())
	}

	code := http.StatusOK
	if resp.Status == HealthUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
