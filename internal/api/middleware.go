package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"git.home.luguber.info/inful/venuestatus/internal/logfields"
)

// OwnerHeader carries the authenticated owner identity. Verifying it is the
// job of the gateway in front of this service.
const OwnerHeader = "X-Owner-ID"

type ownerKey struct{}

// OwnerMiddleware requires an owner identity and stores it in the request context.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if ownerID == "" {
			slog.Warn("Missing owner ID in request", slog.String("path", r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(Response{Success: false, Error: "missing owner ID"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, ownerID)))
	})
}

// OwnerFromContext returns the owner set by OwnerMiddleware, or "".
func OwnerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}

// RateLimit limits requests per client IP within window.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(Response{Success: false, Error: "rate limit exceeded"})
		}),
	)
}

// RequestLogger logs each request through slog once it completes.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				logfields.Duration(time.Since(start)))
		})
	}
}
