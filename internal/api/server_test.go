package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/venuestatus/internal/engine"
	"git.home.luguber.info/inful/venuestatus/internal/lifecycle"
	"git.home.luguber.info/inful/venuestatus/internal/schedule"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

var t0 = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

type testEnv struct {
	server *Server
	engine *engine.Engine
	hub    *EventHub
	clock  *clockwork.FakeClock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	hub := NewEventHub()
	machine := lifecycle.NewMachine(schedule.NewEvaluator(30*time.Minute, 30*time.Minute), time.Hour)
	eng := engine.New(machine, engine.WithClock(clock), engine.WithObserver(hub))
	require.NoError(t, eng.Register(venue.Venue{
		ID:      "v1",
		Name:    "Blue Bar",
		OwnerID: "owner-1",
		Mode:    venue.Manual{Status: venue.StatusClosed},
		Schedule: venue.NewWeeklySchedule("UTC",
			venue.DayProgram{Day: time.Monday, Open: true, OpensAt: venue.At(17, 15), ClosesAt: venue.At(23, 0)},
		),
	}))
	opts = append([]Option{WithEventHub(hub)}, opts...)
	return &testEnv{server: NewServer(":0", eng, opts...), engine: eng, hub: hub, clock: clock}
}

func (e *testEnv) do(method, path, owner, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeVenue(t *testing.T, w *httptest.ResponseRecorder) VenueView {
	t.Helper()
	var resp struct {
		Success bool      `json:"success"`
		Data    VenueView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, HealthHealthy, resp.Status)
}

type staticHealth HealthResponse

func (h staticHealth) Health(context.Context) HealthResponse { return HealthResponse(h) }

func TestHealthEndpoint_Reporter(t *testing.T) {
	env := newTestEnv(t, WithHealthReporter(staticHealth{
		Status: HealthUnhealthy,
		Checks: []HealthCheck{{Name: "storage", Status: HealthUnhealthy, Message: "database is closed"}},
	}))
	w := env.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "storage", resp.Checks[0].Name)

	env = newTestEnv(t, WithHealthReporter(staticHealth{Status: HealthDegraded}))
	w = env.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetVenue(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/venues/v1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeVenue(t, w)
	assert.Equal(t, "Blue Bar", view.Name)
	assert.Equal(t, venue.StatusClosed, view.Status)
	assert.Nil(t, view.AutoTransition)

	w = env.do(http.MethodGet, "/venues/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetStatusArmsAutoTransition(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/venues/v1/status", "owner-1", `{"status":"opening-soon"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeVenue(t, w)
	assert.Equal(t, venue.StatusOpeningSoon, view.Status)
	require.NotNil(t, view.AutoTransition)
	assert.Equal(t, venue.StatusOpen, view.AutoTransition.Target)
	assert.True(t, view.AutoTransition.FireAt.Equal(t0.Add(time.Hour)))

	w = env.do(http.MethodDelete, "/venues/v1/auto-transition", "owner-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeVenue(t, w).AutoTransition)
}

func TestOwnerRoutesErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		owner  string
		body   string
		code   int
	}{
		{"missing owner", http.MethodPost, "/venues/v1/follow-schedule", "", "", http.StatusUnauthorized},
		{"wrong owner", http.MethodPost, "/venues/v1/follow-schedule", "owner-2", "", http.StatusForbidden},
		{"unknown venue", http.MethodPost, "/venues/v9/follow-schedule", "owner-1", "", http.StatusNotFound},
		{"bad json", http.MethodPost, "/venues/v1/status", "owner-1", `{`, http.StatusBadRequest},
		{"bad status", http.MethodPost, "/venues/v1/status", "owner-1", `{"status":"busy"}`, http.StatusBadRequest},
		{"bad schedule", http.MethodPut, "/venues/v1/schedule", "owner-1", `{"time_zone":"Mars/Olympus"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.owner, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	v, err := env.engine.Get("v1")
	require.NoError(t, err)
	assert.Equal(t, venue.ModeManual, v.Mode.Kind())
}

func TestFollowScheduleAndUpdateSchedule(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/venues/v1/follow-schedule", "owner-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeVenue(t, w)
	assert.Equal(t, venue.ModeSchedule, view.Mode)
	assert.Equal(t, venue.StatusOpeningSoon, view.Status)

	sched := venue.NewWeeklySchedule("UTC",
		venue.DayProgram{Day: time.Monday, Open: true, OpensAt: venue.At(12, 0), ClosesAt: venue.At(17, 20)},
	)
	body, err := json.Marshal(sched)
	require.NoError(t, err)

	w = env.do(http.MethodPut, "/venues/v1/schedule", "owner-1", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, venue.StatusClosingSoon, decodeVenue(t, w).Status)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, WithRateLimit(2))

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/venues/v1", "", "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/venues/v1", "", "").Code)
	w := env.do(http.MethodGet, "/venues/v1", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestMetricsHandlerMounted(t *testing.T) {
	env := newTestEnv(t, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("venuestatus_venues 1\n"))
	})))
	w := env.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "venuestatus_venues")
}

func TestVenueEventStream(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/venues/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if data, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
				lines <- data
			}
		}
		close(lines)
	}()

	next := func() StreamEvent {
		select {
		case line := <-lines:
			var ev StreamEvent
			require.NoError(t, json.Unmarshal([]byte(line), &ev))
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return StreamEvent{}
		}
	}

	assert.Equal(t, "connected", next().Type)
	require.Eventually(t, func() bool { return env.hub.SubscriberCount("v1") == 1 }, time.Second, 5*time.Millisecond)

	_, err = env.engine.SetManualStatus(context.Background(), "owner-1", "v1", venue.StatusClosingSoon)
	require.NoError(t, err)

	ev := next()
	assert.Equal(t, "transition", ev.Type)
	require.NotNil(t, ev.Transition)
	assert.Equal(t, venue.StatusClosingSoon, ev.Transition.NewStatus)
	assert.Equal(t, uint64(1), ev.Transition.Seq)
}

func TestEventHubClose(t *testing.T) {
	hub := NewEventHub()
	events, unsubscribe := hub.Subscribe("v1")
	require.Equal(t, 1, hub.SubscriberCount("v1"))

	hub.Close()
	_, open := <-events
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount("v1"))
	assert.NotPanics(t, unsubscribe)

	hub.Observe(venue.TransitionEvent{VenueID: "v1", NewStatus: venue.StatusOpen})
}
