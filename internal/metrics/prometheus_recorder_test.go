package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncTransition("open", false)
	pr.IncTransition("open", false)
	pr.IncTransition("closing_soon", true)
	pr.ObserveTick("fast", 3*time.Millisecond, 2)
	pr.IncNotification(NotificationForwarded)
	pr.IncPersistResult(false)
	pr.IncPersistRetry()
	pr.SetPendingAutoTransitions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.transitions.WithLabelValues("open", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pr.tickFailures.WithLabelValues("fast")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pr.pendingTimers))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).SetVenues(3)

	w := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "venuestatus_venues 3")
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncTransition("open", true)
	r.ObserveTick("slow", time.Second, 0)
}
