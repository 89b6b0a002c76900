package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "venuestatus"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	transitions      *prom.CounterVec
	tickDuration     *prom.HistogramVec
	tickFailures     *prom.CounterVec
	notifications    *prom.CounterVec
	persistResults   *prom.CounterVec
	persistRetries   prom.Counter
	persistExhausted prom.Counter
	pendingTimers    prom.Gauge
	venues           prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Status transitions by new status and cause",
		}, []string{"status", "by_schedule"}),
		tickDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of reconciliation ticks",
			Buckets:   prom.DefBuckets,
		}, []string{"tick"}),
		tickFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tick_venue_failures_total",
			Help:      "Per-venue failures during reconciliation ticks",
		}, []string{"tick"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification candidates by outcome",
		}, []string{"outcome"}),
		persistResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_results_total",
			Help:      "Venue save attempts by result",
		}, []string{"result"}),
		persistRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_retries_total",
			Help:      "Venue saves scheduled for retry",
		}),
		persistExhausted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_retry_exhausted_total",
			Help:      "Venue saves abandoned after exhausting retries",
		}),
		pendingTimers: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_auto_transitions",
			Help:      "Armed auto-transitions awaiting their fire time",
		}),
		venues: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "venues",
			Help:      "Venues present in the registry",
		}),
	}
	reg.MustRegister(pr.transitions, pr.tickDuration, pr.tickFailures, pr.notifications,
		pr.persistResults, pr.persistRetries, pr.persistExhausted, pr.pendingTimers, pr.venues)
	return pr
}

func (p *PrometheusRecorder) IncTransition(newStatus string, bySchedule bool) {
	p.transitions.WithLabelValues(newStatus, strconv.FormatBool(bySchedule)).Inc()
}

func (p *PrometheusRecorder) ObserveTick(kind string, d time.Duration, failures int) {
	p.tickDuration.WithLabelValues(kind).Observe(d.Seconds())
	if failures > 0 {
		p.tickFailures.WithLabelValues(kind).Add(float64(failures))
	}
}

func (p *PrometheusRecorder) IncNotification(outcome NotificationOutcome) {
	p.notifications.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPersistResult(success bool) {
	res := "failed"
	if success {
		res = "success"
	}
	p.persistResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncPersistRetry()     { p.persistRetries.Inc() }
func (p *PrometheusRecorder) IncPersistExhausted() { p.persistExhausted.Inc() }

func (p *PrometheusRecorder) SetPendingAutoTransitions(n int) { p.pendingTimers.Set(float64(n)) }
func (p *PrometheusRecorder) SetVenues(n int)                 { p.venues.Set(float64(n)) }
