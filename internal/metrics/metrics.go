// Package metrics exposes the agent's prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swapsignal"

// Metrics implements the observer hooks of the gateway, decision, agent and transport layers.
type Metrics struct {
	registry *prometheus.Registry

	sessions       *prometheus.CounterVec
	sessionSeconds prometheus.Histogram
	modelCalls     *prometheus.CounterVec
	modelSeconds   *prometheus.HistogramVec
	clamps         prometheus.Counter
	fetches        *prometheus.CounterVec
	fetchSeconds   prometheus.Histogram
	swapsKept      prometheus.Counter
	swapsSkipped   prometheus.Counter
	httpRequests   *prometheus.CounterVec
}

// New builds a Metrics backed by its own registry, with Go and process collectors attached.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		registry: reg,
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_total",
			Help: "Chat messages handled, by outcome.",
		}, []string{"outcome"}),
		sessionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "session_duration_seconds",
			Help:    "Time from acknowledgement to reply.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "model_calls_total",
			Help: "Generative model calls, by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		modelSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "model_call_duration_seconds",
			Help:    "Generative model call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"purpose"}),
		clamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "expiry_clamps_total",
			Help: "Recommendations whose expiry exceeded the caller's maximum.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "swap_fetches_total",
			Help: "Market data requests, by status.",
		}, []string{"status"}),
		fetchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "swap_fetch_duration_seconds",
			Help:    "Market data request latency.",
			Buckets: prometheus.DefBuckets,
		}),
		swapsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "swaps_kept_total",
			Help: "Swap events kept after bucketing.",
		}),
		swapsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "swaps_skipped_total",
			Help: "Malformed swap records skipped during normalization.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests, by route and status code.",
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		m.sessions, m.sessionSeconds,
		m.modelCalls, m.modelSeconds, m.clamps,
		m.fetches, m.fetchSeconds, m.swapsKept, m.swapsSkipped,
		m.httpRequests,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveSession(outcome string, took time.Duration) {
	m.sessions.WithLabelValues(outcome).Inc()
	m.sessionSeconds.Observe(took.Seconds())
}

func (m *Metrics) ObserveModelCall(purpose, outcome string, took time.Duration) {
	m.modelCalls.WithLabelValues(purpose, outcome).Inc()
	if took > 0 {
		m.modelSeconds.WithLabelValues(purpose).Observe(took.Seconds())
	}
}

func (m *Metrics) ObserveClamp() { m.clamps.Inc() }

func (m *Metrics) ObserveFetch(status string, kept, skipped int, took time.Duration) {
	m.fetches.WithLabelValues(status).Inc()
	m.fetchSeconds.Observe(took.Seconds())
	m.swapsKept.Add(float64(kept))
	m.swapsSkipped.Add(float64(skipped))
}

func (m *Metrics) ObserveHTTP(method, route string, code int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
