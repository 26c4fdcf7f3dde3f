package observability

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	assistantCalls   *prometheus.CounterVec
	assistantLatency *prometheus.HistogramVec

	runOutcomes *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	pollCount   prometheus.Histogram

	extractions *prometheus.CounterVec
	credits     *prometheus.CounterVec
	lockWaits   *prometheus.HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Prometheus metrics enabled")
		}
	})
	return instance
}

// New builds a Metrics on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ht_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ht_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "ht_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		assistantCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ht_assistant_calls_total",
			Help: "Hosted assistant API calls by operation/status.",
		}, []string{"op", "status"}),
		assistantLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ht_assistant_call_duration_seconds",
			Help:    "Hosted assistant API call latency by operation.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"op"}),
		runOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ht_runs_total",
			Help: "Assistant runs by tier/outcome.",
		}, []string{"tier", "outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ht_run_duration_seconds",
			Help:    "Time from run start to terminal status.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"tier", "outcome"}),
		pollCount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ht_run_polls",
			Help:    "Status polls needed per run.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ht_memory_extractions_total",
			Help: "Memory extractions by mode/outcome.",
		}, []string{"mode", "outcome"}),
		credits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ht_credit_events_total",
			Help: "Credit events (consumed, exhausted, refunded).",
		}, []string{"event"}),
		lockWaits: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ht_conversation_lock_wait_seconds",
			Help:    "Time spent acquiring the per-user conversation lock.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"result"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAssistantCall(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "0"
	}
	m.assistantCalls.WithLabelValues(op, status).Inc()
	if dur > 0 {
		m.assistantLatency.WithLabelValues(op).Observe(dur.Seconds())
	}
}

func (m *Metrics) ObserveRun(tier, outcome string, dur time.Duration, polls int) {
	if m == nil {
		return
	}
	m.runOutcomes.WithLabelValues(tier, outcome).Inc()
	m.runDuration.WithLabelValues(tier, outcome).Observe(dur.Seconds())
	if polls > 0 {
		m.pollCount.Observe(float64(polls))
	}
}

func (m *Metrics) IncExtraction(mode, outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncCreditEvent(event string) {
	if m == nil {
		return
	}
	m.credits.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveLockWait(result string, dur time.Duration) {
	if m == nil {
		return
	}
	m.lockWaits.WithLabelValues(result).Observe(dur.Seconds())
}
