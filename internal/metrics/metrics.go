// Package metrics exposes advisory cycle and HTTP metrics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vitals"

// Recorder records cycle, decision and HTTP metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	cyclesTotal     *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	pressureScore   prometheus.Gauge
	decisionsTotal  *prometheus.CounterVec
	blockedTotal    *prometheus.CounterVec
	postureInfo     *prometheus.GaugeVec
	historyRequests *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a recorder registered on a fresh registry
func New() *Recorder {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a recorder registered on reg
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		cyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Total number of decision cycles by resulting posture",
			},
			[]string{"posture"},
		),
		cycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of a decision cycle in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		pressureScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pressure_score",
				Help:      "Reallocation pressure score of the latest cycle",
			},
		),
		decisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total number of allowed decisions by type and action",
			},
			[]string{"type", "action"},
		),
		blockedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guardrail_blocks_total",
				Help:      "Total number of decisions vetoed by a safety guard",
			},
			[]string{"guard"},
		),
		postureInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "market_posture",
				Help:      "1 for the posture of the latest cycle, 0 otherwise",
			},
			[]string{"posture"},
		),
		historyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_requests_total",
				Help:      "Candle history lookups by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// Registry returns the registry the recorder writes to
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCycle records one completed cycle
func (r *Recorder) ObserveCycle(posture string, duration time.Duration, pressure float64) {
	r.cyclesTotal.WithLabelValues(posture).Inc()
	r.cycleDuration.Observe(duration.Seconds())
	r.pressureScore.Set(pressure)
	r.postureInfo.Reset()
	r.postureInfo.WithLabelValues(posture).Set(1)
}

// ObserveDecision records one allowed decision
func (r *Recorder) ObserveDecision(decisionType, action string) {
	r.decisionsTotal.WithLabelValues(decisionType, action).Inc()
}

// ObserveBlocked records one decision vetoed by guard
func (r *Recorder) ObserveBlocked(guard string) {
	r.blockedTotal.WithLabelValues(guard).Inc()
}

// ObserveHistory records a candle history lookup
func (r *Recorder) ObserveHistory(source, outcome string) {
	r.historyRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveHTTP records one served request. route should be the templated pattern.
func (r *Recorder) ObserveHTTP(route, method string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}
