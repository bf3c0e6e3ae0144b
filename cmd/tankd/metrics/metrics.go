// Package metrics provides Prometheus instrumentation for tankd.
//
// Metrics exposed:
//   - tanklevels_checks_total: Counter of answered checks by engine and result
//   - tanklevels_check_duration_seconds: Histogram of engine latency by engine
//   - tanklevels_check_samples: Histogram of history sizes per check
//   - tanklevels_errors_total: Counter of rejected checks by reason
//   - tanklevels_cache_requests_total: Counter of outcome cache lookups by result
//   - tanklevels_history_collect_seconds: Histogram of Prometheus history reads
//   - tanklevels_grpc_requests_total: Counter of gRPC requests by method and code
//   - tanklevels_grpc_request_duration_seconds: Histogram of gRPC latency by method
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChecksTotal            *prometheus.CounterVec
	CheckDuration          *prometheus.HistogramVec
	CheckSamples           prometheus.Histogram
	ErrorsTotal            *prometheus.CounterVec
	CacheRequestsTotal     *prometheus.CounterVec
	HistoryCollectDuration prometheus.Histogram
	GRPCRequestsTotal      *prometheus.CounterVec
	GRPCRequestDuration    *prometheus.HistogramVec
}

// New registers the metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tanklevels_checks_total",
			Help: "Total number of answered checks by engine and result",
		}, []string{"engine", "result"}),

		CheckDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tanklevels_check_duration_seconds",
			Help:    "Time spent in the engine per check",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"engine"}),

		CheckSamples: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tanklevels_check_samples",
			Help:    "Number of history samples per check",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tanklevels_errors_total",
			Help: "Total number of rejected or failed checks by reason",
		}, []string{"reason"}),

		CacheRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tanklevels_cache_requests_total",
			Help: "Outcome cache lookups by result",
		}, []string{"result"}),

		HistoryCollectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tanklevels_history_collect_seconds",
			Help:    "Time spent reading history from Prometheus",
			Buckets: prometheus.DefBuckets,
		}),

		GRPCRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tanklevels_grpc_requests_total",
			Help: "Total number of gRPC requests by method and status code",
		}, []string{"method", "code"}),

		GRPCRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tanklevels_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) RecordCheck(engine string, success bool, seconds float64, samples int) {
	result := "failure"
	if success {
		result = "success"
	}
	m.ChecksTotal.WithLabelValues(engine, result).Inc()
	m.CheckDuration.WithLabelValues(engine).Observe(seconds)
	m.CheckSamples.Observe(float64(samples))
}

func (m *Metrics) RecordError(reason string) {
	m.ErrorsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordCache(hit bool) {
	if hit {
		m.CacheRequestsTotal.WithLabelValues("hit").Inc()
		return
	}
	m.CacheRequestsTotal.WithLabelValues("miss").Inc()
}

func (m *Metrics) ObserveHistoryCollect(seconds float64) {
	m.HistoryCollectDuration.Observe(seconds)
}

func (m *Metrics) RecordGRPCRequest(method, code string, seconds float64) {
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(seconds)
}
