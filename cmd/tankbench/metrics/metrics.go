// Package metrics instruments tankbench runs for scraping while a long benchmark is
// in progress.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HatiCode/tanklevels/pkg/bench"
)

type Metrics struct {
	IterationDuration *prometheus.HistogramVec
	IterationsTotal   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IterationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tanklevels_bench_iteration_duration_seconds",
			Help:    "Duration of one pass over a case's operations",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 12),
		}, []string{"engine", "shape", "size"}),

		IterationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tanklevels_bench_iterations_total",
			Help: "Total number of completed iterations by engine",
		}, []string{"engine"}),
	}
}

// Observe records one iteration; it matches the bench.Runner observer signature.
func (m *Metrics) Observe(c bench.Case, d time.Duration) {
	m.IterationDuration.WithLabelValues(c.Engine, string(c.Shape), strconv.Itoa(c.Size)).Observe(d.Seconds())
	m.IterationsTotal.WithLabelValues(c.Engine).Inc()
}
