// Package router serves the tankbench auxiliary HTTP endpoints while a run is in
// progress.
//
// Routes configured:
//   - GET /healthz - Health check endpoint (returns 200 OK)
//   - GET /metrics - Prometheus metrics from the given gatherer
package router

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/tanklevels/pkg/httpx"
)

// SetupRoutes configures HTTP routes for tankbench.
func SetupRoutes(gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return httpx.Chain(mux, httpx.RecoveryMiddleware(logger))
}
