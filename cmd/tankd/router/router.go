// Package router configures the tankd HTTP API.
//
// Routes configured:
//   - POST /v1/check - Check an operation against the history in the body
//   - POST /v1/check/prometheus - Check an operation against history read from Prometheus
//   - GET /v1/engines - List engines and the default
//   - GET /healthz - Health check (503 when the outcome cache is unreachable)
//   - GET /metrics - Prometheus metrics
//
// Invalid input is answered with 400, history source failures with 502 and
// anything else with 500, all as JSON {"error": "..."}.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/tanklevels/pkg/api"
	"github.com/HatiCode/tanklevels/pkg/httpx"
	"github.com/HatiCode/tanklevels/pkg/tank"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// Service is what the routes call into.
type Service interface {
	Check(ctx context.Context, req api.CheckRequest) (api.CheckResponse, error)
	CheckPrometheus(ctx context.Context, req api.PrometheusCheckRequest) (api.CheckResponse, error)
	Engines() api.EnginesResponse
}

// SetupRoutes returns the tankd handler wrapped in request id, logging and panic
// recovery middleware. health may be nil.
func SetupRoutes(svc Service, health func() error, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandlerWithCheck(health))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/check", handleCheck(svc, logger))
	mux.HandleFunc("POST /v1/check/prometheus", handleCheckPrometheus(svc, logger))
	mux.HandleFunc("GET /v1/engines", func(w http.ResponseWriter, r *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, svc.Engines())
	})

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware(),
		httpx.LoggingMiddleware(logger),
		httpx.RecoveryMiddleware(logger),
	)
}

func handleCheck(svc Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CheckRequest
		if !decode(w, r, &req) {
			return
		}
		resp, err := svc.Check(r.Context(), req)
		if err != nil {
			writeError(w, r, err, logger)
			return
		}
		_ = httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

func handleCheckPrometheus(svc Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.PrometheusCheckRequest
		if !decode(w, r, &req) {
			return
		}
		resp, err := svc.CheckPrometheus(r.Context(), req)
		if err != nil {
			writeError(w, r, err, logger)
			return
		}
		_ = httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case tank.IsPrecondition(err),
		errors.Is(err, tank.ErrUnknownEngine),
		errors.Is(err, api.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", httpx.RequestID(r.Context()),
			"error", err,
		)
		httpx.WriteErrorMessage(w, status, "internal server error")
		return
	}
	httpx.WriteError(w, status, err)
}
