package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/tanklevels/cmd/tankd/metrics"
	"github.com/HatiCode/tanklevels/pkg/adapters"
	"github.com/HatiCode/tanklevels/pkg/api"
	"github.com/HatiCode/tanklevels/pkg/history"
	"github.com/HatiCode/tanklevels/pkg/storage"
	"github.com/HatiCode/tanklevels/pkg/tank"
)

// Service answers checks: it resolves engine and limits, consults the outcome
// cache, runs the engine and records metrics. It is safe for concurrent use.
type Service struct {
	engine   string
	minLevel float64
	maxLevel float64
	opts     []tank.Option

	store   storage.Store // nil disables caching
	source  func(query string) adapters.Adapter
	builder *history.Builder
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service. A nil store disables the outcome cache; a nil
// source disables Prometheus-backed checks.
func NewService(
	engine string,
	minLevel, maxLevel float64,
	opts []tank.Option,
	store storage.Store,
	source func(query string) adapters.Adapter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == "" {
		engine = tank.DefaultEngine
	}

	return &Service{
		engine:   engine,
		minLevel: minLevel,
		maxLevel: maxLevel,
		opts:     opts,
		store:    store,
		source:   source,
		builder:  history.NewBuilder(),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Check answers req against the history it carries.
func (s *Service) Check(ctx context.Context, req api.CheckRequest) (api.CheckResponse, error) {
	engine := req.Engine
	if engine == "" {
		engine = s.engine
	}
	minLevel, maxLevel := req.Resolve(s.minLevel, s.maxLevel)

	tk, err := tank.New(engine, minLevel, maxLevel, s.opts...)
	if err != nil {
		s.metrics.RecordError(tank.Reason(err))
		return api.CheckResponse{}, err
	}

	op := req.Request()
	key := storage.Key(storage.Query{
		Engine:   engine,
		MinLevel: minLevel,
		MaxLevel: maxLevel,
		Request:  op,
		Samples:  req.Samples,
	})

	if !req.NoCache {
		if entry, ok := s.lookup(ctx, key); ok {
			return api.NewCheckResponse(engine, len(req.Samples), entry.Outcome, true), nil
		}
	}

	start := time.Now()
	out, err := tk.CheckOperation(op.EarliestStart, op.Duration, op.Quantity, req.Samples)
	elapsed := time.Since(start)
	if err != nil {
		reason := tank.Reason(err)
		s.metrics.RecordError(reason)
		if reason == "internal" {
			s.logger.Error("check failed", "engine", engine, "error", err)
		}
		return api.CheckResponse{}, err
	}
	s.metrics.RecordCheck(engine, out.IsSuccess, elapsed.Seconds(), len(req.Samples))

	s.logger.Debug("check answered",
		"engine", engine,
		"samples", len(req.Samples),
		"outcome", out.String(),
		"duration", elapsed,
	)

	if s.store != nil && !req.NoCache {
		entry := storage.Entry{Engine: engine, Outcome: out, ComputedAt: s.now()}
		if err := s.store.Put(ctx, key, entry); err != nil {
			s.logger.Warn("failed to cache outcome", "error", err)
		}
	}

	return api.NewCheckResponse(engine, len(req.Samples), out, false), nil
}

// CheckPrometheus reads the history for req.Window ending now from Prometheus and
// answers req against it.
func (s *Service) CheckPrometheus(ctx context.Context, req api.PrometheusCheckRequest) (api.CheckResponse, error) {
	if s.source == nil {
		return api.CheckResponse{}, fmt.Errorf("%w: no history source configured", api.ErrInvalidRequest)
	}
	if req.Query == "" {
		return api.CheckResponse{}, fmt.Errorf("%w: query is required", api.ErrInvalidRequest)
	}
	if req.Window <= 0 {
		return api.CheckResponse{}, fmt.Errorf("%w: window must be positive", api.ErrInvalidRequest)
	}

	end := s.now()
	start := end.Add(-time.Duration(req.Window))

	collectStart := time.Now()
	df, err := s.source(req.Query).Collect(ctx, start, end)
	s.metrics.ObserveHistoryCollect(time.Since(collectStart).Seconds())
	if err != nil {
		s.metrics.RecordError("upstream")
		s.logger.Error("failed to collect history", "query", req.Query, "error", err)
		return api.CheckResponse{}, fmt.Errorf("%w: %w", api.ErrUpstream, err)
	}

	samples, err := s.builder.Build(*df)
	if err != nil {
		s.metrics.RecordError("upstream")
		return api.CheckResponse{}, fmt.Errorf("%w: %w", api.ErrUpstream, err)
	}

	return s.Check(ctx, api.CheckRequest{
		Engine:    req.Engine,
		Limits:    req.Limits,
		Operation: req.Operation,
		Samples:   samples,
	})
}

// Engines lists the registered engines.
func (s *Service) Engines() api.EnginesResponse {
	return api.EnginesResponse{Engines: tank.Names(), Default: s.engine}
}

func (s *Service) lookup(ctx context.Context, key string) (storage.Entry, bool) {
	if s.store == nil {
		return storage.Entry{}, false
	}

	entry, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("outcome cache lookup failed", "error", err)
	}
	hit := err == nil && found
	s.metrics.RecordCache(hit)
	return entry, hit
}
