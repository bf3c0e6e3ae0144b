// Package bench measures CheckOperation throughput over synthetic tank histories.
//
// A Case fixes an engine, a history shape and size, and the tank limits. Run
// generates the history and a seeded operation mix per case, then replays the mix
// a number of times against a Target: either the in-process engines (Local) or a
// running tankd (Remote).
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/HatiCode/tanklevels/pkg/tank"
	"github.com/HatiCode/tanklevels/pkg/workload"
)

// DefaultSizes are the history sizes benchmarked when none are configured.
var DefaultSizes = []int{100, 250, 500, 1000, 2000, 10000, 50000}

// DefaultOperations is the number of operations replayed per iteration.
const DefaultOperations = 100

// Case is one benchmark configuration.
type Case struct {
	Engine     string
	Shape      workload.Shape
	Size       int
	MinLevel   float64
	MaxLevel   float64
	Operations int
	Seed       uint64
}

// Name identifies the case in reports and metrics.
func (c Case) Name() string {
	limits := "bounded"
	if math.IsInf(c.MinLevel, -1) && math.IsInf(c.MaxLevel, 1) {
		limits = "unbounded"
	}
	return fmt.Sprintf("%s/%s/%d/%s", c.Engine, c.Shape, c.Size, limits)
}

// DefaultCases crosses engines and sizes with the random shape, once with limits
// [-100, 100] and once unbounded, plus one empty-history case per engine.
func DefaultCases(engines []string, sizes []int) []Case {
	var cases []Case
	for _, engine := range engines {
		for _, size := range sizes {
			cases = append(cases,
				Case{Engine: engine, Shape: workload.Random, Size: size, MinLevel: -100, MaxLevel: 100},
				Case{Engine: engine, Shape: workload.Random, Size: size, MinLevel: math.Inf(-1), MaxLevel: math.Inf(1)},
			)
		}
		cases = append(cases, Case{Engine: engine, Shape: workload.Empty, MinLevel: math.Inf(-1), MaxLevel: math.Inf(1)})
	}
	return cases
}

// Check answers one operation against a prepared history.
type Check func(ctx context.Context, req tank.Request) (tank.Outcome, error)

// Target prepares a Check for a case and its history.
type Target interface {
	Prepare(ctx context.Context, c Case, samples []tank.Sample) (Check, error)
}

// Result summarizes the iterations of one case.
type Result struct {
	Case       Case
	Iterations int
	Min        time.Duration
	Mean       time.Duration
	Max        time.Duration
	Checks     int
	Successes  int
}

// PerOperation is the mean latency of a single check.
func (r Result) PerOperation() time.Duration {
	if r.Checks == 0 {
		return 0
	}
	return r.Mean / time.Duration(r.Checks)
}

// SuccessRatio is the share of operations that found a start time.
func (r Result) SuccessRatio() float64 {
	if r.Checks == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Checks)
}

// Runner replays cases against a target.
type Runner struct {
	target  Target
	logger  *slog.Logger
	observe func(c Case, d time.Duration)
}

// NewRunner creates a runner. observe, when non-nil, receives every iteration's
// duration. A nil logger uses slog.Default().
func NewRunner(target Target, observe func(Case, time.Duration), logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{target: target, logger: logger, observe: observe}
}

// Run executes every case iterations times. It stops between iterations when ctx
// is done and returns the results gathered so far with ctx.Err().
func (r *Runner) Run(ctx context.Context, cases []Case, iterations int) ([]Result, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive, got %d", iterations)
	}

	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		res, err := r.runCase(ctx, c, iterations)
		if res.Iterations > 0 {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
		r.logger.Debug("case finished",
			"case", c.Name(),
			"mean", res.Mean,
			"per_op", res.PerOperation(),
			"success_ratio", res.SuccessRatio(),
		)
	}
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, c Case, iterations int) (Result, error) {
	res := Result{Case: c}

	ops := c.Operations
	if ops <= 0 {
		ops = DefaultOperations
	}

	gen := workload.NewGenerator(c.Seed)
	samples, err := gen.Samples(c.Shape, c.Size, c.MinLevel, c.MaxLevel)
	if err != nil {
		return res, fmt.Errorf("case %s: %w", c.Name(), err)
	}
	requests := gen.Operations(ops, c.MinLevel, c.MaxLevel)

	check, err := r.target.Prepare(ctx, c, samples)
	if err != nil {
		return res, fmt.Errorf("case %s: %w", c.Name(), err)
	}

	var total time.Duration
	for i := range iterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		successes := 0
		start := time.Now()
		for _, req := range requests {
			out, err := check(ctx, req)
			if err != nil {
				return res, fmt.Errorf("case %s: %w", c.Name(), err)
			}
			if out.IsSuccess {
				successes++
			}
		}
		elapsed := time.Since(start)

		if r.observe != nil {
			r.observe(c, elapsed)
		}
		if i == 0 || elapsed < res.Min {
			res.Min = elapsed
		}
		res.Max = max(res.Max, elapsed)
		total += elapsed
		res.Iterations++
		res.Checks = len(requests)
		res.Successes = successes
	}
	res.Mean = total / time.Duration(res.Iterations)
	return res, nil
}
