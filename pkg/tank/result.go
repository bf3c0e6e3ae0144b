package tank

import (
	"fmt"
	"math"
	"time"
)

// Outcome is the answer to a feasibility query. StartTime is only meaningful when
// IsSuccess is true.
type Outcome struct {
	IsSuccess bool      `json:"isSuccess"`
	StartTime time.Time `json:"startTime,omitzero"`
}

// Success returns a feasible outcome starting at start.
func Success(start time.Time) Outcome {
	return Outcome{IsSuccess: true, StartTime: start}
}

// Failure returns an infeasible outcome.
func Failure() Outcome {
	return Outcome{}
}

// Equal reports whether two outcomes are the same. Failures are equal regardless
// of StartTime.
func (o Outcome) Equal(other Outcome) bool {
	if o.IsSuccess != other.IsSuccess {
		return false
	}
	return !o.IsSuccess || o.StartTime.Equal(other.StartTime)
}

func (o Outcome) String() string {
	if !o.IsSuccess {
		return "failure"
	}
	return "success at " + o.StartTime.Format(time.RFC3339Nano)
}

// build turns a search result into an Outcome, checking the postconditions when asked.
func build(lim limits, req Request, series *Series, q *query, start float64, ok bool) (Outcome, error) {
	if !ok {
		return Failure(), nil
	}

	out := Success(q.instant(start))
	if lim.opts.postconditions {
		if err := verify(lim, req, series, out); err != nil {
			return Failure(), err
		}
	}
	return out, nil
}

// verify re-checks a successful outcome against the public Series and Ramp types,
// independently of the engine that produced it:
//  1. start is not before the requested time or the first sample
//  2. start is not after the last sample
//  3. every state from start on, plus the level at the end of the ramp, stays within
//     the limits once the ramp is added
func verify(lim limits, req Request, series *Series, out Outcome) error {
	start := out.StartTime
	first, last := series.First().Timestamp, series.Last().Timestamp

	if start.Before(req.EarliestStart) {
		return fmt.Errorf("%w: start %s before requested %s", ErrPostcondition,
			start.Format(time.RFC3339Nano), req.EarliestStart.Format(time.RFC3339Nano))
	}
	if start.Before(first) || start.After(last) {
		return fmt.Errorf("%w: start %s outside history [%s, %s]", ErrPostcondition,
			start.Format(time.RFC3339Nano), first.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano))
	}

	ramp := Ramp{Start: start, Duration: req.Duration, Quantity: req.Quantity}
	tol := tolerance(lim, req.Quantity)
	within := func(level float64) bool {
		return level >= lim.min-tol && level <= lim.max+tol
	}

	for ts := range series.CriticalTimestampsIn(start, last.Add(time.Nanosecond)) {
		levels, err := series.LevelsAt(ts)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPostcondition, err)
		}
		for j, level := range levels {
			c := ramp.Contribution(ts)
			if ts.Equal(start) && !start.Equal(first) && j < len(levels)-1 {
				c = 0
			}
			if !within(level + c) {
				return fmt.Errorf("%w: level %g%+g at %s outside [%g, %g]", ErrPostcondition,
					level, c, ts.Format(time.RFC3339Nano), lim.min, lim.max)
			}
		}
	}

	end := ramp.End()
	settled := series.Last().Level
	if !end.After(last) {
		settled, _ = series.LevelAt(end)
	}
	if !within(settled + req.Quantity) {
		return fmt.Errorf("%w: level %g%+g at ramp end %s outside [%g, %g]", ErrPostcondition,
			settled, req.Quantity, end.Format(time.RFC3339Nano), lim.min, lim.max)
	}
	return nil
}

func tolerance(lim limits, quantity float64) float64 {
	scale := math.Max(1, math.Abs(quantity))
	for _, v := range []float64{lim.min, lim.max} {
		if !math.IsInf(v, 0) {
			scale = math.Max(scale, math.Abs(v))
		}
	}
	return 1e-9 * scale
}
