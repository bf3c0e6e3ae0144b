package tank

import (
	"fmt"
	"math"
	"time"
)

// Tank answers whether a put or take-away operation fits between the tank's limits.
//
// Implementations are immutable after construction and safe for concurrent use.
// CheckOperation returns an error only for invalid input; an operation that cannot
// be scheduled is a normal Outcome with IsSuccess false.
type Tank interface {
	MinLevel() float64
	MaxLevel() float64
	CheckOperation(earliestStart time.Time, duration time.Duration, quantity float64, samples []Sample) (Outcome, error)
}

// Request is one operation to schedule.
type Request struct {
	EarliestStart time.Time
	Duration      time.Duration
	Quantity      float64
}

// Option configures a tank.
type Option func(*options)

type options struct {
	postconditions bool
}

// WithPostconditions re-checks every successful outcome against the history and
// returns ErrPostcondition if it does not hold. Meant for tests and debug builds.
func WithPostconditions() Option {
	return func(o *options) { o.postconditions = true }
}

// Unbounded returns the limits of a tank with no minimum or maximum.
func Unbounded() (minLevel, maxLevel float64) {
	return math.Inf(-1), math.Inf(1)
}

// limits holds the fixed bounds shared by every engine and runs the common part of
// a query: validation, trivial answers, and building the outcome.
type limits struct {
	min, max float64
	opts     options
}

func newLimits(minLevel, maxLevel float64, opts []Option) (limits, error) {
	if math.IsNaN(minLevel) || math.IsNaN(maxLevel) || minLevel > maxLevel {
		return limits{}, fmt.Errorf("%w: min %g, max %g", ErrInvalidLimits, minLevel, maxLevel)
	}

	l := limits{min: minLevel, max: maxLevel}
	for _, opt := range opts {
		opt(&l.opts)
	}
	return l, nil
}

// MinLevel returns the lowest level the tank may reach.
func (l limits) MinLevel() float64 { return l.min }

// MaxLevel returns the highest level the tank may reach.
func (l limits) MaxLevel() float64 { return l.max }

func (l limits) check(engine searcher, req Request, samples []Sample) (Outcome, error) {
	series, err := l.validate(req, samples)
	if err != nil {
		return Failure(), err
	}
	if series.Empty() {
		return Failure(), nil
	}

	q := newQuery(series, l.min, l.max, req)
	if q.earliest > q.last() {
		return Failure(), nil
	}
	if q.trivial() {
		return build(l, req, series, q, q.earliest, true)
	}

	start, ok := engine.search(q)
	return build(l, req, series, q, start, ok)
}

// SweepTank schedules operations with the linear-time closed-form search.
// It is the default engine.
type SweepTank struct {
	limits
}

// NewSweepTank creates a SweepTank. Use Unbounded for a tank without limits.
func NewSweepTank(minLevel, maxLevel float64, opts ...Option) (*SweepTank, error) {
	l, err := newLimits(minLevel, maxLevel, opts)
	if err != nil {
		return nil, err
	}
	return &SweepTank{limits: l}, nil
}

// CheckOperation returns the earliest start at or after earliestStart at which the
// operation keeps the tank within its limits for the rest of the history.
func (t *SweepTank) CheckOperation(earliestStart time.Time, duration time.Duration, quantity float64, samples []Sample) (Outcome, error) {
	return t.check(sweep{}, Request{EarliestStart: earliestStart, Duration: duration, Quantity: quantity}, samples)
}

// BisectTank schedules operations by testing candidates one by one and bisecting
// towards the next admissible start. Slower than SweepTank; useful as a reference.
type BisectTank struct {
	limits
}

// NewBisectTank creates a BisectTank.
func NewBisectTank(minLevel, maxLevel float64, opts ...Option) (*BisectTank, error) {
	l, err := newLimits(minLevel, maxLevel, opts)
	if err != nil {
		return nil, err
	}
	return &BisectTank{limits: l}, nil
}

// CheckOperation implements Tank.
func (t *BisectTank) CheckOperation(earliestStart time.Time, duration time.Duration, quantity float64, samples []Sample) (Outcome, error) {
	return t.check(bisect{}, Request{EarliestStart: earliestStart, Duration: duration, Quantity: quantity}, samples)
}

var (
	_ Tank = (*SweepTank)(nil)
	_ Tank = (*BisectTank)(nil)
)
