package tank

import (
	"math"
	"time"
)

// searcher finds the earliest feasible start offset for a normalised query.
// It is only called for non-empty series, a non-zero amount, a finite bound and
// an earliest offset that does not exceed the last sample.
type searcher interface {
	search(q *query) (start float64, ok bool)
}

// query is one feasibility problem normalised so the operation always pushes toward
// the upper bound. Levels are multiplied by sign and the bound is picked to match, so
// a take-away against the lower limit is solved exactly like a put against the upper
// one. Times are nanosecond offsets from the first sample.
//
// Only the bound in the operation's direction matters: the ramp contributes a value
// between 0 and amount, and every sample is already inside the limits.
type query struct {
	series   *Series
	earliest float64
	duration float64
	amount   float64
	sign     float64
	bound    float64
}

func newQuery(series *Series, minLevel, maxLevel float64, req Request) *query {
	q := &query{
		series:   series,
		earliest: math.Max(0, float64(req.EarliestStart.Sub(series.First().Timestamp))),
		duration: float64(req.Duration),
		amount:   math.Abs(req.Quantity),
		sign:     1,
		bound:    maxLevel,
	}
	if req.Quantity < 0 {
		q.sign = -1
		q.bound = -minLevel
	}
	return q
}

// trivial reports whether the query is decided without running an engine.
func (q *query) trivial() bool {
	return q.amount == 0 || math.IsInf(q.bound, 1)
}

func (q *query) n() int { return len(q.series.samples) }
func (q *query) at(i int) float64 { return q.series.offsets[i] }
func (q *query) last() float64 { return q.series.offsets[len(q.series.offsets)-1] }
func (q *query) level(i int) float64 { return q.sign * q.series.samples[i].Level }
func (q *query) headroom(i int) float64 { return q.bound - q.level(i) }
func (q *query) threshold() float64 { return q.bound - q.amount }
func (q *query) settled(i int) bool { return i == q.n()-1 || q.at(i+1) > q.at(i) }
func (q *query) instant(off float64) time.Time {
	return q.series.First().Timestamp.Add(time.Duration(off))
}

// carried returns the share of a ramp started at s seen by state i.
//
// When the tank itself jumps at the start instant, the jump happens first: only the
// settled state meets a zero-duration step. The first sample is the exception, where
// every recorded state is taken to coexist with the step.
func (q *query) carried(i int, s float64) float64 {
	t := q.at(i)
	if t == s && s > 0 && q.duration == 0 && !q.settled(i) {
		return 0
	}
	return q.amount * fraction(t-s, q.duration)
}

// levelAfter returns the right-continuous level at off: the settled state at a
// sample instant, the interpolated level between samples, and the last level held
// beyond the history. off must not precede the first sample.
func (q *query) levelAfter(off float64) float64 {
	k := q.series.upper(off) - 1
	if k == q.n()-1 || q.at(k) == off {
		return q.level(k)
	}
	return q.sign * q.series.interpolate(k, off)
}
