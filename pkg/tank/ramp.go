package tank

import "time"

// Ramp is the level change caused by a put (positive Quantity) or take-away
// (negative Quantity) operation: nothing before Start, a linear ramp over Duration,
// then Quantity for the rest of the known history.
type Ramp struct {
	Start    time.Time
	Duration time.Duration
	Quantity float64
}

// End returns the instant the ramp reaches its full quantity.
func (r Ramp) End() time.Time {
	return r.Start.Add(r.Duration)
}

// Contribution returns the ramp's share of the level at t.
// A zero-duration ramp steps from 0 to Quantity at Start.
func (r Ramp) Contribution(t time.Time) float64 {
	if t.Before(r.Start) {
		return 0
	}
	if r.Duration == 0 || !t.Before(r.End()) {
		return r.Quantity
	}
	return r.Quantity * float64(t.Sub(r.Start)) / float64(r.Duration)
}

// fraction is the ramp progress at elapsed nanoseconds since start, in [0, 1].
func fraction(elapsed, duration float64) float64 {
	switch {
	case elapsed < 0:
		return 0
	case duration == 0 || elapsed >= duration:
		return 1
	default:
		return elapsed / duration
	}
}
