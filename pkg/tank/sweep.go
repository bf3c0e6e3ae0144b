package tank

import "math"

// sweep solves the search in closed form with two linear passes.
//
// Algorithm:
//  1. Every state i with headroom H_i below the amount must still be inside the ramp
//     when it occurs, far enough from the ramp's end: s >= T_i - d*H_i/|q|. The
//     largest of these bounds (σ) is a floor for s that only ever moves forward.
//  2. From u = max(earliest, σ) + d, walk the history forward to the first instant
//     where the settled level leaves room for the full amount. Crossings inside a
//     segment are solved exactly.
//  3. s = u - d, as long as it does not start after the last sample.
//
// States before s never constrain it, and between critical instants both the level
// and the ramp are linear, so checking states and the ramp end is sufficient.
type sweep struct{}

func (sweep) search(q *query) (float64, bool) {
	last := q.last()

	floor := q.earliest
	for i := q.series.lower(q.earliest); i < q.n(); i++ {
		h := q.headroom(i)
		if h >= q.amount {
			continue
		}

		sigma := q.at(i)
		switch {
		case q.duration > 0:
			sigma -= q.duration * h / q.amount
		case sigma == 0:
			// the first instant carries the step in every state
			sigma = 1
		}
		floor = math.Max(floor, sigma)
	}
	if floor > last {
		return 0, false
	}

	u, ok := sweepSettle(q, floor+q.duration)
	if !ok {
		return 0, false
	}

	start := math.Ceil(u - q.duration - nsSlack)
	if start > last {
		return 0, false
	}
	return start, true
}

// nsSlack absorbs float noise below a nanosecond before rounding a start up.
const nsSlack = 0.01

// sweepSettle returns the first u >= from whose right-continuous level is at most the
// threshold, giving up once u - duration passes the last sample.
func sweepSettle(q *query, from float64) (float64, bool) {
	thr := q.threshold()
	last := q.last()

	k := q.series.upper(from) - 1
	p := from
	for p-q.duration <= last {
		if k == q.n()-1 {
			return p, q.level(k) <= thr
		}

		t0, t1 := q.at(k), q.at(k+1)
		y0, y1 := q.level(k), q.level(k+1)

		v := y0
		if p > t0 {
			v = y0 + (y1-y0)*(p-t0)/(t1-t0)
		}
		if v <= thr {
			return p, true
		}
		if y1 < thr {
			cross := t0 + (y0-thr)/(y0-y1)*(t1-t0)
			return math.Max(cross, p), true
		}

		// move to the settled state at the next timestamp
		k++
		for k+1 < q.n() && q.at(k+1) == t1 {
			k++
		}
		p = t1
	}
	return 0, false
}
