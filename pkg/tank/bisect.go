package tank

// bisect is the conservative engine. It tests one candidate start at a time against
// every critical instant of the combined signal, and when the candidate fails it
// binary-searches the violated constraint for the next nanosecond at which it holds.
//
// Each failed candidate moves strictly forward, so the search ends after at most a
// few rounds per sample; a round costs O(n), so the worst case is quadratic.
type bisect struct{}

func (bisect) search(q *query) (float64, bool) {
	last := int64(q.last())

	s := int64(q.earliest)
	for s <= last {
		next, feasible, ok := bisectCandidate(q, s)
		if feasible {
			return float64(s), true
		}
		if !ok {
			return 0, false
		}
		s = next
	}
	return 0, false
}

// bisectCandidate checks start s. When s fails it returns the next candidate to try,
// or ok=false when no later start can succeed.
func bisectCandidate(q *query, s int64) (next int64, feasible, ok bool) {
	fs := float64(s)
	for i := q.series.lower(fs); i < q.n(); i++ {
		if q.level(i)+q.carried(i, fs) > q.bound {
			return bisectState(q, i, s), false, true
		}
	}

	d := int64(q.duration)
	u := s + d
	if q.levelAfter(float64(u)) > q.threshold() {
		after, ok := bisectSegment(q, u)
		return after - d, false, ok
	}
	return 0, true, true
}

// bisectState returns the smallest start after s at which state i stays in bounds.
// Any start past the state's instant satisfies it.
func bisectState(q *query, i int, s int64) int64 {
	holds := func(c int64) bool {
		return float64(c) > q.at(i) || q.level(i)+q.carried(i, float64(c)) <= q.bound
	}

	lo, hi := s, int64(q.at(i))+1
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if holds(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// bisectSegment returns the first ramp end after u at which the settled level leaves
// room for the full amount, searching the segment that contains u. If the segment
// never dips below the threshold the next sample instant is returned and checked by
// the following round. ok is false once the level is held past the last sample.
func bisectSegment(q *query, u int64) (int64, bool) {
	k := q.series.upper(float64(u)) - 1
	if k == q.n()-1 {
		return 0, false
	}

	end := int64(q.at(k + 1))
	if q.level(k+1) >= q.threshold() {
		return end, true
	}

	below := func(c int64) bool {
		return q.sign*q.series.interpolate(k, float64(c)) <= q.threshold()
	}

	lo, hi := u, end
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if below(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, true
}
