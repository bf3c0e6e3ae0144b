package tank

import (
	"fmt"
	"iter"
	"sort"
	"time"
)

// Sample is one recorded or projected tank level.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Level     float64   `json:"level"`
}

// Series is a read-only view over samples ordered by non-decreasing timestamp.
//
// Consecutive samples sharing a timestamp model an instantaneous jump: all of them
// are states of the tank at that instant, in recorded order, and the last one is the
// settled level. Between distinct timestamps the level is interpolated linearly.
//
// The series borrows the slice it was built from; callers must not modify it while
// the series is in use.
type Series struct {
	samples []Sample

	// offsets[i] is samples[i].Timestamp - samples[0].Timestamp in nanoseconds
	offsets []float64
}

// NewSeries validates ordering and builds a Series. Samples are never re-sorted.
func NewSeries(samples []Sample) (*Series, error) {
	s := &Series{
		samples: samples,
		offsets: make([]float64, len(samples)),
	}

	for i := range samples {
		if i > 0 && samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: sample %d at %s precedes sample %d at %s",
				ErrUnsortedSamples, i, samples[i].Timestamp.Format(time.RFC3339Nano),
				i-1, samples[i-1].Timestamp.Format(time.RFC3339Nano))
		}
		s.offsets[i] = float64(samples[i].Timestamp.Sub(samples[0].Timestamp))
	}

	return s, nil
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.samples) }

// Empty reports whether the series has no samples.
func (s *Series) Empty() bool { return len(s.samples) == 0 }

// First returns the earliest sample. It panics on an empty series.
func (s *Series) First() Sample { return s.samples[0] }

// Last returns the latest (settled) sample. It panics on an empty series.
func (s *Series) Last() Sample { return s.samples[len(s.samples)-1] }

// LevelAt returns the level at t, interpolating between samples.
// At a jump instant the settled level is returned; use LevelsAt to see every state.
func (s *Series) LevelAt(t time.Time) (float64, error) {
	if err := s.checkRange(t); err != nil {
		return 0, err
	}

	off := float64(t.Sub(s.samples[0].Timestamp))
	j := s.upper(off)
	if j == len(s.samples) {
		return s.Last().Level, nil
	}
	if s.offsets[j-1] == off {
		return s.samples[j-1].Level, nil
	}
	return s.interpolate(j-1, off), nil
}

// LevelsAt returns every state recorded at exactly t, in recorded order. When no
// sample sits at t the result holds the single interpolated level.
func (s *Series) LevelsAt(t time.Time) ([]float64, error) {
	if err := s.checkRange(t); err != nil {
		return nil, err
	}

	off := float64(t.Sub(s.samples[0].Timestamp))
	lo, hi := s.lower(off), s.upper(off)
	if lo == hi {
		return []float64{s.interpolate(lo-1, off)}, nil
	}

	levels := make([]float64, 0, hi-lo)
	for i := lo; i < hi; i++ {
		levels = append(levels, s.samples[i].Level)
	}
	return levels, nil
}

// CriticalTimestampsIn yields the distinct sample timestamps in [from, to), ascending.
// The sequence is lazy and may be ranged over any number of times.
func (s *Series) CriticalTimestampsIn(from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		i := sort.Search(len(s.samples), func(i int) bool {
			return !s.samples[i].Timestamp.Before(from)
		})
		for ; i < len(s.samples); i++ {
			ts := s.samples[i].Timestamp
			if !ts.Before(to) {
				return
			}
			if i > 0 && ts.Equal(s.samples[i-1].Timestamp) {
				continue
			}
			if !yield(ts) {
				return
			}
		}
	}
}

func (s *Series) checkRange(t time.Time) error {
	if s.Empty() {
		return ErrEmptySeries
	}
	if t.Before(s.First().Timestamp) || t.After(s.Last().Timestamp) {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrOutOfRange,
			t.Format(time.RFC3339Nano),
			s.First().Timestamp.Format(time.RFC3339Nano),
			s.Last().Timestamp.Format(time.RFC3339Nano))
	}
	return nil
}

// lower returns the first index whose offset is >= off.
func (s *Series) lower(off float64) int {
	return sort.SearchFloat64s(s.offsets, off)
}

// upper returns the first index whose offset is > off.
func (s *Series) upper(off float64) int {
	return sort.Search(len(s.offsets), func(i int) bool { return s.offsets[i] > off })
}

// interpolate evaluates the segment leaving the settled state k at offset off.
// Sample k+1 must exist and lie strictly after k.
func (s *Series) interpolate(k int, off float64) float64 {
	t0, t1 := s.offsets[k], s.offsets[k+1]
	y0, y1 := s.samples[k].Level, s.samples[k+1].Level
	return y0 + (y1-y0)*(off-t0)/(t1-t0)
}
