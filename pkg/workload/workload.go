// Package workload generates synthetic tank histories and operation mixes for
// benchmarks and load tests. Generators are seeded so runs are reproducible.
package workload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/HatiCode/tanklevels/pkg/tank"
)

// Shape names a family of synthetic histories.
type Shape string

const (
	Flat      Shape = "flat"
	Zigzag    Shape = "zigzag"
	Staircase Shape = "staircase"
	Ramp      Shape = "ramp"
	Random    Shape = "random"
	Empty     Shape = "empty"
)

// Shapes lists every shape in a stable order.
var Shapes = []Shape{Flat, Zigzag, Staircase, Ramp, Random, Empty}

// ParseShape validates a shape name.
func ParseShape(s string) (Shape, error) {
	if slices.Contains(Shapes, Shape(s)) {
		return Shape(s), nil
	}
	return "", fmt.Errorf("unknown shape %q (want one of %v)", s, Shapes)
}

const (
	// DefaultSpan is the history window: one week.
	DefaultSpan = 168 * time.Hour
	// requestMargin extends the earliest-start range on both sides of the window.
	requestMargin = 10 * time.Hour
	maxDuration   = 72 * time.Hour
	// unboundedLevel stands in for an infinite limit when drawing levels and quantities.
	unboundedLevel = 100.0
)

// Generator draws histories and operations. It is not safe for concurrent use.
type Generator struct {
	Origin time.Time
	Span   time.Duration
	rng    *rand.Rand
}

// NewGenerator returns a generator with a week-long window starting at the Unix
// epoch, seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		Origin: time.Unix(0, 0).UTC(),
		Span:   DefaultSpan,
		rng:    rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)),
	}
}

// Samples builds n samples of the given shape within [minLevel, maxLevel].
// Timestamps are non-decreasing and lie within [Origin, Origin+Span].
func (g *Generator) Samples(shape Shape, n int, minLevel, maxLevel float64) ([]tank.Sample, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative sample count %d", n)
	}
	lo, hi := finite(minLevel, -unboundedLevel), finite(maxLevel, unboundedLevel)
	mid, amp := (lo+hi)/2, (hi-lo)*0.4

	switch shape {
	case Empty:
		return nil, nil
	case Flat:
		return g.even(n, func(int) float64 { return mid }), nil
	case Zigzag:
		return g.even(n, func(i int) float64 {
			if i%2 == 0 {
				return mid - amp
			}
			return mid + amp
		}), nil
	case Ramp:
		return g.even(n, func(i int) float64 {
			if n < 2 {
				return mid
			}
			return mid - amp + 2*amp*float64(i)/float64(n-1)
		}), nil
	case Staircase:
		return g.staircase(n, mid-amp, mid+amp), nil
	case Random:
		return g.random(n, lo, hi), nil
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
}

// Operations draws n requests: earliest start anywhere from 10h before to 10h after
// the window, duration up to 72h, quantity uniform in [minLevel/2, maxLevel/2].
func (g *Generator) Operations(n int, minLevel, maxLevel float64) []tank.Request {
	lo, hi := finite(minLevel, -unboundedLevel)/2, finite(maxLevel, unboundedLevel)/2
	from := g.Origin.Add(-requestMargin)
	width := int64(g.Span + 2*requestMargin)

	ops := make([]tank.Request, n)
	for i := range ops {
		ops[i] = tank.Request{
			EarliestStart: from.Add(time.Duration(g.rng.Int64N(width + 1))),
			Duration:      time.Duration(g.rng.Int64N(int64(maxDuration) + 1)),
			Quantity:      lo + g.rng.Float64()*(hi-lo),
		}
	}
	return ops
}

func (g *Generator) even(n int, level func(int) float64) []tank.Sample {
	out := make([]tank.Sample, n)
	for i := range out {
		out[i] = tank.Sample{Timestamp: g.at(i, n), Level: level(i)}
	}
	return out
}

// staircase rises in equal steps, each step a pair of samples sharing a timestamp.
func (g *Generator) staircase(n int, lo, hi float64) []tank.Sample {
	steps := n/2 + 1
	out := make([]tank.Sample, 0, n)
	for i := 0; len(out) < n; i++ {
		ts := g.at(i, steps)
		level := lo
		if steps > 1 {
			level = lo + (hi-lo)*float64(i)/float64(steps-1)
		}
		if i > 0 {
			out = append(out, tank.Sample{Timestamp: ts, Level: out[len(out)-1].Level})
			if len(out) == n {
				break
			}
		}
		out = append(out, tank.Sample{Timestamp: ts, Level: level})
	}
	return out
}

func (g *Generator) random(n int, lo, hi float64) []tank.Sample {
	out := make([]tank.Sample, n)
	for i := range out {
		out[i] = tank.Sample{
			Timestamp: g.Origin.Add(time.Duration(g.rng.Int64N(int64(g.Span) + 1))),
			Level:     lo + g.rng.Float64()*(hi-lo),
		}
	}
	slices.SortStableFunc(out, func(a, b tank.Sample) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// at spreads n points evenly over the window, both ends included.
func (g *Generator) at(i, n int) time.Time {
	if n < 2 {
		return g.Origin
	}
	return g.Origin.Add(time.Duration(float64(g.Span) * float64(i) / float64(n-1)))
}

func finite(v, fallback float64) float64 {
	if math.IsInf(v, 0) {
		return fallback
	}
	return v
}
