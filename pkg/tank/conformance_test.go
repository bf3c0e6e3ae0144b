package tank

import (
	"errors"
	"math"
	"testing"
	"time"
)

var base = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// maxDrift is how far a start time may be from the expected hour.
const maxDrift = time.Microsecond

func hour(h float64) time.Time {
	return base.Add(time.Duration(h * float64(time.Hour)))
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func mirror(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		out[i] = Sample{Timestamp: s.Timestamp, Level: -s.Level}
	}
	return out
}

type scenario struct {
	name     string
	samples  []Sample
	min, max float64
	start    float64
	duration float64
	quantity float64
	success  bool
	hour     float64
}

// checkScenario runs sc against the named engine as given and mirrored: negated
// levels, negated and swapped limits, negated quantity.
func checkScenario(t *testing.T, engine string, sc scenario) {
	t.Helper()

	runs := []struct {
		label    string
		min, max float64
		quantity float64
		samples  []Sample
	}{
		{"direct", sc.min, sc.max, sc.quantity, sc.samples},
		{"mirrored", -sc.max, -sc.min, -sc.quantity, mirror(sc.samples)},
	}

	for _, r := range runs {
		tk, err := New(engine, r.min, r.max, WithPostconditions())
		if err != nil {
			t.Fatalf("%s: New(%q) error = %v", r.label, engine, err)
		}

		got, err := tk.CheckOperation(hour(sc.start), hours(sc.duration), r.quantity, r.samples)
		if err != nil {
			t.Fatalf("%s: CheckOperation() error = %v", r.label, err)
		}
		if got.IsSuccess != sc.success {
			t.Fatalf("%s: IsSuccess = %v, want %v (got %s)", r.label, got.IsSuccess, sc.success, got)
		}
		if !sc.success {
			continue
		}
		if drift := got.StartTime.Sub(hour(sc.hour)).Abs(); drift > maxDrift {
			t.Errorf("%s: StartTime = %s, want hour %v (drift %s)", r.label, got.StartTime, sc.hour, drift)
		}
	}
}

func peak() []Sample {
	return []Sample{
		{hour(0), 0},
		{hour(5), 5},
		{hour(10), 0},
	}
}

func peakThenDrop(dropAt time.Time) []Sample {
	return append(peak(), Sample{dropAt, -100})
}

// staircase steps down by one every hour: (0,5),(1,5),(1,4),(2,4),...,(5,0),(6,0).
func staircase() []Sample {
	var out []Sample
	for h := range 6 {
		level := float64(5 - h)
		out = append(out,
			Sample{hour(float64(h)), level},
			Sample{hour(float64(h + 1)), level},
		)
	}
	return out
}

func TestConformance_Peak(t *testing.T) {
	tests := []struct {
		quantity float64
		success  bool
		hour     float64
	}{
		{0, true, 5},
		{5, true, 5},
		{7.5, true, 5},
		{10, true, 7.5},
		{10.0000001, false, 0},
		{100000, false, 0},
	}

	for _, engine := range Names() {
		for _, tt := range tests {
			checkScenario(t, engine, scenario{
				samples:  peak(),
				min:      -10,
				max:      10,
				start:    5,
				duration: 2.5,
				quantity: tt.quantity,
				success:  tt.success,
				hour:     tt.hour,
			})
		}
	}
}

// The drop to -100 lands one millisecond after the 10h sample in one series and at
// exactly 10h in the other. Both resolve to the same starts.
func TestConformance_Drop(t *testing.T) {
	tests := []struct {
		quantity float64
		success  bool
		hour     float64
	}{
		{0, true, 5},
		{7.49, true, 5},
		{7.50, true, 5},
		{7.51, true, 5.01},
		{7.60, true, 5.1},
		{9.9, true, 7.4},
		{10, true, 7.5},
		{10.1, true, 7.52475247525},
		{109.9, true, 9.77252047316667},
		{110, true, 9.77272727272222},
		{110.1, false, 0},
	}

	series := map[string][]Sample{
		"after 1ms": peakThenDrop(hour(10).Add(time.Millisecond)),
		"same time": peakThenDrop(hour(10)),
	}

	for _, engine := range Names() {
		for name, samples := range series {
			for _, tt := range tests {
				t.Run(engine+"/"+name, func(t *testing.T) {
					checkScenario(t, engine, scenario{
						samples:  samples,
						min:      -100,
						max:      10,
						start:    5,
						duration: 2.5,
						quantity: tt.quantity,
						success:  tt.success,
						hour:     tt.hour,
					})
				})
			}
		}
	}
}

func TestConformance_ZeroDurationStaircase(t *testing.T) {
	tests := []struct {
		quantity float64
		success  bool
		hour     float64
	}{
		{4.99, true, 0},
		{5, true, 0},
		{5.00001, true, 1},
		{6.00001, true, 2},
		{7.00001, true, 3},
		{8.00001, true, 4},
		{9.00001, true, 5},
		{10, true, 5},
		{10.00001, false, 0},
	}

	for _, engine := range Names() {
		for _, tt := range tests {
			checkScenario(t, engine, scenario{
				samples:  staircase(),
				min:      -10,
				max:      10,
				start:    0,
				duration: 0,
				quantity: tt.quantity,
				success:  tt.success,
				hour:     tt.hour,
			})
		}
	}
}

func TestConformance_Window(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		quantity float64
		success  bool
		hour     float64
	}{
		{"before history clamps to first sample", -3, 0, true, 0},
		{"no-op at requested time", 2.25, 0, true, 2.25},
		{"start at last sample", 10, 0, true, 10},
		{"start after last sample", 10.5, 0, false, 0},
		{"operation may run past history", 9, 1, true, 9},
	}

	for _, engine := range Names() {
		for _, tt := range tests {
			t.Run(engine+"/"+tt.name, func(t *testing.T) {
				checkScenario(t, engine, scenario{
					samples:  peak(),
					min:      -10,
					max:      10,
					start:    tt.start,
					duration: 2.5,
					quantity: tt.quantity,
					success:  tt.success,
					hour:     tt.hour,
				})
			})
		}
	}
}

func TestConformance_EmptyHistory(t *testing.T) {
	for _, engine := range Names() {
		for _, tt := range []struct {
			duration time.Duration
			quantity float64
		}{
			{0, 0},
			{time.Hour, 1},
			{0, -1},
		} {
			tk, err := New(engine, -10, 10)
			if err != nil {
				t.Fatalf("New(%q) error = %v", engine, err)
			}
			got, err := tk.CheckOperation(base, tt.duration, tt.quantity, nil)
			if err != nil {
				t.Fatalf("%s: CheckOperation() error = %v", engine, err)
			}
			if got.IsSuccess {
				t.Errorf("%s: empty history with duration %s quantity %g succeeded at %s",
					engine, tt.duration, tt.quantity, got.StartTime)
			}
		}
	}
}

func TestConformance_Unbounded(t *testing.T) {
	lo, hi := Unbounded()
	for _, engine := range Names() {
		tk, err := New(engine, lo, hi)
		if err != nil {
			t.Fatalf("New(%q) error = %v", engine, err)
		}
		got, err := tk.CheckOperation(hour(1), hours(100), 1e12, peak())
		if err != nil {
			t.Fatalf("%s: CheckOperation() error = %v", engine, err)
		}
		if !got.Equal(Success(hour(1))) {
			t.Errorf("%s: got %s, want success at hour 1", engine, got)
		}
	}
}

func TestConformance_Preconditions(t *testing.T) {
	unsorted := []Sample{{hour(1), 0}, {hour(0), 0}}
	tests := []struct {
		name     string
		min, max float64
		duration time.Duration
		quantity float64
		samples  []Sample
		want     error
	}{
		{"negative duration", -10, 10, -time.Second, 1, peak(), ErrNegativeDuration},
		{"nan quantity", -10, 10, time.Hour, math.NaN(), peak(), ErrInvalidQuantity},
		{"infinite quantity", -10, 10, time.Hour, math.Inf(1), peak(), ErrInvalidQuantity},
		{"unsorted samples", -10, 10, time.Hour, 1, unsorted, ErrUnsortedSamples},
		{"level above max", -10, 4, time.Hour, 1, peak(), ErrLevelOutOfLimits},
		{"level below min", 1, 10, time.Hour, 1, peak(), ErrLevelOutOfLimits},
		{"nan level", -10, 10, time.Hour, 1, []Sample{{hour(0), math.NaN()}}, ErrLevelOutOfLimits},
	}

	for _, engine := range Names() {
		for _, tt := range tests {
			t.Run(engine+"/"+tt.name, func(t *testing.T) {
				tk, err := New(engine, tt.min, tt.max)
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				_, err = tk.CheckOperation(hour(0), tt.duration, tt.quantity, tt.samples)
				if !errors.Is(err, tt.want) {
					t.Fatalf("error = %v, want %v", err, tt.want)
				}
				if !IsPrecondition(err) {
					t.Errorf("IsPrecondition(%v) = false", err)
				}
			})
		}

		for _, lim := range [][2]float64{{1, -1}, {math.NaN(), 0}, {0, math.NaN()}} {
			if _, err := New(engine, lim[0], lim[1]); !errors.Is(err, ErrInvalidLimits) {
				t.Errorf("%s: New(%v, %v) error = %v, want ErrInvalidLimits", engine, lim[0], lim[1], err)
			}
		}
	}
}
