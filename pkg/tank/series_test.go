package tank

import (
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"
)

func TestNewSeries_Unsorted(t *testing.T) {
	_, err := NewSeries([]Sample{{hour(2), 0}, {hour(1), 0}})
	if !errors.Is(err, ErrUnsortedSamples) {
		t.Fatalf("error = %v, want ErrUnsortedSamples", err)
	}
}

func TestSeries_LevelAt(t *testing.T) {
	s, err := NewSeries(peakThenDrop(hour(10)))
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}

	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"first sample", hour(0), 0},
		{"rising", hour(2.5), 2.5},
		{"peak", hour(5), 5},
		{"falling", hour(7.5), 2.5},
		{"jump settles on last state", hour(10), -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.LevelAt(tt.at)
			if err != nil {
				t.Fatalf("LevelAt() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LevelAt(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}

	for _, at := range []time.Time{hour(-1), hour(10).Add(time.Nanosecond)} {
		if _, err := s.LevelAt(at); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("LevelAt(%s) error = %v, want ErrOutOfRange", at, err)
		}
	}
}

func TestSeries_LevelsAt(t *testing.T) {
	s, err := NewSeries(staircase())
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}

	got, err := s.LevelsAt(hour(2))
	if err != nil {
		t.Fatalf("LevelsAt() error = %v", err)
	}
	if want := []float64{4, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("LevelsAt(2h) = %v, want %v", got, want)
	}

	got, err = s.LevelsAt(hour(2.5))
	if err != nil {
		t.Fatalf("LevelsAt() error = %v", err)
	}
	if want := []float64{3}; !reflect.DeepEqual(got, want) {
		t.Errorf("LevelsAt(2.5h) = %v, want %v", got, want)
	}
}

func TestSeries_Empty(t *testing.T) {
	s, err := NewSeries(nil)
	if err != nil {
		t.Fatalf("NewSeries(nil) error = %v", err)
	}
	if !s.Empty() || s.Len() != 0 {
		t.Fatalf("Empty() = %v, Len() = %d", s.Empty(), s.Len())
	}
	if _, err := s.LevelAt(base); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("LevelAt() error = %v, want ErrEmptySeries", err)
	}
	for range s.CriticalTimestampsIn(hour(-100), hour(100)) {
		t.Fatal("empty series yielded a timestamp")
	}
}

func TestSeries_CriticalTimestampsIn(t *testing.T) {
	s, err := NewSeries(staircase())
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}

	tests := []struct {
		name     string
		from, to time.Time
		want     []time.Time
	}{
		{"whole series", hour(0), hour(7), []time.Time{hour(0), hour(1), hour(2), hour(3), hour(4), hour(5), hour(6)}},
		{"half-open end", hour(2), hour(4), []time.Time{hour(2), hour(3)}},
		{"between samples", hour(2.5), hour(3.5), []time.Time{hour(3)}},
		{"before history", hour(-5), hour(0), nil},
		{"empty range", hour(3), hour(3), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := s.CriticalTimestampsIn(tt.from, tt.to)
			got := slices.Collect(seq)
			if !slices.EqualFunc(got, tt.want, time.Time.Equal) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			// restartable
			if again := slices.Collect(seq); !slices.EqualFunc(again, got, time.Time.Equal) {
				t.Errorf("second pass = %v, first = %v", again, got)
			}
		})
	}
}

func TestSeries_CriticalTimestampsInStopsEarly(t *testing.T) {
	s, err := NewSeries(staircase())
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}

	var seen int
	for range s.CriticalTimestampsIn(hour(0), hour(7)) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestRamp_Contribution(t *testing.T) {
	ramp := Ramp{Start: hour(1), Duration: hours(2), Quantity: -8}
	zero := Ramp{Start: hour(1), Quantity: 3}

	tests := []struct {
		name string
		ramp Ramp
		at   time.Time
		want float64
	}{
		{"before start", ramp, hour(0.5), 0},
		{"at start", ramp, hour(1), 0},
		{"halfway", ramp, hour(2), -4},
		{"at end", ramp, hour(3), -8},
		{"after end", ramp, hour(30), -8},
		{"zero duration before", zero, hour(1).Add(-time.Nanosecond), 0},
		{"zero duration at start", zero, hour(1), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ramp.Contribution(tt.at); got != tt.want {
				t.Errorf("Contribution(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}

	if got := ramp.End(); !got.Equal(hour(3)) {
		t.Errorf("End() = %s, want %s", got, hour(3))
	}
}
