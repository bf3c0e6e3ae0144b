// Package history turns adapter DataFrames into ordered tank samples.
package history

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/HatiCode/tanklevels/pkg/adapters"
	"github.com/HatiCode/tanklevels/pkg/tank"
)

// Builder converts DataFrames into []tank.Sample.
type Builder struct {
	// LevelKey is the row field holding the level. Defaults to "level".
	LevelKey string

	// Offset shifts every timestamp, e.g. to replay last week's levels as a
	// projection of the coming week.
	Offset time.Duration
}

// NewBuilder creates a builder reading the default "level" field.
func NewBuilder() *Builder {
	return &Builder{LevelKey: "level"}
}

// Build extracts samples from df. Each row needs a "ts" field and a level field:
//   - ts: RFC3339 string, Unix seconds (int or float) or time.Time
//   - level: any numeric type
//
// Rows missing either field, or with a non-finite level, are skipped. The result is
// sorted by timestamp; rows sharing a timestamp keep their order so they read as an
// instantaneous jump. An empty frame yields no samples and no error; a frame with
// rows but nothing usable is an error.
func (b *Builder) Build(df adapters.DataFrame) ([]tank.Sample, error) {
	if len(df.Rows) == 0 {
		return nil, nil
	}

	key := b.LevelKey
	if key == "" {
		key = "level"
	}

	samples := make([]tank.Sample, 0, len(df.Rows))
	for _, row := range df.Rows {
		level, ok := toFloat64(row[key])
		if !ok || math.IsNaN(level) || math.IsInf(level, 0) {
			continue
		}

		tsRaw, hasTS := row["ts"]
		if !hasTS {
			continue
		}
		ts, err := parseTimestamp(tsRaw)
		if err != nil {
			continue
		}

		samples = append(samples, tank.Sample{Timestamp: ts.Add(b.Offset), Level: level})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no valid rows with 'ts' and %q fields", key)
	}

	slices.SortStableFunc(samples, func(a, b tank.Sample) int {
		return cmp.Compare(a.Timestamp.UnixNano(), b.Timestamp.UnixNano())
	})
	return samples, nil
}

// toFloat64 attempts to convert any numeric type to float64.
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

// parseTimestamp accepts RFC3339 strings, Unix seconds and time.Time values.
func parseTimestamp(v any) (time.Time, error) {
	switch val := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp string: %w", err)
		}
		return t, nil

	case float64:
		sec, frac := math.Modf(val)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil

	case int:
		return time.Unix(int64(val), 0).UTC(), nil

	case int64:
		return time.Unix(val, 0).UTC(), nil

	case time.Time:
		return val, nil

	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type: %T", v)
	}
}
