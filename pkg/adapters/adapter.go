package adapters

import (
	"context"
	"time"
)

// Row is one observation of a tank level.
// Example: {"ts": time.Time, "level": 42.5, "source": "prometheus"}
type Row map[string]any

// DataFrame is the tabular result of a collection, ordered by "ts".
type DataFrame struct {
	Rows []Row
}

// Adapter pulls a tank's level history from an external system and shapes it into
// a DataFrame. Collect should respect context cancellation and deadlines.
type Adapter interface {
	// Collect returns the rows observed in [start, end].
	Collect(ctx context.Context, start, end time.Time) (*DataFrame, error)

	// Name returns a short identifier, e.g. "prometheus".
	Name() string
}
