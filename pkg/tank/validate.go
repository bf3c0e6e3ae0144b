package tank

import (
	"fmt"
	"math"
	"time"
)

// validate enforces the query preconditions and returns the series view.
// Checks run in a fixed order so a request with several problems always reports
// the same one.
func (l limits) validate(req Request, samples []Sample) (*Series, error) {
	if req.Duration < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeDuration, req.Duration)
	}
	if math.IsNaN(req.Quantity) || math.IsInf(req.Quantity, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidQuantity, req.Quantity)
	}

	series, err := NewSeries(samples)
	if err != nil {
		return nil, err
	}

	for i, s := range samples {
		if math.IsNaN(s.Level) || s.Level < l.min || s.Level > l.max {
			return nil, fmt.Errorf("%w: sample %d at %s has level %g, limits [%g, %g]",
				ErrLevelOutOfLimits, i, s.Timestamp.Format(time.RFC3339Nano), s.Level, l.min, l.max)
		}
	}

	return series, nil
}
