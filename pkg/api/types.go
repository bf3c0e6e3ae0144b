// Package api defines the wire types shared by the tankd HTTP and gRPC surfaces and
// their clients.
package api

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/HatiCode/tanklevels/pkg/tank"
)

// Duration is a time.Duration that reads either a Go duration string ("2h30m") or a
// number of seconds from JSON, and writes the string form.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(math.Round(val * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
	return nil
}

// Limits are optional tank bounds. A nil bound means unbounded on that side.
type Limits struct {
	MinLevel *float64 `json:"minLevel,omitempty"`
	MaxLevel *float64 `json:"maxLevel,omitempty"`
}

// Resolve returns the bounds, substituting defaults for the missing sides.
func (l Limits) Resolve(defaultMin, defaultMax float64) (float64, float64) {
	lo, hi := defaultMin, defaultMax
	if l.MinLevel != nil {
		lo = *l.MinLevel
	}
	if l.MaxLevel != nil {
		hi = *l.MaxLevel
	}
	return lo, hi
}

// Operation is the put or take-away to schedule.
type Operation struct {
	EarliestStart time.Time `json:"earliestStart"`
	Duration      Duration  `json:"duration"`
	Quantity      float64   `json:"quantity"`
}

// Request converts the operation to the core type.
func (o Operation) Request() tank.Request {
	return tank.Request{
		EarliestStart: o.EarliestStart,
		Duration:      time.Duration(o.Duration),
		Quantity:      o.Quantity,
	}
}

// CheckRequest asks whether an operation fits a supplied history.
type CheckRequest struct {
	Engine string `json:"engine,omitempty"`
	Limits
	Operation
	Samples []tank.Sample `json:"samples"`
	// NoCache skips the outcome cache in both directions.
	NoCache bool `json:"noCache,omitempty"`
}

// PrometheusCheckRequest asks the same question against history read from
// Prometheus over the Window ending now.
type PrometheusCheckRequest struct {
	Engine string `json:"engine,omitempty"`
	Limits
	Operation
	Query  string   `json:"query"`
	Window Duration `json:"window"`
}

// CheckResponse carries the outcome. StartTime is set only on success.
type CheckResponse struct {
	IsSuccess bool       `json:"isSuccess"`
	StartTime *time.Time `json:"startTime,omitempty"`
	Engine    string     `json:"engine"`
	Samples   int        `json:"samples"`
	Cached    bool       `json:"cached"`
}

// NewCheckResponse builds a response from an outcome.
func NewCheckResponse(engine string, samples int, out tank.Outcome, cached bool) CheckResponse {
	resp := CheckResponse{
		IsSuccess: out.IsSuccess,
		Engine:    engine,
		Samples:   samples,
		Cached:    cached,
	}
	if out.IsSuccess {
		start := out.StartTime.UTC()
		resp.StartTime = &start
	}
	return resp
}

// Outcome converts the response back to the core type.
func (r CheckResponse) Outcome() tank.Outcome {
	if !r.IsSuccess || r.StartTime == nil {
		return tank.Failure()
	}
	return tank.Success(*r.StartTime)
}

// EnginesResponse lists the available engines.
type EnginesResponse struct {
	Engines []string `json:"engines"`
	Default string   `json:"default"`
}
