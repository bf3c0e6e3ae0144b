// Package adapters retrieves tank level history from external systems and
// normalizes it into a common DataFrame structure.
//
// The only adapter today is PrometheusAdapter, which reads a gauge (or the sum of
// several gauges) through the Prometheus HTTP API. Adapters only fetch and shape;
// turning rows into samples is done by the history package.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// PrometheusAdapter reads level history with /api/v1/query_range and returns rows of
// the form:
//
//	{"ts": time.Time (UTC), "level": float64}
//
// If the query returns several series, levels at the same timestamp are summed.
type PrometheusAdapter struct {
	// ServerURL is the base URL to Prometheus, e.g. http://prometheus.monitoring.svc:9090
	ServerURL string
	// Query is the PromQL expression yielding the level gauge.
	Query string
	// Step is the query resolution (defaults to one minute).
	Step time.Duration
	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

func (p *PrometheusAdapter) Name() string { return "prometheus" }

// Collect implements Adapter.
func (p *PrometheusAdapter) Collect(ctx context.Context, start, end time.Time) (*DataFrame, error) {
	if p.ServerURL == "" || p.Query == "" {
		return &DataFrame{}, errors.New("prometheus adapter: ServerURL and Query are required")
	}
	if end.Before(start) {
		return &DataFrame{}, fmt.Errorf("prometheus adapter: end %s before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	step := p.Step
	if step <= 0 {
		step = time.Minute
	}

	u, err := url.Parse(p.ServerURL)
	if err != nil {
		return &DataFrame{}, fmt.Errorf("invalid ServerURL: %w", err)
	}
	u = u.JoinPath("api", "v1", "query_range")

	q := u.Query()
	q.Set("query", p.Query)
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	q.Set("step", strconv.FormatFloat(step.Seconds(), 'f', -1, 64))
	u.RawQuery = q.Encode()

	cli := p.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &DataFrame{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return &DataFrame{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DataFrame{}, fmt.Errorf("prometheus: status %d", resp.StatusCode)
	}

	var pr rangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return &DataFrame{}, fmt.Errorf("decode prometheus response: %w", err)
	}
	if pr.Status != "success" {
		return &DataFrame{}, fmt.Errorf("prometheus status: %s (%s)", pr.Status, pr.Error)
	}

	rows, err := sumSeries(pr.Data.Result)
	if err != nil {
		return &DataFrame{}, err
	}
	return &DataFrame{Rows: rows}, nil
}

type rangeResponse struct {
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
	Data   rangeData `json:"data"`
}

type rangeData struct {
	ResultType string        `json:"resultType"`
	Result     []rangeSeries `json:"result"`
}

type rangeSeries struct {
	Metric map[string]string `json:"metric"`
	// Values is an array of [ <unix_time_float>, "<value_string>" ]
	Values [][]any `json:"values"`
}

// sumSeries merges every series into one row per timestamp, sorted by time.
// Timestamps are rounded to the millisecond, so sub-millisecond jitter between
// series does not split one instant into two rows.
func sumSeries(series []rangeSeries) ([]Row, error) {
	acc := make(map[int64]float64)
	for _, s := range series {
		for _, pair := range s.Values {
			if len(pair) != 2 {
				return nil, fmt.Errorf("invalid value pair length: %d", len(pair))
			}

			tsSec, ok := pair[0].(float64)
			if !ok {
				return nil, fmt.Errorf("unexpected timestamp type %T", pair[0])
			}

			var level float64
			switch v := pair[1].(type) {
			case string:
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("parse level: %w", err)
				}
				level = f
			case float64:
				level = v
			default:
				return nil, fmt.Errorf("unexpected level type %T", v)
			}
			acc[int64(math.Round(tsSec*1e3))] += level
		}
	}

	stamps := slices.Sorted(maps.Keys(acc))

	rows := make([]Row, 0, len(stamps))
	for _, ms := range stamps {
		rows = append(rows, Row{
			"ts":    time.UnixMilli(ms).UTC(),
			"level": acc[ms],
		})
	}
	return rows, nil
}
