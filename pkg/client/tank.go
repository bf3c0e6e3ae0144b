// Package client provides HTTP and gRPC clients for tankd.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/HatiCode/tanklevels/pkg/api"
	"github.com/HatiCode/tanklevels/pkg/httpx"
)

// ErrRejected is returned when tankd refuses a request as invalid (HTTP 400).
var ErrRejected = errors.New("request rejected")

// TankClient is an HTTP client for tankd. It is safe for concurrent use.
type TankClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTankClient creates a client for the tankd HTTP API at baseURL
// (e.g. "http://localhost:8080") with a 5 second request timeout.
func NewTankClient(baseURL string) *TankClient {
	return NewTankClientWithTimeout(baseURL, 5*time.Second)
}

// NewTankClientWithTimeout creates a client with a custom timeout.
func NewTankClientWithTimeout(baseURL string, timeout time.Duration) *TankClient {
	return &TankClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CheckOperation posts req to /v1/check.
func (c *TankClient) CheckOperation(ctx context.Context, req api.CheckRequest) (api.CheckResponse, error) {
	var resp api.CheckResponse
	err := c.do(ctx, http.MethodPost, "/v1/check", req, &resp)
	return resp, err
}

// CheckPrometheus posts req to /v1/check/prometheus.
func (c *TankClient) CheckPrometheus(ctx context.Context, req api.PrometheusCheckRequest) (api.CheckResponse, error) {
	var resp api.CheckResponse
	err := c.do(ctx, http.MethodPost, "/v1/check/prometheus", req, &resp)
	return resp, err
}

// Engines lists the engines tankd serves.
func (c *TankClient) Engines(ctx context.Context) (api.EnginesResponse, error) {
	var resp api.EnginesResponse
	err := c.do(ctx, http.MethodGet, "/v1/engines", nil, &resp)
	return resp, err
}

func (c *TankClient) do(ctx context.Context, method, path string, in, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(path)

	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e httpx.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if resp.StatusCode == http.StatusBadRequest {
			return fmt.Errorf("%w: %s", ErrRejected, e.Error)
		}
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, e.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
