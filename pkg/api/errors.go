package api

import "errors"

var (
	// ErrInvalidRequest marks a request the service rejects before running a check.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream marks a failure of the history source (e.g. Prometheus).
	ErrUpstream = errors.New("history source unavailable")
)
