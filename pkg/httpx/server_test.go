package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HatiCode/tanklevels/pkg/api"
	"github.com/HatiCode/tanklevels/pkg/tank"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer(t *testing.T) {
	tests := []struct {
		name   string
		logger *slog.Logger
	}{
		{"with logger", discardLogger()},
		{"nil logger", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(":8080", http.NotFoundHandler(), tt.logger)
			if s.server.Addr != ":8080" {
				t.Errorf("Addr = %q, want :8080", s.server.Addr)
			}
			if s.logger == nil {
				t.Error("logger is nil")
			}
			if s.server.ReadHeaderTimeout == 0 || s.server.WriteTimeout == 0 {
				t.Errorf("timeouts not set: %+v", s.server)
			}
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", http.NotFoundHandler(), discardLogger())

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	if err := s.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() after Stop = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}
}

func TestWriteJSON_CheckResponse(t *testing.T) {
	start := time.Date(2024, 1, 1, 7, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		outcome   tank.Outcome
		cached    bool
		wantStart bool
	}{
		{"feasible", tank.Success(start), false, true},
		{"feasible from cache", tank.Success(start), true, true},
		{"infeasible", tank.Failure(), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			resp := api.NewCheckResponse("sweep", 3, tt.outcome, tt.cached)
			if err := WriteJSON(w, http.StatusOK, resp); err != nil {
				t.Fatalf("WriteJSON() error = %v", err)
			}

			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if got := strings.Contains(w.Body.String(), `"startTime"`); got != tt.wantStart {
				t.Errorf("body has startTime = %v, want %v: %s", got, tt.wantStart, w.Body.String())
			}

			var got api.CheckResponse
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.IsSuccess != tt.outcome.IsSuccess || got.Cached != tt.cached || got.Engine != "sweep" {
				t.Errorf("got %+v", got)
			}
			if tt.wantStart && !got.StartTime.Equal(start) {
				t.Errorf("startTime = %v, want %v", got.StartTime, start)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		err      error
		wantBody string
	}{
		{
			name:     "level outside limits",
			status:   http.StatusBadRequest,
			err:      fmt.Errorf("sample 2: level 12: %w", tank.ErrLevelOutOfLimits),
			wantBody: "sample 2: level 12: sample level outside tank limits",
		},
		{
			name:     "unknown engine",
			status:   http.StatusBadRequest,
			err:      fmt.Errorf("%w: %q", tank.ErrUnknownEngine, "greedy"),
			wantBody: `unknown tank engine: "greedy"`,
		},
		{
			name:     "prometheus down",
			status:   http.StatusBadGateway,
			err:      fmt.Errorf("%w: connection refused", api.ErrUpstream),
			wantBody: "history source unavailable: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.status, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantBody {
				t.Errorf("error = %q, want %q", body.Error, tt.wantBody)
			}
		})
	}
}

func TestHealthHandlerWithCheck(t *testing.T) {
	tests := []struct {
		name       string
		check      func() error
		wantStatus int
		wantBody   string
	}{
		{"no check", nil, http.StatusOK, "OK"},
		{"cache reachable", func() error { return nil }, http.StatusOK, "OK"},
		{"cache down", func() error { return errors.New("redis: connection refused") }, http.StatusServiceUnavailable, "redis: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HealthHandlerWithCheck(tt.check).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}

	w := httptest.NewRecorder()
	HealthHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("HealthHandler status = %d, want 200", w.Code)
	}
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "rejected check",
			handler: func(w http.ResponseWriter, r *http.Request) {
				WriteError(w, http.StatusBadRequest, tank.ErrUnsortedSamples)
			},
			want: "status=400",
		},
		{
			name: "implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"isSuccess":false}`))
			},
			want: "status=200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := LoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))(tt.handler)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/check", nil))

			for _, field := range []string{tt.want, "method=POST", "path=/v1/check"} {
				if !strings.Contains(buf.String(), field) {
					t.Errorf("log output missing %q: %s", field, buf.String())
				}
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	h := RecoveryMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var samples []tank.Sample
			_ = samples[3]
		}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/check", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q, want generic message", body.Error)
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "path=/v1/check") {
		t.Errorf("panic not logged: %s", buf.String())
	}

	ok := RecoveryMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteJSON(w, http.StatusOK, api.EnginesResponse{Engines: tank.Names()})
	}))
	w = httptest.NewRecorder()
	ok.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/engines", nil))
	if w.Code != http.StatusOK {
		t.Errorf("normal request status = %d, want 200", w.Code)
	}
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusBadGateway)
	rw.WriteHeader(http.StatusOK)

	if rw.statusCode != http.StatusBadGateway {
		t.Errorf("statusCode = %d, want 502", rw.statusCode)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/check", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen == "" {
		t.Fatal("no request id in context")
	}
	if got := w.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("%s header = %q, want %q", RequestIDHeader, got, seen)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/check", nil)
	req.Header.Set(RequestIDHeader, "caller-42")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "caller-42" {
		t.Errorf("request id = %q, want caller id to be propagated", seen)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "outer,inner,handler" {
		t.Errorf("order = %s, want outer,inner,handler", got)
	}
}

// The stack tankd mounts: a panicking check still gets an id, a 500 and a log line.
func TestChain_CheckStack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("engine exploded")
	}), RequestIDMiddleware(), LoggingMiddleware(logger), RecoveryMiddleware(logger))

	req := httptest.NewRequest(http.MethodPost, "/v1/check", strings.NewReader(`{}`))
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := w.Header().Get(RequestIDHeader); got != "abc" {
		t.Errorf("%s = %q, want abc", RequestIDHeader, got)
	}
	for _, field := range []string{"request_id=abc", "status=500", "engine exploded"} {
		if !strings.Contains(buf.String(), field) {
			t.Errorf("log output missing %q: %s", field, buf.String())
		}
	}
}
