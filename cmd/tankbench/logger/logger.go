// Package logger provides structured logging configuration for tankbench.
//
// Logs go to stderr so the latency report on stdout can be piped or redirected on
// its own. Every record carries the benchmark target and seed, which together with
// the case name identify a run.
//
// Parameters (from config.Config):
//
//   - LogFormat: "json" or text (default).
//   - LogLevel: debug, info, warn or error; unknown values mean info.
//   - Target, Seed: attached to every record.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/HatiCode/tanklevels/cmd/tankbench/config"
)

// New returns a logger writing to stderr.
func New(cfg *config.Config) *slog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("target", cfg.Target, "seed", cfg.Seed)
}
