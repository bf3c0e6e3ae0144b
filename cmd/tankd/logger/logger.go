// Package logger provides structured logging configuration for tankd.
//
// New builds an slog.Logger from the service Config:
//
//   - LogFormat "json" selects slog.JSONHandler; anything else selects the text handler.
//   - LogLevel is one of debug, info, warn or error. Unknown values fall back to info.
//
// Every record carries service=tankd and the default engine, so lines from several
// tankd replicas sharing one cache can be told apart in aggregated logs.
//
// Usage:
//
//	cfg := config.ParseFlags()
//	log := logger.New(cfg)
//	log.Info("check answered", "engine", "sweep", "samples", 3)
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/HatiCode/tanklevels/cmd/tankd/config"
)

// New returns a logger writing to stdout.
func New(cfg *config.Config) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With("service", "tankd")
	if cfg.Engine != "" {
		logger = logger.With("default_engine", cfg.Engine)
	}
	return logger
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
