// Package main implements tankbench, a load generator for the tank engines.
// It replays seeded operation mixes over synthetic histories, either in process or
// against a running tankd, and prints a latency table. Remote checks are sent with
// noCache set, so a tankd cache never answers a timed iteration.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HatiCode/tanklevels/cmd/tankbench/config"
	"github.com/HatiCode/tanklevels/cmd/tankbench/logger"
	"github.com/HatiCode/tanklevels/cmd/tankbench/metrics"
	"github.com/HatiCode/tanklevels/cmd/tankbench/router"
	"github.com/HatiCode/tanklevels/pkg/bench"
	"github.com/HatiCode/tanklevels/pkg/client"
	"github.com/HatiCode/tanklevels/pkg/httpx"
)

func main() {
	cfg := config.ParseFlags()
	log := logger.New(cfg)

	cases, iterations, err := cfg.Cases()
	if err != nil {
		log.Error("failed to load cases", "error", err)
		os.Exit(1)
	}

	target, closeTarget, err := newTarget(cfg.Target)
	if err != nil {
		log.Error("failed to create target", "target", cfg.Target, "error", err)
		os.Exit(1)
	}
	defer closeTarget()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if cfg.MetricsListen != "" {
		srv := httpx.NewServer(cfg.MetricsListen, router.SetupRoutes(reg, log), log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			if err := srv.Stop(5 * time.Second); err != nil {
				log.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting tankbench",
		"target", cfg.Target,
		"cases", len(cases),
		"iterations", iterations,
	)

	results, runErr := bench.NewRunner(target, m.Observe, log).Run(ctx, cases, iterations)
	if err := bench.Report(os.Stdout, results); err != nil {
		log.Error("failed to write report", "error", err)
	}

	switch {
	case runErr == nil:
		log.Info("benchmark complete", "cases", len(results))
	case errors.Is(runErr, context.Canceled):
		log.Warn("benchmark interrupted", "completed_cases", len(results))
	default:
		log.Error("benchmark failed", "error", runErr)
		closeTarget()
		os.Exit(1)
	}
}

// newTarget picks the in-process engines, the tankd HTTP API or tankd gRPC from
// the -target value.
func newTarget(target string) (bench.Target, func(), error) {
	switch {
	case target == "" || target == "local":
		return bench.Local{}, func() {}, nil
	case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
		return bench.Remote{Client: client.NewTankClientWithTimeout(target, 30*time.Second)}, func() {}, nil
	default:
		c, err := client.NewGRPCClient(target)
		if err != nil {
			return nil, nil, err
		}
		return bench.Remote{Client: c}, func() { _ = c.Close() }, nil
	}
}
