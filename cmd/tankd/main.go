// Package main implements tankd, the tank level feasibility service.
// It answers CheckOperation queries over HTTP and gRPC, optionally reading the level
// history from Prometheus and caching outcomes in memory or Redis.
package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/HatiCode/tanklevels/cmd/tankd/config"
	"github.com/HatiCode/tanklevels/cmd/tankd/logger"
	"github.com/HatiCode/tanklevels/cmd/tankd/metrics"
	"github.com/HatiCode/tanklevels/cmd/tankd/router"
	"github.com/HatiCode/tanklevels/cmd/tankd/store"
	"github.com/HatiCode/tanklevels/pkg/adapters"
	"github.com/HatiCode/tanklevels/pkg/api/tankv1"
	"github.com/HatiCode/tanklevels/pkg/httpx"
	"github.com/HatiCode/tanklevels/pkg/tank"
)

func main() {
	cfg := config.ParseFlags()

	log := logger.New(cfg)
	slog.SetDefault(log)
	m := metrics.New()

	log.Info("starting tankd",
		"listen", cfg.Listen,
		"grpc_listen", cfg.GRPCListen,
		"engine", cfg.Engine,
		"min_level", cfg.MinLevel,
		"max_level", cfg.MaxLevel,
		"storage", cfg.Storage,
	)

	outcomes, err := store.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize outcome cache", "error", err)
		os.Exit(1)
	}
	if closer, ok := outcomes.(io.Closer); ok {
		defer closer.Close()
	}

	var opts []tank.Option
	if cfg.Postconditions {
		opts = append(opts, tank.WithPostconditions())
	}

	source := func(query string) adapters.Adapter {
		return &adapters.PrometheusAdapter{
			ServerURL: cfg.PromURL,
			Query:     query,
			Step:      cfg.PromStep,
		}
	}

	svc := NewService(cfg.Engine, cfg.MinLevel, cfg.MaxLevel, opts, outcomes, source, m, log)

	var healthCheck func() error
	if p, ok := outcomes.(interface{ Ping(context.Context) error }); ok {
		healthCheck = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return p.Ping(ctx)
		}
	}

	httpServer := httpx.NewServer(cfg.Listen, router.SetupRoutes(svc, healthCheck, log), log)

	serverErr := make(chan error, 2)
	go func() {
		serverErr <- httpServer.Start()
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCListen != "" {
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(unaryInterceptor(m, log)))
		tankv1.RegisterTankServiceServer(grpcServer, &grpcService{svc: svc})

		healthServer := health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus(tankv1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

		reflection.Register(grpcServer)

		lis, err := net.Listen("tcp", cfg.GRPCListen)
		if err != nil {
			log.Error("failed to listen", "address", cfg.GRPCListen, "error", err)
			os.Exit(1)
		}

		go func() {
			log.Info("grpc server listening", "address", cfg.GRPCListen)
			serverErr <- grpcServer.Serve(lis)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	exitCode := 0
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", "error", err)
			exitCode = 1
		}
	}

	log.Info("shutting down")
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("http server shutdown failed", "error", err)
		exitCode = 1
	}

	log.Info("shutdown complete")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
