package main

import (
	"context"
	"log/slog"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/HatiCode/tanklevels/cmd/tankd/metrics"
	"github.com/HatiCode/tanklevels/pkg/api"
	"github.com/HatiCode/tanklevels/pkg/api/tankv1"
)

// grpcService exposes Service over tankv1.
type grpcService struct {
	svc *Service
}

func (g *grpcService) CheckOperation(ctx context.Context, req api.CheckRequest) (api.CheckResponse, error) {
	resp, err := g.svc.Check(ctx, req)
	if err != nil {
		return api.CheckResponse{}, tankv1.StatusFromError(err)
	}
	return resp, nil
}

func (g *grpcService) ListEngines(context.Context) (api.EnginesResponse, error) {
	return g.svc.Engines(), nil
}

// unaryInterceptor records per-method request counts and latency and logs failures.
func unaryInterceptor(m *metrics.Metrics, logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		method := path.Base(info.FullMethod)
		code := status.Code(err)
		m.RecordGRPCRequest(method, code.String(), elapsed.Seconds())
		if err != nil {
			logger.Debug("grpc request failed", "method", method, "code", code, "error", err)
		}
		return resp, err
	}
}
