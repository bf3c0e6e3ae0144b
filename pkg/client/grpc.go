package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/HatiCode/tanklevels/pkg/api"
	"github.com/HatiCode/tanklevels/pkg/api/tankv1"
)

// GRPCClient talks to the tankd gRPC listener over plaintext.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client *tankv1.TankServiceClient
}

// NewGRPCClient connects lazily to target (e.g. "localhost:9090"). Extra dial
// options are appended after the default insecure credentials.
func NewGRPCClient(target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", target, err)
	}
	return &GRPCClient{conn: conn, client: tankv1.NewTankServiceClient(conn)}, nil
}

// CheckOperation calls TankService/CheckOperation.
func (c *GRPCClient) CheckOperation(ctx context.Context, req api.CheckRequest) (api.CheckResponse, error) {
	return c.client.CheckOperation(ctx, req)
}

// Engines calls TankService/ListEngines.
func (c *GRPCClient) Engines(ctx context.Context) (api.EnginesResponse, error) {
	return c.client.ListEngines(ctx)
}

// Close releases the connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
