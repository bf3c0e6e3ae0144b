// Package tankv1 is the gRPC surface of tankd.
//
// Messages travel as google.protobuf.Struct values carrying the same JSON documents
// as the HTTP API (see package api), so the service needs no generated code and the
// two surfaces cannot drift apart.
package tankv1

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/HatiCode/tanklevels/pkg/api"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tanklevels.v1.TankService"

const (
	checkOperationMethod = "/" + ServiceName + "/CheckOperation"
	listEnginesMethod    = "/" + ServiceName + "/ListEngines"
)

// TankServiceServer is implemented by tankd.
type TankServiceServer interface {
	CheckOperation(ctx context.Context, req api.CheckRequest) (api.CheckResponse, error)
	ListEngines(ctx context.Context) (api.EnginesResponse, error)
}

// RegisterTankServiceServer registers srv on s.
func RegisterTankServiceServer(s grpc.ServiceRegistrar, srv TankServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TankServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckOperation", Handler: checkOperationHandler},
		{MethodName: "ListEngines", Handler: listEnginesHandler},
	},
	Metadata: "tanklevels/v1/tank.proto",
}

func checkOperationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	call := func(ctx context.Context, req any) (any, error) {
		var creq api.CheckRequest
		if err := Decode(req.(*structpb.Struct), &creq); err != nil {
			return nil, invalidArgument(err)
		}
		resp, err := srv.(TankServiceServer).CheckOperation(ctx, creq)
		if err != nil {
			return nil, err
		}
		return Encode(resp)
	}

	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkOperationMethod}
	return interceptor(ctx, in, info, call)
}

func listEnginesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	call := func(ctx context.Context, _ any) (any, error) {
		resp, err := srv.(TankServiceServer).ListEngines(ctx)
		if err != nil {
			return nil, err
		}
		return Encode(resp)
	}

	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listEnginesMethod}
	return interceptor(ctx, in, info, call)
}

// TankServiceClient calls a remote TankService.
type TankServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewTankServiceClient wraps a client connection.
func NewTankServiceClient(cc grpc.ClientConnInterface) *TankServiceClient {
	return &TankServiceClient{cc: cc}
}

// CheckOperation calls TankService/CheckOperation.
func (c *TankServiceClient) CheckOperation(ctx context.Context, req api.CheckRequest, opts ...grpc.CallOption) (api.CheckResponse, error) {
	in, err := Encode(req)
	if err != nil {
		return api.CheckResponse{}, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, checkOperationMethod, in, out, opts...); err != nil {
		return api.CheckResponse{}, err
	}

	var resp api.CheckResponse
	if err := Decode(out, &resp); err != nil {
		return api.CheckResponse{}, err
	}
	return resp, nil
}

// ListEngines calls TankService/ListEngines.
func (c *TankServiceClient) ListEngines(ctx context.Context, opts ...grpc.CallOption) (api.EnginesResponse, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listEnginesMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return api.EnginesResponse{}, err
	}

	var resp api.EnginesResponse
	if err := Decode(out, &resp); err != nil {
		return api.EnginesResponse{}, err
	}
	return resp, nil
}

// Encode converts a JSON-tagged value into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return structpb.NewStruct(m)
}

// Decode fills v from a Struct.
func Decode(s *structpb.Struct, v any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
