package tankv1

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/HatiCode/tanklevels/pkg/tank"
)

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// StatusFromError maps tank errors onto gRPC status codes: rejected input is
// InvalidArgument, an unknown engine is NotFound, anything else Internal.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, tank.ErrUnknownEngine):
		return status.Error(codes.NotFound, err.Error())
	case tank.IsPrecondition(err):
		return invalidArgument(err)
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
