package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/braindock/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus converts a service error into a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

// FromStatus maps a gRPC status error back onto the common sentinels.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return &common.ValidationError{Reason: st.Message()}
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrNotFound)
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrUnauthorized)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrRemoteUnavailable)
	}
	return fmt.Errorf("rpc error: %w", err)
}
