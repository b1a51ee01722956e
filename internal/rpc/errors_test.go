package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", common.Invalid("title", "too long"), codes.InvalidArgument},
		{"not found", fmt.Errorf("entry x: %w", common.ErrNotFound), codes.NotFound},
		{"unauthorized", common.ErrUnauthorized, codes.Unauthenticated},
		{"invalid token", common.ErrInvalidToken, codes.Unauthenticated},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"already status", status.Error(codes.AlreadyExists, "x"), codes.AlreadyExists},
		{"other", errors.New("db down"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, status.Code(ToStatus(tt.err)))
		})
	}
	require.NoError(t, ToStatus(nil))
}

func TestToStatus_HidesInternalDetails(t *testing.T) {
	st, _ := status.FromError(ToStatus(errors.New("password=hunter2")))
	require.Equal(t, "internal error", st.Message())
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid", status.Error(codes.InvalidArgument, "bad"), common.ErrValidation},
		{"not found", status.Error(codes.NotFound, "x"), common.ErrNotFound},
		{"unauthenticated", status.Error(codes.Unauthenticated, "x"), common.ErrUnauthorized},
		{"permission", status.Error(codes.PermissionDenied, "x"), common.ErrUnauthorized},
		{"unavailable", status.Error(codes.Unavailable, "x"), common.ErrRemoteUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "x"), common.ErrRemoteUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, FromStatus(tt.err), tt.want)
		})
	}

	plain := errors.New("plain")
	require.Equal(t, plain, FromStatus(plain))
	require.ErrorContains(t, FromStatus(status.Error(codes.Internal, "x")), "rpc error")
	require.NoError(t, FromStatus(nil))
}
