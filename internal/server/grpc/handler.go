package grpc

import (
	"context"

	"github.com/dmitrijs2005/braindock/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Push(ctx context.Context, req *rpc.PushRequest) (*rpc.PushResponse, error) {
	remoteID, outcome, err := s.authority.Push(ctx, req.Entry)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.PushResponse{RemoteID: remoteID, Outcome: outcome.String()}, nil
}

func (s *GRPCServer) Read(ctx context.Context, req *rpc.ReadRequest) (*rpc.ReadResponse, error) {
	e, err := s.authority.Read(ctx, req.ID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.ReadResponse{Entry: *e}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *rpc.ListRequest) (*rpc.ListResponse, error) {
	list, err := s.authority.List(ctx, req.Filter)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.ListResponse{Entries: list}, nil
}

// Ping reports Unavailable when the backing store cannot be reached.
func (s *GRPCServer) Ping(ctx context.Context, _ *rpc.PingRequest) (*rpc.PingResponse, error) {
	if err := s.authority.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "store unreachable", "error", err)
		return nil, status.Error(codes.Unavailable, "store unavailable")
	}
	return &rpc.PingResponse{Status: "OK"}, nil
}
