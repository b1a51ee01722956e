// Package grpc exposes the AuthorityService over gRPC with the JSON codec
// from internal/rpc.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/braindock/internal/logging"
	"github.com/dmitrijs2005/braindock/internal/lww"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Authority is the service the handlers delegate to.
type Authority interface {
	Push(ctx context.Context, e models.Entry) (string, lww.Outcome, error)
	Read(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, f models.Filter) ([]models.Entry, error)
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address   string
	authority Authority
	zl        *zap.Logger
	logger    logging.Logger
	jwtSecret []byte
	health    *health.Server
}

// NewGRPCServer builds a server for address. An empty secretKey disables
// bearer token checks.
func NewGRPCServer(address string, zl *zap.Logger, authority Authority, secretKey string) *GRPCServer {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &GRPCServer{
		address:   address,
		authority: authority,
		zl:        zl,
		logger:    logging.NewZapLogger(zl).With("module", "grpc_server"),
		jwtSecret: []byte(secretKey),
		health:    health.NewServer(),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoverUnary(s.zl),
		LoggingUnary(s.zl),
		s.accessTokenInterceptor,
	))
	rpc.RegisterAuthorityServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	s.health.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv.Serve(lis)
}
