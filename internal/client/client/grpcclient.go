package client

import (
	"context"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// GRPCClient is a RemoteAuthority backed by braindock-server.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.AuthorityClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, "Bearer "+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient prepares a lazy connection to endpointURL. No network I/O
// happens until the first call. An empty accessToken sends no credentials.
func NewGRPCClient(endpointURL, accessToken string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}
	conn, err := grpc.NewClient(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewAuthorityClient(conn)
	return c, nil
}

func (s *GRPCClient) Push(ctx context.Context, e models.Entry) (string, error) {
	resp, err := s.client.Push(ctx, &rpc.PushRequest{Entry: e})
	if err != nil {
		return "", rpc.FromStatus(err)
	}
	return resp.RemoteID, nil
}

func (s *GRPCClient) Read(ctx context.Context, id string) (*models.Entry, error) {
	resp, err := s.client.Read(ctx, &rpc.ReadRequest{ID: id})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return &resp.Entry, nil
}

func (s *GRPCClient) List(ctx context.Context, f models.Filter) ([]models.Entry, error) {
	resp, err := s.client.List(ctx, &rpc.ListRequest{Filter: f})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}
	return resp.Entries, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return rpc.FromStatus(err)
	}
	if resp.Status != "OK" {
		return common.ErrRemoteUnavailable
	}
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
