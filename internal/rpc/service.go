package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "braindock.v1.Authority"

const (
	PushFullMethodName = "/" + ServiceName + "/Push"
	ReadFullMethodName = "/" + ServiceName + "/Read"
	ListFullMethodName = "/" + ServiceName + "/List"
	PingFullMethodName = "/" + ServiceName + "/Ping"
)

// AuthorityServer is implemented by the remote durable store.
type AuthorityServer interface {
	Push(context.Context, *PushRequest) (*PushResponse, error)
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// AuthorityClient is the client stub of AuthorityServer.
type AuthorityClient interface {
	Push(ctx context.Context, in *PushRequest, opts ...grpc.CallOption) (*PushResponse, error)
	Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type authorityClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthorityClient(cc grpc.ClientConnInterface) AuthorityClient {
	return &authorityClient{cc: cc}
}

func (c *authorityClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *authorityClient) Push(ctx context.Context, in *PushRequest, opts ...grpc.CallOption) (*PushResponse, error) {
	out := new(PushResponse)
	if err := c.invoke(ctx, PushFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authorityClient) Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error) {
	out := new(ReadResponse)
	if err := c.invoke(ctx, ReadFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authorityClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	out := new(ListResponse)
	if err := c.invoke(ctx, ListFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authorityClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.invoke(ctx, PingFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterAuthorityServer attaches srv to s.
func RegisterAuthorityServer(s grpc.ServiceRegistrar, srv AuthorityServer) {
	s.RegisterService(&AuthorityServiceDesc, srv)
}

// unaryHandler adapts one typed AuthorityServer method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(AuthorityServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthorityServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthorityServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AuthorityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthorityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Push", Handler: unaryHandler(PushFullMethodName, AuthorityServer.Push)},
		{MethodName: "Read", Handler: unaryHandler(ReadFullMethodName, AuthorityServer.Read)},
		{MethodName: "List", Handler: unaryHandler(ListFullMethodName, AuthorityServer.List)},
		{MethodName: "Ping", Handler: unaryHandler(PingFullMethodName, AuthorityServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "braindock/v1/authority",
}
