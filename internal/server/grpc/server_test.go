package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/lww"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/rpc"
	"github.com/dmitrijs2005/braindock/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeAuthority struct {
	stored  map[string]models.Entry
	pingErr error
	pushErr error
}

func (f *fakeAuthority) Push(_ context.Context, e models.Entry) (string, lww.Outcome, error) {
	if f.pushErr != nil {
		return "", lww.KeepLocal, f.pushErr
	}
	if cur, ok := f.stored[e.ID]; ok {
		return cur.RemoteID, lww.Decide(cur, e), nil
	}
	e.RemoteID = "r-" + e.ID
	f.stored[e.ID] = e
	return e.RemoteID, lww.TakeIncoming, nil
}

func (f *fakeAuthority) Read(_ context.Context, id string) (*models.Entry, error) {
	e, ok := f.stored[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &e, nil
}

func (f *fakeAuthority) List(_ context.Context, flt models.Filter) ([]models.Entry, error) {
	out := make([]models.Entry, 0, len(f.stored))
	for _, e := range f.stored {
		out = append(out, e)
	}
	return flt.Apply(out, 100), nil
}

func (f *fakeAuthority) Ping(context.Context) error { return f.pingErr }

func sample() models.Entry {
	ts := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	return models.Entry{
		ID:          "0190f3a0-0000-7000-8000-0000000000bb",
		Type:        models.EntryTypeThought,
		Title:       "t",
		Tags:        []string{"x"},
		OccurredAt:  ts,
		Sensitivity: models.SensitivityPublic,
		Payload:     models.ThoughtPayload{Note: "n"},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func startServer(t *testing.T, fake *fakeAuthority, secret string) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("bufnet", nil, fake, secret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_PushReadList(t *testing.T) {
	fake := &fakeAuthority{stored: map[string]models.Entry{}}
	c := rpc.NewAuthorityClient(startServer(t, fake, ""))
	ctx := context.Background()

	resp, err := c.Push(ctx, &rpc.PushRequest{Entry: sample()})
	require.NoError(t, err)
	assert.Equal(t, "r-"+sample().ID, resp.RemoteID)
	assert.Equal(t, "take_incoming", resp.Outcome)

	replay, err := c.Push(ctx, &rpc.PushRequest{Entry: sample()})
	require.NoError(t, err)
	assert.Equal(t, resp.RemoteID, replay.RemoteID)
	assert.Equal(t, "same", replay.Outcome)

	read, err := c.Read(ctx, &rpc.ReadRequest{ID: sample().ID})
	require.NoError(t, err)
	assert.Equal(t, "t", read.Entry.Title)

	list, err := c.List(ctx, &rpc.ListRequest{Filter: models.Filter{Tags: []string{"x"}}})
	require.NoError(t, err)
	assert.Len(t, list.Entries, 1)
}

func TestServer_ErrorMapping(t *testing.T) {
	fake := &fakeAuthority{stored: map[string]models.Entry{}}
	c := rpc.NewAuthorityClient(startServer(t, fake, ""))
	ctx := context.Background()

	_, err := c.Read(ctx, &rpc.ReadRequest{ID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	fake.pushErr = common.Invalid("title", "too long")
	_, err = c.Push(ctx, &rpc.PushRequest{Entry: sample()})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.ErrorIs(t, rpc.FromStatus(err), common.ErrValidation)

	fake.pushErr = errors.New("pool exhausted")
	_, err = c.Push(ctx, &rpc.PushRequest{Entry: sample()})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, "internal error", status.Convert(err).Message())
}

func TestServer_PingAndHealth(t *testing.T) {
	fake := &fakeAuthority{stored: map[string]models.Entry{}}
	conn := startServer(t, fake, "secret")
	ctx := context.Background()

	hc := healthpb.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		r, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: rpc.ServiceName})
		return err == nil && r.Status == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	c := rpc.NewAuthorityClient(conn)
	_, err := c.Ping(ctx, &rpc.PingRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	tok, err := auth.GenerateToken("cli", []byte("secret"), time.Hour)
	require.NoError(t, err)
	authed := metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, "Bearer "+tok)

	pong, err := c.Ping(authed, &rpc.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)

	fake.pingErr = errors.New("db down")
	_, err = c.Ping(authed, &rpc.PingRequest{})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	s := NewGRPCServer("127.0.0.1:99999", nil, &fakeAuthority{}, "")
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected listen error for invalid port")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	s := NewGRPCServer("127.0.0.1:0", nil, &fakeAuthority{}, "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}
