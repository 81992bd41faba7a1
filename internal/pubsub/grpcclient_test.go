package pubsub

import (
	"context"
	"net"
	"sync"
	"testing"

	"cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type fakeSubscriberServer struct {
	pubsubpb.UnimplementedSubscriberServer

	mu      sync.Mutex
	pullRes *pubsubpb.PullResponse
	ackErr  error
	acked   []string
}

func (s *fakeSubscriberServer) Pull(_ context.Context, req *pubsubpb.PullRequest) (*pubsubpb.PullResponse, error) {
	if req.Subscription == "" || req.MaxMessages < 1 {
		return nil, status.Error(codes.InvalidArgument, "bad pull request")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pullRes == nil {
		return &pubsubpb.PullResponse{}, nil
	}
	return s.pullRes, nil
}

func (s *fakeSubscriberServer) Acknowledge(_ context.Context, req *pubsubpb.AcknowledgeRequest) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ackErr != nil {
		return nil, s.ackErr
	}
	s.acked = append(s.acked, req.AckIds...)
	return &emptypb.Empty{}, nil
}

type fakePublisherServer struct {
	pubsubpb.UnimplementedPublisherServer

	mu        sync.Mutex
	published []*pubsubpb.PublishRequest
}

func (s *fakePublisherServer) Publish(_ context.Context, req *pubsubpb.PublishRequest) (*pubsubpb.PublishResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, req)
	ids := make([]string, len(req.Messages))
	for i := range ids {
		ids[i] = "id"
	}
	return &pubsubpb.PublishResponse{MessageIds: ids}, nil
}

func newTestGRPCClient(t *testing.T, sub *fakeSubscriberServer, pub *fakePublisherServer) *GRPCClient {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := grpc.NewServer()
	pubsubpb.RegisterSubscriberServer(srv, sub)
	pubsubpb.RegisterPublisherServer(srv, pub)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c := NewGRPCClient()
	if err := c.Configure(Options{Endpoint: lis.Addr().String(), Project: "p"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_Pull(t *testing.T) {
	sub := &fakeSubscriberServer{pullRes: &pubsubpb.PullResponse{
		ReceivedMessages: []*pubsubpb.ReceivedMessage{{
			AckId: "ack-1",
			Message: &pubsubpb.PubsubMessage{
				Data:       []byte("payload"),
				Attributes: map[string]string{"key": "k"},
			},
		}},
	}}
	c := newTestGRPCClient(t, sub, &fakePublisherServer{})

	msgs, err := c.Pull(context.Background(), "projects/p/subscriptions/s", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].AckID != "ack-1" || string(msgs[0].Data) != "payload" {
		t.Fatalf("pulled %+v", msgs)
	}
	if msgs[0].Attributes["key"] != "k" {
		t.Fatalf("attributes = %v", msgs[0].Attributes)
	}
}

func TestGRPCClient_AcknowledgeResolvesFuture(t *testing.T) {
	sub := &fakeSubscriberServer{}
	c := newTestGRPCClient(t, sub, &fakePublisherServer{})

	fut := c.Acknowledge(context.Background(), "projects/p/subscriptions/s", []string{"a", "b"})
	if err := fut.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.acked) != 2 {
		t.Fatalf("server saw %v", sub.acked)
	}
}

func TestGRPCClient_AcknowledgeFailureResolvesError(t *testing.T) {
	sub := &fakeSubscriberServer{ackErr: status.Error(codes.Unavailable, "backend down")}
	c := newTestGRPCClient(t, sub, &fakePublisherServer{})

	fut := c.Acknowledge(context.Background(), "projects/p/subscriptions/s", []string{"a"})
	if err := fut.Wait(context.Background()); err == nil {
		t.Fatal("expected ack failure to resolve the future with an error")
	}
}

func TestGRPCClient_Publish(t *testing.T) {
	pub := &fakePublisherServer{}
	c := newTestGRPCClient(t, &fakeSubscriberServer{}, pub)

	fut := c.Publish(context.Background(), "projects/p/topics/out", []Message{
		{Data: []byte("hello"), Attributes: map[string]string{"partition": "3"}},
	})
	if err := fut.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.published) != 1 || len(pub.published[0].Messages) != 1 {
		t.Fatalf("server saw %v", pub.published)
	}
	got := pub.published[0].Messages[0]
	if string(got.Data) != "hello" || got.Attributes["partition"] != "3" {
		t.Fatalf("message = %+v", got)
	}
}

func TestGRPCClient_ConfigureRequiresEndpoint(t *testing.T) {
	if err := NewGRPCClient().Configure(Options{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
