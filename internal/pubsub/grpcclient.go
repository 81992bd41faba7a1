package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCClient talks to the service's native gRPC API using its
// published proto stubs. Like the HTTP driver it runs unauthenticated
// against a local emulator endpoint; auth in front of the real service
// is handled outside this process.
type GRPCClient struct {
	opts Options
	conn *grpc.ClientConn
	sub  pubsubpb.SubscriberClient
	pub  pubsubpb.PublisherClient
}

func NewGRPCClient() *GRPCClient { return &GRPCClient{} }

func (c *GRPCClient) Configure(opts Options) error {
	if opts.Endpoint == "" {
		return fmt.Errorf("pubsub-grpc: endpoint not set")
	}
	conn, err := grpc.NewClient(opts.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("pubsub-grpc: dial %s: %w", opts.Endpoint, err)
	}
	c.opts = opts
	c.conn = conn
	c.sub = pubsubpb.NewSubscriberClient(conn)
	c.pub = pubsubpb.NewPublisherClient(conn)
	return nil
}

func (c *GRPCClient) Pull(ctx context.Context, subscription string, maxMessages int) ([]ReceivedMessage, error) {
	resp, err := c.sub.Pull(ctx, &pubsubpb.PullRequest{
		Subscription: subscription,
		MaxMessages:  int32(maxMessages),
	})
	if err != nil {
		return nil, fmt.Errorf("pubsub-grpc: pull: %w", err)
	}
	out := make([]ReceivedMessage, 0, len(resp.ReceivedMessages))
	for _, rm := range resp.ReceivedMessages {
		out = append(out, ReceivedMessage{
			Message: Message{Data: rm.Message.Data, Attributes: rm.Message.Attributes},
			AckID:   rm.AckId,
		})
	}
	return out, nil
}

func (c *GRPCClient) Acknowledge(ctx context.Context, subscription string, ackIDs []string) *Future {
	fut := NewFuture()
	go func() {
		_, err := c.sub.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
			Subscription: subscription,
			AckIds:       ackIDs,
		})
		fut.Resolve(err)
	}()
	return fut
}

func (c *GRPCClient) Publish(ctx context.Context, topic string, msgs []Message) *Future {
	req := &pubsubpb.PublishRequest{
		Topic:    topic,
		Messages: make([]*pubsubpb.PubsubMessage, len(msgs)),
	}
	for i, m := range msgs {
		req.Messages[i] = &pubsubpb.PubsubMessage{Data: m.Data, Attributes: m.Attributes}
	}
	fut := NewFuture()
	go func() {
		_, err := c.pub.Publish(ctx, req)
		fut.Resolve(err)
	}()
	return fut
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
