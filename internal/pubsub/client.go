package pubsub

import (
	"context"
	"fmt"
)

// Subscriber pulls messages from a subscription and redeems their ack
// handles. Acknowledge is asynchronous: the returned future resolves
// when the service has accepted (or rejected) the whole batch.
type Subscriber interface {
	Pull(ctx context.Context, subscription string, maxMessages int) ([]ReceivedMessage, error)
	Acknowledge(ctx context.Context, subscription string, ackIDs []string) *Future
}

// Publisher publishes one batch per call. The returned future resolves
// when the whole batch is durable on the service; a single failed
// message fails the batch.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs []Message) *Future
}

// Client is the full pub/sub surface a driver exposes.
type Client interface {
	Configure(Options) error
	Subscriber
	Publisher
	Close() error
}

// Options is the transport-level configuration shared by all drivers.
type Options struct {
	Endpoint    string
	Project     string
	AckDeadline int // seconds before an unacked message is redelivered
}

/*──────── registry ───────*/

type Factory func() Client

var registry = map[string]Factory{}

// Register is called from each driver's init() or from main.
func Register(name string, f Factory) { registry[name] = f }

// NewClient returns a driver by name ("http", "inmem", …).
func NewClient(name string) (Client, error) {
	if f, ok := registry[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("pubsub: unsupported driver %q", name)
}
