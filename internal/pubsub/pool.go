package pubsub

import (
	"context"
	"sync/atomic"
)

// Pool spreads pull/ack/publish calls round-robin over a fixed set of
// clients.
type Pool struct {
	clients []Client
	cursor  atomic.Uint64
}

// NewPool builds n clients of the named driver. n < 1 is treated as 1.
func NewPool(driver string, n int) (*Pool, error) {
	if n < 1 {
		n = 1
	}
	p := &Pool{clients: make([]Client, n)}
	for i := range p.clients {
		c, err := NewClient(driver)
		if err != nil {
			return nil, err
		}
		p.clients[i] = c
	}
	return p, nil
}

func (p *Pool) Configure(opts Options) error {
	for _, c := range p.clients {
		if err := c.Configure(opts); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) next() Client {
	i := p.cursor.Add(1) - 1
	return p.clients[i%uint64(len(p.clients))]
}

func (p *Pool) Pull(ctx context.Context, subscription string, maxMessages int) ([]ReceivedMessage, error) {
	return p.next().Pull(ctx, subscription, maxMessages)
}

func (p *Pool) Acknowledge(ctx context.Context, subscription string, ackIDs []string) *Future {
	return p.next().Acknowledge(ctx, subscription, ackIDs)
}

func (p *Pool) Publish(ctx context.Context, topic string, msgs []Message) *Future {
	return p.next().Publish(ctx, topic, msgs)
}

func (p *Pool) Close() error {
	var firstErr error
	for _, c := range p.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
