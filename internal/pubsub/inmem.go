package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMem is an in-process emulator used for local runs and tests. A
// subscription receives every message published to the topic it is
// attached to; unacked messages are redelivered with the same ack ID
// once the ack deadline passes.
type InMem struct {
	opts Options

	mu     sync.Mutex
	cond   *sync.Cond
	subs   map[string]*inmemSub
	topics map[string][]string // topic -> attached subscriptions
	closed bool
}

type inmemSub struct {
	queue []*inmemEntry
}

type inmemEntry struct {
	msg         Message
	ackID       string
	deliveredAt time.Time
	outstanding bool
}

func NewInMem() *InMem {
	m := &InMem{
		subs:   make(map[string]*inmemSub),
		topics: make(map[string][]string),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *InMem) Configure(opts Options) error {
	if opts.AckDeadline <= 0 {
		opts.AckDeadline = 10
	}
	m.opts = opts
	return nil
}

// Attach binds a subscription to a topic, creating both as needed.
func (m *InMem) Attach(topic, subscription string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[subscription]; !ok {
		m.subs[subscription] = &inmemSub{}
	}
	m.topics[topic] = append(m.topics[topic], subscription)
}

func (m *InMem) Pull(ctx context.Context, subscription string, maxMessages int) ([]ReceivedMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[subscription]
	if !ok {
		return nil, fmt.Errorf("pubsub-inmem: unknown subscription %q", subscription)
	}

	stop := context.AfterFunc(ctx, m.cond.Broadcast)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m.closed {
			return nil, fmt.Errorf("pubsub-inmem: closed")
		}
		out := m.deliverableLocked(sub, maxMessages)
		if len(out) > 0 {
			return out, nil
		}
		m.cond.Wait()
	}
}

// deliverableLocked collects pending entries plus outstanding entries
// whose deadline has lapsed, marking each as delivered now.
func (m *InMem) deliverableLocked(sub *inmemSub, max int) []ReceivedMessage {
	deadline := time.Duration(m.opts.AckDeadline) * time.Second
	now := time.Now()
	var out []ReceivedMessage
	for _, e := range sub.queue {
		if len(out) >= max {
			break
		}
		if e.outstanding && now.Sub(e.deliveredAt) < deadline {
			continue
		}
		e.outstanding = true
		e.deliveredAt = now
		out = append(out, ReceivedMessage{Message: e.msg, AckID: e.ackID})
	}
	return out
}

func (m *InMem) Acknowledge(ctx context.Context, subscription string, ackIDs []string) *Future {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[subscription]
	if !ok {
		return Resolved(fmt.Errorf("pubsub-inmem: unknown subscription %q", subscription))
	}
	acked := make(map[string]struct{}, len(ackIDs))
	for _, id := range ackIDs {
		acked[id] = struct{}{}
	}
	kept := sub.queue[:0]
	for _, e := range sub.queue {
		if _, ok := acked[e.ackID]; !ok {
			kept = append(kept, e)
		}
	}
	sub.queue = kept
	return Resolved(nil)
}

func (m *InMem) Publish(ctx context.Context, topic string, msgs []Message) *Future {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.topics[topic] {
		sub := m.subs[name]
		for _, msg := range msgs {
			sub.queue = append(sub.queue, &inmemEntry{msg: msg, ackID: uuid.NewString()})
		}
	}
	m.cond.Broadcast()
	return Resolved(nil)
}

func (m *InMem) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
	return nil
}
