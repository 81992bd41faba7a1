package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"conduit/internal/pubsub"
)

type fakeSubscriber struct {
	mu      sync.Mutex
	batches [][]pubsub.ReceivedMessage
	pullErr error
	ackFut  *pubsub.Future
	acked   [][]string
}

func (f *fakeSubscriber) Pull(ctx context.Context, _ string, _ int) ([]pubsub.ReceivedMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeSubscriber) Acknowledge(_ context.Context, _ string, ackIDs []string) *pubsub.Future {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ackIDs)
	if f.ackFut != nil {
		return f.ackFut
	}
	return pubsub.Resolved(nil)
}

func (f *fakeSubscriber) ackCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string{}, f.acked...)
}

func received(ackID, data string, attrs map[string]string) pubsub.ReceivedMessage {
	return pubsub.ReceivedMessage{
		Message: pubsub.Message{Data: []byte(data), Attributes: attrs},
		AckID:   ackID,
	}
}

func newTestSource(sub pubsub.Subscriber) *Source {
	sel, _ := NewSelector(SchemeRoundRobin, 3)
	return NewSource(SourceConfig{
		Subscription: "projects/p/subscriptions/s",
		Topic:        "events",
		KeyAttribute: "key",
		MaxBatchSize: 100,
	}, sub, sel)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSource_EmitsRecordsWithKeyAndPartition(t *testing.T) {
	sub := &fakeSubscriber{batches: [][]pubsub.ReceivedMessage{{
		received("a1", "v1", map[string]string{"key": "k1"}),
		received("a2", "v2", nil),
	}}}
	src := newTestSource(sub)

	recs, err := src.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("emitted %d records, want 2", len(recs))
	}
	if string(recs[0].Key) != "k1" || recs[0].Topic != "events" || string(recs[0].Value) != "v1" {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].Key != nil {
		t.Fatalf("absent key attribute must give nil key, got %q", recs[1].Key)
	}
	// Round robin from cursor -1.
	if recs[0].Partition != 0 || recs[1].Partition != 1 {
		t.Fatalf("partitions = %d,%d, want 0,1", recs[0].Partition, recs[1].Partition)
	}
}

func TestSource_DedupesRedeliveryWhileAckUnresolved(t *testing.T) {
	msg := received("dup-id", "v", nil)
	sub := &fakeSubscriber{
		batches: [][]pubsub.ReceivedMessage{{msg}, {msg}},
		ackFut:  pubsub.NewFuture(), // ack never resolves
	}
	src := newTestSource(sub)

	first, err := src.Poll(context.Background())
	if err != nil || len(first) != 1 {
		t.Fatalf("first poll = %d records, err %v; want 1 record", len(first), err)
	}
	second, err := src.Poll(context.Background())
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("redelivery emitted %d records, want 0", len(second))
	}
}

func TestSource_AckFailureRetriesSameHandles(t *testing.T) {
	failed := pubsub.Resolved(errors.New("ack backend down"))
	sub := &fakeSubscriber{
		batches: [][]pubsub.ReceivedMessage{{received("a1", "v", nil)}},
		ackFut:  failed,
	}
	src := newTestSource(sub)

	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Failed ack: the handle stays pending and is resubmitted each cycle.
	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	calls := sub.ackCalls()
	if len(calls) != 1 || len(calls[0]) != 1 || calls[0][0] != "a1" {
		t.Fatalf("ack calls = %v, want one call with [a1]", calls)
	}
	if src.Pending() != 1 {
		t.Fatalf("pending = %d, want 1 after failed ack", src.Pending())
	}

	// Backend recovers: next cycle's ack succeeds and clears the handle.
	sub.mu.Lock()
	sub.ackFut = nil
	sub.mu.Unlock()
	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "pending acks to clear", func() bool { return src.Pending() == 0 })
}

func TestSource_AckedHandleCanBeEmittedAgain(t *testing.T) {
	msg := received("a1", "v", nil)
	sub := &fakeSubscriber{batches: [][]pubsub.ReceivedMessage{{msg}, nil, {msg}}}
	src := newTestSource(sub)

	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "ack to resolve", func() bool { return src.Pending() == 0 })

	recs, err := src.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("post-ack redelivery emitted %d records, want 1", len(recs))
	}
}

func TestSource_PullErrorSurfaces(t *testing.T) {
	sub := &fakeSubscriber{pullErr: errors.New("transport broken")}
	src := newTestSource(sub)
	if _, err := src.Poll(context.Background()); err == nil {
		t.Fatal("Poll should surface the pull error")
	}
}

func TestSource_CancellationIsDistinguishable(t *testing.T) {
	sub := &fakeSubscriber{}
	src := newTestSource(sub)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Poll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Poll = %v, want a wrapped context.Canceled", err)
	}
}
