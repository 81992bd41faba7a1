package bridge

import (
	"context"
	"fmt"
	"sync"

	"conduit/internal/pubsub"
)

// InFlight tracks outstanding publish operations per (topic,
// partition). Registration happens as soon as the publish call
// returns; completion is observed only at the barrier wait.
type InFlight struct {
	mu  sync.Mutex
	ops map[TopicPartition][]*pubsub.Future
}

func NewInFlight() *InFlight {
	return &InFlight{ops: make(map[TopicPartition][]*pubsub.Future)}
}

func (f *InFlight) Register(tp TopicPartition, fut *pubsub.Future) {
	f.mu.Lock()
	f.ops[tp] = append(f.ops[tp], fut)
	f.mu.Unlock()
}

// Outstanding reports the number of unobserved operations for a key.
func (f *InFlight) Outstanding(tp TopicPartition) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops[tp])
}

// Wait blocks until every operation registered for the given keys has
// completed. Any single failure fails the wait as a whole and the
// registries are left untouched; on success the registries for exactly
// these keys are cleared. A key with no registered operations is a
// no-op. Cancellation surfaces as the ctx error.
func (f *InFlight) Wait(ctx context.Context, keys []TopicPartition) error {
	f.mu.Lock()
	waiting := make(map[TopicPartition][]*pubsub.Future, len(keys))
	for _, tp := range keys {
		if ops := f.ops[tp]; len(ops) > 0 {
			waiting[tp] = ops
		}
	}
	f.mu.Unlock()

	for tp, ops := range waiting {
		for _, fut := range ops {
			if err := fut.Wait(ctx); err != nil {
				return fmt.Errorf("publish for %s: %w", tp, err)
			}
		}
	}

	f.mu.Lock()
	for _, tp := range keys {
		delete(f.ops, tp)
	}
	f.mu.Unlock()
	return nil
}
