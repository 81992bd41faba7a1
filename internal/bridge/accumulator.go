package bridge

import (
	"sync"

	"conduit/internal/pubsub"
)

// Batch is one bucket's worth of messages ready for dispatch.
type Batch struct {
	Key  TopicPartition
	Msgs []pubsub.Message
}

// Accumulator buffers outbound messages per (topic, partition) until a
// count or byte threshold makes the bucket ready. One flat map keyed by
// TopicPartition avoids the lookup-or-create races of nested
// per-topic/per-partition maps.
type Accumulator struct {
	minBatch int
	maxBytes int

	mu      sync.Mutex
	buckets map[TopicPartition]*bucket
}

type bucket struct {
	msgs []pubsub.Message
	size int // sum of Size() over msgs
}

func NewAccumulator(minBatch, maxBytes int) *Accumulator {
	return &Accumulator{
		minBatch: minBatch,
		maxBytes: maxBytes,
		buckets:  make(map[TopicPartition]*bucket),
	}
}

// Append adds one message to its bucket and returns the batches that
// became ready, in dispatch order:
//
//   - if the message would push the bucket past the byte limit, the
//     buffered messages dispatch first and the message starts a fresh
//     bucket;
//   - a message that alone exceeds the byte limit dispatches as its own
//     one-message batch, never split;
//   - a bucket reaching minBatch messages dispatches.
func (a *Accumulator) Append(tp TopicPartition, msg pubsub.Message) []Batch {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.buckets[tp]
	if !ok {
		b = &bucket{}
		a.buckets[tp] = b
	}

	var ready []Batch
	sz := msg.Size()

	if sz > a.maxBytes {
		if len(b.msgs) > 0 {
			ready = append(ready, takeBatch(tp, b))
		}
		return append(ready, Batch{Key: tp, Msgs: []pubsub.Message{msg}})
	}

	if b.size+sz > a.maxBytes && len(b.msgs) > 0 {
		ready = append(ready, takeBatch(tp, b))
	}
	b.msgs = append(b.msgs, msg)
	b.size += sz

	if len(b.msgs) >= a.minBatch {
		ready = append(ready, takeBatch(tp, b))
	}
	return ready
}

// DrainAll dispatches every non-empty bucket regardless of thresholds.
// Called at the flush barrier and on shutdown.
func (a *Accumulator) DrainAll() []Batch {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Batch
	for tp, b := range a.buckets {
		if len(b.msgs) > 0 {
			out = append(out, takeBatch(tp, b))
		}
	}
	return out
}

// Pending reports the buffered message count for one bucket.
func (a *Accumulator) Pending(tp TopicPartition) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.buckets[tp]; ok {
		return len(b.msgs)
	}
	return 0
}

func takeBatch(tp TopicPartition, b *bucket) Batch {
	out := Batch{Key: tp, Msgs: b.msgs}
	b.msgs = nil
	b.size = 0
	return out
}
