package bridge

import (
	"context"
	"fmt"
	"strconv"

	"conduit/internal/pubsub"
	"conduit/internal/telemetry"
)

// SinkConfig carries the publish-side options.
type SinkConfig struct {
	Topic                 string // fully qualified service topic
	MaxMessagesPerRequest int    // chunk size for one publish request
}

// Sink is the log → topic pipeline. Put and Flush are called from one
// driving goroutine; publish completions resolve elsewhere and are
// observed only inside InFlight.Wait.
type Sink struct {
	cfg      SinkConfig
	pub      pubsub.Publisher
	acc      *Accumulator
	inflight *InFlight
}

func NewSink(cfg SinkConfig, pub pubsub.Publisher, acc *Accumulator) *Sink {
	return &Sink{cfg: cfg, pub: pub, acc: acc, inflight: NewInFlight()}
}

// Put buffers records per source partition, dispatching any batch a
// threshold makes ready. A payload that is not raw bytes fails the
// whole call with a SchemaError; nothing before it is unbuffered.
func (s *Sink) Put(ctx context.Context, records []SinkRecord) error {
	for _, r := range records {
		value, ok := r.Value.([]byte)
		if !ok {
			return &SchemaError{Got: r.Value}
		}
		attrs := map[string]string{
			PartitionAttribute: strconv.FormatInt(int64(r.Partition), 10),
		}
		if r.Key != nil {
			attrs[KeyAttribute] = string(r.Key)
		}
		tp := TopicPartition{Topic: r.Topic, Partition: r.Partition}
		msg := pubsub.Message{Data: value, Attributes: attrs}
		s.dispatch(ctx, s.acc.Append(tp, msg))
	}
	return nil
}

// Flush is the commit barrier: drain everything still buffered, then
// wait for every outstanding publish on the partitions whose offsets
// are about to be committed. Only a nil return makes those offsets
// safe to report. Partitions that never buffered anything are no-ops.
func (s *Sink) Flush(ctx context.Context, offsets map[TopicPartition]int64) error {
	s.dispatch(ctx, s.acc.DrainAll())

	keys := make([]TopicPartition, 0, len(offsets))
	for tp := range offsets {
		keys = append(keys, tp)
	}
	if err := s.inflight.Wait(ctx, keys); err != nil {
		telemetry.PublishFailures.Inc()
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// dispatch chunks each ready batch into publish requests of at most
// MaxMessagesPerRequest messages, registering one in-flight operation
// per request.
func (s *Sink) dispatch(ctx context.Context, batches []Batch) {
	for _, b := range batches {
		for start := 0; start < len(b.Msgs); start += s.cfg.MaxMessagesPerRequest {
			end := min(start+s.cfg.MaxMessagesPerRequest, len(b.Msgs))
			fut := s.pub.Publish(ctx, s.cfg.Topic, b.Msgs[start:end])
			s.inflight.Register(b.Key, fut)
			telemetry.PublishBatches.Inc()
		}
	}
}
