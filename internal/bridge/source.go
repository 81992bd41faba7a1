package bridge

import (
	"context"
	"fmt"

	"conduit/internal/logging"
	"conduit/internal/pubsub"
	"conduit/internal/telemetry"
)

// SourceConfig carries the pull-side routing options.
type SourceConfig struct {
	Subscription string // fully qualified subscription name
	Topic        string // target log topic
	KeyAttribute string // message attribute used as the record key
	MaxBatchSize int    // max messages per pull
}

// Source is the subscription → log pipeline. One goroutine drives
// Poll; ack completions resolve on their own goroutine and meet the
// driving goroutine inside the tracker.
type Source struct {
	cfg      SourceConfig
	sub      pubsub.Subscriber
	tracker  *AckTracker
	selector *Selector
}

func NewSource(cfg SourceConfig, sub pubsub.Subscriber, sel *Selector) *Source {
	return &Source{cfg: cfg, sub: sub, tracker: NewAckTracker(), selector: sel}
}

// Poll runs one cycle: submit the batched ack for everything still
// pending, pull a fresh batch, drop redeliveries, and emit the rest.
// A pull error is fatal for this cycle only; the caller decides
// whether to call again. Cancellation during the blocking pull comes
// back as a wrapped ctx error, never swallowed.
func (s *Source) Poll(ctx context.Context) ([]SourceRecord, error) {
	s.ackPending(ctx)

	msgs, err := s.sub.Pull(ctx, s.cfg.Subscription, s.cfg.MaxBatchSize)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("pull interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("pull %s: %w", s.cfg.Subscription, err)
	}
	telemetry.MessagesPulled.Add(float64(len(msgs)))

	records := make([]SourceRecord, 0, len(msgs))
	for _, rm := range msgs {
		if !s.tracker.TrackIfNew(rm.AckID) {
			// Redelivered while its ack is unresolved; already emitted.
			telemetry.DuplicatesDropped.Inc()
			continue
		}
		var key []byte
		if v, ok := rm.Attributes[s.cfg.KeyAttribute]; ok {
			key = []byte(v)
		}
		records = append(records, SourceRecord{
			Topic:     s.cfg.Topic,
			Partition: s.selector.Select(key, rm.Data),
			Key:       key,
			Value:     rm.Data,
		})
	}
	return records, nil
}

// Pending reports the number of unresolved ack handles.
func (s *Source) Pending() int { return s.tracker.Len() }

// ackPending submits one ack call covering every unresolved handle.
// Submission is fire-and-forget for the poll cycle; the completion
// goroutine clears exactly the snapshotted handles on success and
// leaves them for the next cycle on failure.
func (s *Source) ackPending(ctx context.Context) {
	ids := s.tracker.Snapshot()
	if len(ids) == 0 {
		return
	}
	fut := s.sub.Acknowledge(ctx, s.cfg.Subscription, ids)
	go func() {
		if err := fut.Wait(ctx); err != nil {
			telemetry.AckRetries.Inc()
			logging.L().Error("ack failed; handles retried next poll",
				"subscription", s.cfg.Subscription, "count", len(ids), "err", err)
			return
		}
		s.tracker.Resolve(ids)
		telemetry.MessagesAcked.Add(float64(len(ids)))
	}()
}
