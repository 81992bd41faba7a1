package kafka

import (
	"context"

	"github.com/IBM/sarama"

	"conduit/internal/bridge"
	"conduit/internal/config"
	"conduit/internal/logging"
)

// SourceDriver drives the pub/sub → log direction: Poll the source
// pipeline, produce its records durably, repeat. The producer is
// synchronous with full acks so a record is on the log before the next
// cycle submits the ack batch that covers it.
type SourceDriver struct {
	src  *bridge.Source
	prod sarama.SyncProducer
}

func NewSourceDriver(cfg config.Kafka, src *bridge.Source) (*SourceDriver, error) {
	sc, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Return.Successes = true
	sc.Producer.Partitioner = sarama.NewManualPartitioner

	prod, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, err
	}
	return &SourceDriver{src: src, prod: prod}, nil
}

func (d *SourceDriver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := d.src.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Fatal for this cycle only; the loop is the retry.
			logging.L().Error("poll failed", "err", err)
			continue
		}
		if len(records) == 0 {
			continue
		}
		if err := d.prod.SendMessages(toProducerMessages(records)); err != nil {
			// Records are tracked as pending acks; acking them without a
			// durable produce would lose data, so the driver dies and the
			// service redelivers after the ack deadline.
			return err
		}
		logging.L().Debug("produced", "count", len(records), "pending_acks", d.src.Pending())
	}
}

func (d *SourceDriver) Close() error {
	return d.prod.Close()
}

func toProducerMessages(records []bridge.SourceRecord) []*sarama.ProducerMessage {
	msgs := make([]*sarama.ProducerMessage, len(records))
	for i, r := range records {
		m := &sarama.ProducerMessage{
			Topic:     r.Topic,
			Partition: r.Partition,
			Value:     sarama.ByteEncoder(r.Value),
		}
		if r.Key != nil {
			m.Key = sarama.ByteEncoder(r.Key)
		}
		msgs[i] = m
	}
	return msgs
}
