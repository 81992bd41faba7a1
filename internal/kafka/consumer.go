package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"conduit/internal/bridge"
	"conduit/internal/config"
	"conduit/internal/logging"
)

// SinkDriver drives the log → pub/sub direction: a consumer group
// whose claims feed the sink pipeline. Offsets are marked and
// committed only after the pipeline's flush barrier returns, so a
// committed offset always means the data is on the service.
type SinkDriver struct {
	cfg           config.Kafka
	sink          *bridge.Sink
	topics        []string
	flushInterval time.Duration
	maxUnflushed  int

	cl    sarama.Client
	group sarama.ConsumerGroup
}

func NewSinkDriver(cfg config.Kafka, ps config.SinkCfg, sink *bridge.Sink) (*SinkDriver, error) {
	sc, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.AutoCommit.Enable = false
	switch cfg.StartFrom {
	case "oldest":
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	cl, err := sarama.NewClient(cfg.Brokers, sc)
	if err != nil {
		return nil, err
	}
	group, err := sarama.NewConsumerGroupFromClient(cfg.GroupID, cl)
	if err != nil {
		_ = cl.Close()
		return nil, err
	}
	return &SinkDriver{
		cfg:           cfg,
		sink:          sink,
		topics:        ps.KafkaTopics,
		flushInterval: ps.FlushInterval,
		maxUnflushed:  ps.MaxUnflushed,
		cl:            cl,
		group:         group,
	}, nil
}

func (d *SinkDriver) Run(ctx context.Context) error {
	handler := &sinkHandler{driver: d}
	for {
		if err := d.group.Consume(ctx, d.topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (d *SinkDriver) Close() error {
	_ = d.group.Close()
	return d.cl.Close()
}

type sinkHandler struct {
	driver *SinkDriver
}

func (*sinkHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (*sinkHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *sinkHandler) ConsumeClaim(
	sess sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	offsets := make(map[bridge.TopicPartition]int64)
	unflushed := 0

	ticker := time.NewTicker(h.driver.flushInterval)
	defer ticker.Stop()

	flush := func() error {
		if len(offsets) == 0 {
			return nil
		}
		if err := h.driver.sink.Flush(sess.Context(), offsets); err != nil {
			// Committing now would mark undelivered records consumed.
			return err
		}
		for tp, next := range offsets {
			sess.MarkOffset(tp.Topic, tp.Partition, next, "")
		}
		sess.Commit()
		logging.L().Debug("committed", "partitions", len(offsets), "records", unflushed)
		offsets = make(map[bridge.TopicPartition]int64)
		unflushed = 0
		return nil
	}

	for {
		select {
		case <-sess.Context().Done():
			return sess.Context().Err()

		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}

		case msg, ok := <-claim.Messages():
			if !ok {
				return flush()
			}
			rec := bridge.SinkRecord{
				Topic:     msg.Topic,
				Partition: msg.Partition,
				Offset:    msg.Offset,
				Key:       msg.Key,
				Value:     msg.Value,
			}
			if err := h.driver.sink.Put(sess.Context(), []bridge.SinkRecord{rec}); err != nil {
				return err
			}
			offsets[bridge.TopicPartition{Topic: msg.Topic, Partition: msg.Partition}] = msg.Offset + 1
			unflushed++
			if unflushed >= h.driver.maxUnflushed {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
}
