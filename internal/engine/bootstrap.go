package engine

import (
	"fmt"

	"conduit/internal/bridge"
	"conduit/internal/config"
	"conduit/internal/kafka"
	"conduit/internal/pubsub"
	"conduit/internal/telemetry"
)

// Config selects the spec file and port overrides for one process.
type Config struct {
	BridgeYml   string
	MetricsPort int
}

// Bootstrap wires the configured directions into runnable drivers.
func Bootstrap(cfg Config) (*Engine, error) {
	specFile, err := config.LoadBridgeSpec(cfg.BridgeYml)
	if err != nil {
		return nil, fmt.Errorf("spec: %w", err)
	}
	// Pool slots are independent clients; pooled inmem instances would
	// hold disjoint queues and the loopback below could never fire.
	if specFile.PubSub.Driver == "inmem" && specFile.PubSub.PoolSize > 1 {
		return nil, fmt.Errorf("pubsub: the inmem driver keeps per-instance state and cannot be pooled (pool_size %d)", specFile.PubSub.PoolSize)
	}

	ps, err := config.LoadPubSub(specFile.PubSub.Config)
	if err != nil {
		return nil, fmt.Errorf("pubsub config: %w", err)
	}
	kc, err := config.LoadKafka(specFile.Kafka.Config)
	if err != nil {
		return nil, fmt.Errorf("kafka config: %w", err)
	}

	client, err := newClient(specFile.PubSub.Driver, specFile.PubSub.PoolSize, pubsub.Options{
		Endpoint:    ps.Endpoint,
		Project:     ps.Project,
		AckDeadline: ps.AckDeadline,
	})
	if err != nil {
		return nil, err
	}

	// Loopback wiring for the in-process emulator: the sink's topic
	// feeds the source's subscription.
	if m, ok := client.(*pubsub.InMem); ok && ps.Sink.Topic != "" && ps.Source.Subscription != "" {
		m.Attach(
			pubsub.TopicPath(ps.Project, ps.Sink.Topic),
			pubsub.SubscriptionPath(ps.Project, ps.Source.Subscription),
		)
	}

	e := &Engine{client: client}
	for _, dir := range specFile.Directions {
		switch dir {
		case "source":
			drv, err := sourceDriver(ps, kc, client)
			if err != nil {
				e.Close()
				return nil, fmt.Errorf("source: %w", err)
			}
			e.drivers = append(e.drivers, drv)
		case "sink":
			drv, err := sinkDriver(ps, kc, client)
			if err != nil {
				e.Close()
				return nil, fmt.Errorf("sink: %w", err)
			}
			e.drivers = append(e.drivers, drv)
		}
	}

	port := specFile.MetricsPort
	if cfg.MetricsPort != 0 {
		port = cfg.MetricsPort
	}
	if port != 0 {
		telemetry.Expose(port)
	}
	return e, nil
}

func newClient(driver string, poolSize int, opts pubsub.Options) (pubsub.Client, error) {
	var (
		c   pubsub.Client
		err error
	)
	if poolSize > 1 {
		c, err = pubsub.NewPool(driver, poolSize)
	} else {
		c, err = pubsub.NewClient(driver)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Configure(opts); err != nil {
		return nil, err
	}
	return c, nil
}

func sourceDriver(ps config.PubSub, kc config.Kafka, client pubsub.Client) (Driver, error) {
	scheme, err := bridge.ParseScheme(ps.Source.Scheme)
	if err != nil {
		return nil, err
	}
	sel, err := bridge.NewSelector(scheme, ps.Source.Partitions)
	if err != nil {
		return nil, err
	}
	src := bridge.NewSource(bridge.SourceConfig{
		Subscription: pubsub.SubscriptionPath(ps.Project, ps.Source.Subscription),
		Topic:        ps.Source.KafkaTopic,
		KeyAttribute: ps.Source.KeyAttribute,
		MaxBatchSize: ps.Source.MaxBatchSize,
	}, client, sel)
	return kafka.NewSourceDriver(kc, src)
}

func sinkDriver(ps config.PubSub, kc config.Kafka, client pubsub.Client) (Driver, error) {
	acc := bridge.NewAccumulator(ps.Sink.MinBatchSize, ps.Sink.MaxRequestBytes)
	sink := bridge.NewSink(bridge.SinkConfig{
		Topic:                 pubsub.TopicPath(ps.Project, ps.Sink.Topic),
		MaxMessagesPerRequest: ps.Sink.MaxMessagesPerRequest,
	}, client, acc)
	return kafka.NewSinkDriver(kc, ps.Sink, sink)
}
