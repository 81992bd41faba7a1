package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SourceCfg configures the subscription → log direction.
type SourceCfg struct {
	Subscription string `koanf:"subscription"`
	KafkaTopic   string `koanf:"kafka_topic"`
	Partitions   int32  `koanf:"kafka_partitions"`
	Scheme       string `koanf:"partition_scheme"` // round_robin|hash_key|hash_value
	KeyAttribute string `koanf:"key_attribute"`
	MaxBatchSize int    `koanf:"max_batch_size"` // max messages per pull
}

// SinkCfg configures the log → topic direction.
type SinkCfg struct {
	Topic                 string        `koanf:"topic"`
	KafkaTopics           []string      `koanf:"kafka_topics"`
	MinBatchSize          int           `koanf:"min_batch_size"`
	MaxRequestBytes       int           `koanf:"max_request_bytes"`
	MaxMessagesPerRequest int           `koanf:"max_messages_per_request"`
	FlushInterval         time.Duration `koanf:"flush_interval"`
	MaxUnflushed          int           `koanf:"max_unflushed"` // records between forced flushes
}

// PubSub is the service-facing configuration.
type PubSub struct {
	Endpoint    string    `koanf:"endpoint"`
	Project     string    `koanf:"project"`
	AckDeadline int       `koanf:"ack_deadline"` // seconds, inmem driver only
	Source      SourceCfg `koanf:"source"`
	Sink        SinkCfg   `koanf:"sink"`
}

// Request limits mirror the service's: just under the 10 MiB frame
// limit, 1000 messages per publish request.
const (
	DefaultMaxRequestBytes       = 10<<20 - 1024
	DefaultMaxMessagesPerRequest = 1000
)

// LoadPubSub merges YAML (if present) with env-vars
// (prefix `CONDUIT_PUBSUB__`, delimiter `__`).
func LoadPubSub(path string) (PubSub, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return PubSub{}, err
		}
	}
	_ = k.Load(env.Provider("CONDUIT_PUBSUB__", "__", nil), nil)

	var cfg PubSub
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyPubSubDefaults(&cfg)
	if cfg.Source.Partitions < 1 {
		return cfg, fmt.Errorf("pubsub: kafka_partitions %d, want >= 1", cfg.Source.Partitions)
	}
	if cfg.Source.MaxBatchSize < 1 {
		return cfg, fmt.Errorf("pubsub: max_batch_size %d, want >= 1", cfg.Source.MaxBatchSize)
	}
	if cfg.Sink.MinBatchSize < 1 {
		return cfg, fmt.Errorf("pubsub: min_batch_size %d, want >= 1", cfg.Sink.MinBatchSize)
	}
	if cfg.Sink.MaxRequestBytes < 1 {
		return cfg, fmt.Errorf("pubsub: max_request_bytes %d, want >= 1", cfg.Sink.MaxRequestBytes)
	}
	if cfg.Sink.MaxMessagesPerRequest < 1 {
		return cfg, fmt.Errorf("pubsub: max_messages_per_request %d, want >= 1", cfg.Sink.MaxMessagesPerRequest)
	}
	if cfg.Sink.MaxUnflushed < 1 {
		return cfg, fmt.Errorf("pubsub: max_unflushed %d, want >= 1", cfg.Sink.MaxUnflushed)
	}
	return cfg, nil
}

func applyPubSubDefaults(c *PubSub) {
	if c.Source.Scheme == "" {
		c.Source.Scheme = "round_robin"
	}
	if c.Source.KeyAttribute == "" {
		c.Source.KeyAttribute = "key"
	}
	if c.Source.MaxBatchSize == 0 {
		c.Source.MaxBatchSize = 100
	}
	if c.Source.Partitions == 0 {
		c.Source.Partitions = 1
	}
	if c.Sink.MinBatchSize == 0 {
		c.Sink.MinBatchSize = 100
	}
	if c.Sink.MaxRequestBytes == 0 {
		c.Sink.MaxRequestBytes = DefaultMaxRequestBytes
	}
	if c.Sink.MaxMessagesPerRequest == 0 {
		c.Sink.MaxMessagesPerRequest = DefaultMaxMessagesPerRequest
	}
	if c.Sink.FlushInterval == 0 {
		c.Sink.FlushInterval = 5 * time.Second
	}
	if c.Sink.MaxUnflushed == 0 {
		c.Sink.MaxUnflushed = 10_000
	}
	if c.AckDeadline == 0 {
		c.AckDeadline = 10
	}
}
