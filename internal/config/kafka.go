package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Kafka is the broker-facing configuration shared by both directions.
type Kafka struct {
	Brokers   []string `koanf:"brokers"`
	Version   string   `koanf:"version"`
	GroupID   string   `koanf:"group_id"`   // sink-side consumer group
	StartFrom string   `koanf:"start_from"` // oldest|newest (default newest)
	TLSEn     bool     `koanf:"tls_enabled"`
	SASLUser  string   `koanf:"sasl_user"`
	SASLPass  string   `koanf:"sasl_pass"`
}

// LoadKafka merges YAML (if present) with env-vars
// (prefix `CONDUIT_KAFKA__`, delimiter `__`).
func LoadKafka(path string) (Kafka, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Kafka{}, err
		}
	}
	_ = k.Load(env.Provider("CONDUIT_KAFKA__", "__", nil), nil)

	var cfg Kafka
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Brokers) == 0 {
		return cfg, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Version == "" {
		cfg.Version = "3.6.0"
	}
	if cfg.StartFrom == "" {
		cfg.StartFrom = "newest"
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "conduit"
	}
	return cfg, nil
}
