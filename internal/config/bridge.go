package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"conduit/internal/spec"
)

const SupportedSchema = "v1"

// LoadBridgeSpec parses a conduit YAML, validates schema_version, and
// resolves the kafka/pubsub config paths relative to the spec file.
func LoadBridgeSpec(path string) (spec.File, error) {
	var cfg spec.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, fmt.Errorf("conduit schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if len(cfg.Directions) == 0 {
		return cfg, fmt.Errorf("no directions configured (want \"source\" and/or \"sink\")")
	}
	for _, d := range cfg.Directions {
		if d != "source" && d != "sink" {
			return cfg, fmt.Errorf("unknown direction %q", d)
		}
	}
	base := filepath.Dir(path)
	cfg.PubSub.Config = resolve(base, cfg.PubSub.Config)
	cfg.Kafka.Config = resolve(base, cfg.Kafka.Config)
	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
