package spec

// File is the parsed conduit.yml: which directions run, which pub/sub
// driver to use, and where the per-system configs live.
type File struct {
	SchemaVersion string `yaml:"schema_version"`

	PubSub struct {
		Driver   string `yaml:"driver"` // "http", "inmem", …
		Config   string `yaml:"config"` // path, relative to this file
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"pubsub"`

	Kafka struct {
		Config string `yaml:"config"`
	} `yaml:"kafka"`

	// Directions to run: "source" (pub/sub → log), "sink" (log → pub/sub).
	Directions []string `yaml:"directions"`

	MetricsPort int `yaml:"metrics_port"`
}
