// Package kafka hosts the two pipeline drivers: a producer loop that
// drains the source pipeline into the log, and a consumer group that
// feeds the sink pipeline and commits offsets behind its flush barrier.
package kafka

import (
	"github.com/IBM/sarama"

	"conduit/internal/config"
)

func newSaramaConfig(cfg config.Kafka) (*sarama.Config, error) {
	ver, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	if cfg.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if cfg.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = cfg.SASLUser, cfg.SASLPass
	}
	return sc, nil
}
