package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesPulled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_pulled_total",
		Help: "Messages pulled from the subscription.",
	})
	DuplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_duplicates_dropped_total",
		Help: "Redelivered messages dropped because their ack is still unresolved.",
	})
	MessagesAcked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_acked_total",
		Help: "Ack handles confirmed by the service.",
	})
	AckRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_ack_retries_total",
		Help: "Failed ack batches left for the next poll cycle.",
	})
	PendingAcks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conduit_pending_acks",
		Help: "Ack handles held but not yet confirmed.",
	})
	PublishBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_publish_batches_total",
		Help: "Publish requests dispatched to the service.",
	})
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_publish_failures_total",
		Help: "Flush cycles failed by a publish error.",
	})
)

func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
