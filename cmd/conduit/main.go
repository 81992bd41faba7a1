package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"conduit/internal/engine"
	"conduit/internal/logging"
	"conduit/internal/pubsub"
)

func main() {
	specPath := flag.String("config", "conduit.yml", "path to the bridge spec")
	metricsPort := flag.Int("metrics-port", 0, "override the spec's metrics port")
	flag.Parse()

	logging.Configure(logging.FromEnv())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pubsub.Register("grpc", func() pubsub.Client { return pubsub.NewGRPCClient() })
	pubsub.Register("http", func() pubsub.Client { return pubsub.NewHTTPClient() })
	pubsub.Register("inmem", func() pubsub.Client { return pubsub.NewInMem() })

	e, err := engine.Bootstrap(engine.Config{
		BridgeYml:   *specPath,
		MetricsPort: *metricsPort,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if err := e.Run(ctx); err != nil {
		log.Fatalf("engine: %v", err)
	}
}
