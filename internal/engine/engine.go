package engine

import (
	"context"
	"errors"

	"conduit/internal/pubsub"
)

// Driver is one running direction.
type Driver interface {
	Run(ctx context.Context) error
	Close() error
}

type Engine struct {
	client  pubsub.Client
	drivers []Driver
}

// Run starts every configured driver and blocks until the context is
// canceled or a driver fails. The first non-cancellation error wins.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(e.drivers))
	for _, d := range e.drivers {
		d := d
		go func() { errCh <- d.Run(ctx) }()
	}

	var firstErr error
	for range e.drivers {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
			firstErr = err
		}
		// One driver down stops the rest; a half-running bridge hides
		// backlog from operators.
		cancel()
	}
	e.Close()
	return firstErr
}

func (e *Engine) Close() {
	for _, d := range e.drivers {
		_ = d.Close()
	}
	if e.client != nil {
		_ = e.client.Close()
	}
}
