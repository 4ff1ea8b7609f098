package collector

import (
	"context"

	"BullionSentinel/internal/model"
)

// Fetcher defines the interface for reading the latest silver and gold prices.
type Fetcher interface {
	// Fetch returns one quote or an error wrapping ErrFeedUnavailable once
	// every attempt has failed.
	Fetch(ctx context.Context) (model.Quote, error)
	Name() string
}

type shutdownKey struct{}

// WithShutdown returns ctx carrying stop's cancellation as a shutdown marker.
// Requests keep running on ctx; only retry backoff ends early once stop is
// done.
func WithShutdown(ctx, stop context.Context) context.Context {
	return context.WithValue(ctx, shutdownKey{}, stop.Done())
}

func shutdownSignal(ctx context.Context) <-chan struct{} {
	ch, _ := ctx.Value(shutdownKey{}).(<-chan struct{})
	return ch
}
