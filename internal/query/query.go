// Package query defines the read-model side of the pipeline: consumers
// that receive committed event batches and update projections.
package query

import (
	"context"

	"github.com/louisbranch/chronicle/internal/domain/event"
)

// Processor consumes committed event batches. Dispatch is invoked once
// per successful commit, after commit, never before, with the full batch
// in commit order.
//
// Delivery is at-most-once and fire-and-forget: the pipeline observes no
// result and never retries, reorders, or deduplicates. A processor owns
// its own failure handling (log, retry, dead-letter).
type Processor interface {
	Dispatch(ctx context.Context, aggregateID string, events []event.Envelope)
}

// Func adapts a plain function to the Processor interface.
type Func func(ctx context.Context, aggregateID string, events []event.Envelope)

// Dispatch implements Processor.
func (f Func) Dispatch(ctx context.Context, aggregateID string, events []event.Envelope) {
	f(ctx, aggregateID, events)
}
