// Package store defines the durable event stream boundary the command
// pipeline depends on. Implementations live in subpackages; the pipeline
// consumes only this contract.
package store

import (
	"context"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/domain/event"
)

// EventStore loads an aggregate's history and commits new events under
// optimistic concurrency.
type EventStore[A aggregate.Root] interface {
	// Load returns the full ordered event history for an aggregate id.
	// A missing aggregate yields an empty history, not an error.
	Load(ctx context.Context, aggregateID string) ([]event.Envelope, error)

	// LoadAggregate folds the history into a fresh aggregate and returns
	// it with the sequence number it was reconstructed up to.
	LoadAggregate(ctx context.Context, aggregateID string) (aggregate.Context[A], error)

	// Commit appends the produced events, assigning contiguous sequence
	// numbers after actx.Version and attaching metadata to every
	// envelope. When another commit has advanced the stream past
	// actx.Version, Commit fails with a concurrency conflict and
	// persists nothing.
	Commit(ctx context.Context, events []event.Domain, actx aggregate.Context[A], metadata map[string]string) ([]event.Envelope, error)
}
