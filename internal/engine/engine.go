// Package engine orchestrates command execution: load an aggregate's
// history, fold it into state, handle the command, commit the produced
// events, and fan the committed batch out to projection consumers.
package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/query"
	"github.com/louisbranch/chronicle/internal/store"
)

const tracerName = "github.com/louisbranch/chronicle/internal/engine"

// Framework applies commands to one aggregate type. Changes to aggregate
// state happen only through Execute: the full history is loaded and
// folded before every command so decisions always see complete context.
type Framework[A aggregate.Root] struct {
	store      store.EventStore[A]
	processors []query.Processor
	tracer     trace.Tracer
}

// New builds a framework from an event store and zero or more projection
// consumers.
func New[A aggregate.Root](eventStore store.EventStore[A], processors []query.Processor) *Framework[A] {
	return &Framework[A]{
		store:      eventStore,
		processors: processors,
		tracer:     otel.Tracer(tracerName),
	}
}

// Execute applies a command to the aggregate identified by aggregateID.
// See ExecuteWithMetadata.
func (f *Framework[A]) Execute(ctx context.Context, aggregateID string, cmd aggregate.Command) error {
	return f.ExecuteWithMetadata(ctx, aggregateID, cmd, nil)
}

// ExecuteWithMetadata applies a command and attaches metadata (audit
// context such as actor or correlation id) to every committed event.
//
// An error from command handling or from the commit aborts the call with
// zero persisted effect: nothing is stored and nothing is dispatched.
// Business rejections are returned to the caller unchanged. On commit
// success the committed batch is delivered to every registered processor
// in registration order; processor outcomes are invisible to this call.
//
// A command that produces zero events is a valid no-op: nothing is
// committed and nothing is dispatched.
func (f *Framework[A]) ExecuteWithMetadata(ctx context.Context, aggregateID string, cmd aggregate.Command, metadata map[string]string) error {
	ctx, span := f.tracer.Start(ctx, "engine.execute", trace.WithAttributes(
		attribute.String("aggregate.id", aggregateID),
		attribute.String("command.type", cmd.CommandType()),
	))
	defer span.End()

	actx, err := f.store.LoadAggregate(ctx, aggregateID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int64("aggregate.version", int64(actx.Version)))

	events, err := actx.Aggregate.Handle(cmd)
	if err != nil {
		// Business rejection: no store or projection interaction occurs.
		return err
	}

	committed, err := f.store.Commit(ctx, events, actx, metadata)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(committed) == 0 {
		return nil
	}
	span.SetAttributes(attribute.Int("events.committed", len(committed)))

	for _, processor := range f.processors {
		processor.Dispatch(ctx, aggregateID, committed)
	}
	return nil
}
