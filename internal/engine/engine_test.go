package engine

import (
	"context"
	"testing"

	"github.com/louisbranch/chronicle/internal/domain/customer"
	"github.com/louisbranch/chronicle/internal/domain/event"
	apperrors "github.com/louisbranch/chronicle/internal/errors"
	"github.com/louisbranch/chronicle/internal/query"
	"github.com/louisbranch/chronicle/internal/store/memstore"
)

type recordingProcessor struct {
	batches []recordedBatch
}

type recordedBatch struct {
	aggregateID string
	events      []event.Envelope
}

func (p *recordingProcessor) Dispatch(_ context.Context, aggregateID string, events []event.Envelope) {
	p.batches = append(p.batches, recordedBatch{aggregateID: aggregateID, events: events})
}

func TestExecuteCommitsAndDispatches(t *testing.T) {
	ctx := context.Background()
	eventStore := memstore.New(customer.New)
	processor := &recordingProcessor{}
	framework := New[*customer.Customer](eventStore, []query.Processor{processor})

	if err := framework.Execute(ctx, "cust-1", customer.AddCustomerName{Name: "John Doe"}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	history, err := eventStore.Load(ctx, "cust-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	name, ok := history[0].Event.(*customer.NameAdded)
	if !ok || name.Name != "John Doe" {
		t.Fatalf("stored event = %#v, want NameAdded John Doe", history[0].Event)
	}

	if len(processor.batches) != 1 {
		t.Fatalf("dispatched %d batches, want 1", len(processor.batches))
	}
	batch := processor.batches[0]
	if batch.aggregateID != "cust-1" {
		t.Fatalf("dispatched aggregate id = %q, want cust-1", batch.aggregateID)
	}
	if len(batch.events) != 1 || batch.events[0].Seq != 1 {
		t.Fatalf("dispatched batch = %+v, want one event at seq 1", batch.events)
	}
}

func TestExecuteBusinessErrorHasZeroEffects(t *testing.T) {
	ctx := context.Background()
	eventStore := memstore.New(customer.New)
	processor := &recordingProcessor{}
	framework := New[*customer.Customer](eventStore, []query.Processor{processor})

	if err := framework.Execute(ctx, "cust-1", customer.AddCustomerName{Name: "John Doe"}); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	processor.batches = nil

	err := framework.Execute(ctx, "cust-1", customer.AddCustomerName{Name: "John Doe"})
	if err == nil {
		t.Fatal("expected business error on second name")
	}
	if !apperrors.IsUser(err) {
		t.Fatalf("expected business error, got %v", err)
	}
	if err.Error() != "a name has already been added for this customer" {
		t.Fatalf("message = %q", err.Error())
	}

	history, _ := eventStore.Load(ctx, "cust-1")
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1 (rejection must commit nothing)", len(history))
	}
	if len(processor.batches) != 0 {
		t.Fatalf("dispatched %d batches, want 0 on rejection", len(processor.batches))
	}
}

func TestExecuteMetadataReachesEnvelopes(t *testing.T) {
	ctx := context.Background()
	eventStore := memstore.New(customer.New)
	framework := New[*customer.Customer](eventStore, nil)

	metadata := map[string]string{"actor": "admin", "request_id": "req-7"}
	if err := framework.ExecuteWithMetadata(ctx, "cust-1", customer.UpdateEmail{Email: "john@example.com"}, metadata); err != nil {
		t.Fatalf("execute: %v", err)
	}

	history, _ := eventStore.Load(ctx, "cust-1")
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Metadata["actor"] != "admin" || history[0].Metadata["request_id"] != "req-7" {
		t.Fatalf("metadata = %v", history[0].Metadata)
	}
}

func TestExecuteDispatchesToAllProcessorsInOrder(t *testing.T) {
	ctx := context.Background()
	eventStore := memstore.New(customer.New)
	var order []string
	first := query.Func(func(_ context.Context, _ string, _ []event.Envelope) {
		order = append(order, "first")
	})
	second := query.Func(func(_ context.Context, _ string, _ []event.Envelope) {
		order = append(order, "second")
	})
	framework := New[*customer.Customer](eventStore, []query.Processor{first, second})

	if err := framework.Execute(ctx, "cust-1", customer.AddCustomerName{Name: "John Doe"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("dispatch order = %v", order)
	}
}

func TestConcurrentLoadsOnlyOneCommitWins(t *testing.T) {
	ctx := context.Background()
	eventStore := memstore.New(customer.New)

	// Two executes that both observed version 0: simulate by driving the
	// store directly for the stale one.
	stale, err := eventStore.LoadAggregate(ctx, "cust-1")
	if err != nil {
		t.Fatalf("load stale: %v", err)
	}

	framework := New[*customer.Customer](eventStore, nil)
	if err := framework.Execute(ctx, "cust-1", customer.AddCustomerName{Name: "John Doe"}); err != nil {
		t.Fatalf("winning execute: %v", err)
	}

	_, err = eventStore.Commit(ctx, []event.Domain{&customer.NameAdded{Name: "Jane Doe"}}, stale, nil)
	if !apperrors.IsConcurrencyConflict(err) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}

	history, _ := eventStore.Load(ctx, "cust-1")
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
}
