// Package memstore provides an in-memory event store with full
// optimistic-concurrency behavior, suitable for tests and development.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/domain/event"
	apperrors "github.com/louisbranch/chronicle/internal/errors"
)

// Store keeps every aggregate's stream in process memory.
type Store[A aggregate.Root] struct {
	newRoot func() A
	now     func() time.Time

	mu      sync.Mutex
	streams map[string][]event.Envelope
}

// New returns an empty store. newRoot builds the default aggregate state
// for LoadAggregate.
func New[A aggregate.Root](newRoot func() A) *Store[A] {
	return &Store[A]{
		newRoot: newRoot,
		now:     func() time.Time { return time.Now().UTC() },
		streams: make(map[string][]event.Envelope),
	}
}

// Load returns the full ordered history for an aggregate id.
func (s *Store[A]) Load(ctx context.Context, aggregateID string) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[aggregateID]
	history := make([]event.Envelope, len(stream))
	copy(history, stream)
	return history, nil
}

// LoadAggregate folds the history into a fresh aggregate.
func (s *Store[A]) LoadAggregate(ctx context.Context, aggregateID string) (aggregate.Context[A], error) {
	history, err := s.Load(ctx, aggregateID)
	if err != nil {
		return aggregate.Context[A]{}, err
	}
	return aggregate.Fold(aggregateID, s.newRoot, history), nil
}

// Commit appends events after actx.Version, or fails with a concurrency
// conflict when another commit advanced the stream first. Nothing is
// persisted on conflict.
func (s *Store[A]) Commit(ctx context.Context, events []event.Domain, actx aggregate.Context[A], metadata map[string]string) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	aggregateID := actx.AggregateID
	stream := s.streams[aggregateID]
	current := uint64(len(stream))
	if current != actx.Version {
		return nil, apperrors.WithMetadata(
			apperrors.CodeConcurrencyConflict,
			fmt.Sprintf("aggregate %s advanced to seq %d past loaded version %d", aggregateID, current, actx.Version),
			map[string]string{
				"aggregate_id":     aggregateID,
				"loaded_version":   fmt.Sprintf("%d", actx.Version),
				"current_sequence": fmt.Sprintf("%d", current),
			},
		)
	}
	if len(events) == 0 {
		return nil, nil
	}

	committed := make([]event.Envelope, 0, len(events))
	timestamp := s.now()
	for i, evt := range events {
		committed = append(committed, event.Envelope{
			AggregateID: aggregateID,
			Seq:         actx.Version + uint64(i) + 1,
			Timestamp:   timestamp,
			Event:       evt,
			Metadata:    copyMetadata(metadata),
		})
	}
	s.streams[aggregateID] = append(stream, committed...)
	return committed, nil
}

func copyMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	copied := make(map[string]string, len(metadata))
	for key, value := range metadata {
		copied[key] = value
	}
	return copied
}
