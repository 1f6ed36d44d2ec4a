package aggregate

import "github.com/louisbranch/chronicle/internal/domain/event"

// Context is the result of loading an aggregate: the reconstructed state
// plus the sequence number it was folded up to. Version is the expected
// version for the next commit; a Context feeds exactly one commit
// attempt.
type Context[A Root] struct {
	AggregateID string
	Aggregate   A
	Version     uint64
}

// Fold replays history, in order, into a fresh aggregate built by
// newRoot. The central invariant of the whole module is that every
// observable state equals Fold over its ordered history; no code path
// may produce a state unreachable by this fold.
func Fold[A Root](aggregateID string, newRoot func() A, history []event.Envelope) Context[A] {
	root := newRoot()
	version := uint64(0)
	for _, env := range history {
		root.Apply(env.Event)
		version = env.Seq
	}
	return Context[A]{AggregateID: aggregateID, Aggregate: root, Version: version}
}
