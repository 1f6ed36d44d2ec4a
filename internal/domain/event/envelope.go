package event

import "time"

// Envelope is the durable unit for one event: the aggregate it belongs
// to, its position in that aggregate's stream, the payload, and free-form
// audit metadata attached at commit time.
//
// For a given aggregate id, sequence numbers are contiguous starting at 1
// with no gaps or duplicates. Stores assign Seq and Timestamp on commit.
type Envelope struct {
	// AggregateID is the aggregate instance this event belongs to.
	AggregateID string
	// Seq is the event sequence number within the aggregate (starts at 1).
	Seq uint64
	// Timestamp is when the event was committed.
	Timestamp time.Time
	// Event is the domain event payload.
	Event Domain
	// Metadata carries audit/context data (actor, correlation id, ...).
	// It has no effect on business logic; projections and audits read it.
	Metadata map[string]string
}
