// Package aggregate defines the protocol every event-sourced entity
// follows: state is reconstructed by folding committed events, and
// commands are validated against that state to produce new events.
package aggregate

import "github.com/louisbranch/chronicle/internal/domain/event"

// Command is a validated intent to change an aggregate's state. It
// carries whatever data handling needs and is never stored.
type Command interface {
	// CommandType identifies the kind of command, for tracing and
	// diagnostics.
	CommandType() string
}

// Root is the aggregate contract.
//
// Apply must be total: events handed to it are already committed facts,
// so it may not fail. It must also be deterministic, since the same
// history is replayed every load.
//
// Handle must be a pure function of (current state, command): no I/O, no
// hidden state. It returns zero or more events on success (zero is a
// valid no-op) or a business rejection when the command is invalid given
// current state. Infrastructure failures are never Handle's to produce.
type Root interface {
	// AggregateType is a static identifier, stable for the process
	// lifetime, used to namespace stored events and registry entries.
	AggregateType() string
	// Apply folds one committed event into state, mutating in place.
	Apply(evt event.Domain)
	// Handle validates a command against current state.
	Handle(cmd Command) ([]event.Domain, error)
}
