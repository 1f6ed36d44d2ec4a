package event

// Domain is an immutable fact produced by successful command handling.
// Once committed it is authoritative and never changes.
type Domain interface {
	// EventType identifies the kind of event (e.g. "customer.name_added").
	EventType() string
	// EventVersion identifies the payload schema version, allowing stored
	// payloads to evolve without breaking older readers.
	EventVersion() string
}
