// Package runtime models aggregates as long-lived addressable instances:
// a goroutine owning one aggregate id, reached through an opaque handle.
// The identity registry caches these handles; everything else in the
// module works on plain values and does not depend on this package.
package runtime

import "github.com/louisbranch/chronicle/internal/domain/aggregate"

// Message is one command submission for a running instance. Result, when
// non-nil, receives the outcome of the execute exactly once.
type Message struct {
	Command  aggregate.Command
	Metadata map[string]string
	Result   chan<- error
}

// Handle is the capability the registry caches: liveness plus opaque
// message delivery to a running instance.
type Handle interface {
	// Alive reports whether the instance still accepts messages.
	Alive() bool
	// Deliver enqueues a message for the instance. Delivery to a stopped
	// instance fails; the registry reacts by creating a replacement.
	Deliver(msg Message) error
}
