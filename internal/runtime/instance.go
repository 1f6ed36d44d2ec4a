package runtime

import (
	"context"
	"sync"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/engine"
	apperrors "github.com/louisbranch/chronicle/internal/errors"
)

const mailboxSize = 64

// ErrStopped indicates a delivery to an instance that no longer runs.
var ErrStopped = apperrors.New(apperrors.CodeInstanceStopped, "aggregate instance is stopped")

// Instance owns one aggregate id and funnels its commands through the
// engine one at a time, in arrival order.
type Instance[A aggregate.Root] struct {
	id      string
	mailbox chan Message
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Start launches an instance for the given aggregate id.
func Start[A aggregate.Root](id string, framework *engine.Framework[A]) *Instance[A] {
	inst := &Instance[A]{
		id:      id,
		mailbox: make(chan Message, mailboxSize),
		done:    make(chan struct{}),
	}
	go inst.run(framework)
	return inst
}

func (i *Instance[A]) run(framework *engine.Framework[A]) {
	defer close(i.done)
	for msg := range i.mailbox {
		err := framework.ExecuteWithMetadata(context.Background(), i.id, msg.Command, msg.Metadata)
		if msg.Result != nil {
			msg.Result <- err
		}
	}
}

// ID returns the aggregate id this instance owns.
func (i *Instance[A]) ID() string { return i.id }

// Alive implements Handle. An instance stays alive until Stop.
func (i *Instance[A]) Alive() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return !i.closed
}

// Deliver implements Handle. Enqueues the message, blocking when the
// mailbox is full; fails once the instance has stopped.
func (i *Instance[A]) Deliver(msg Message) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrStopped
	}
	i.mailbox <- msg
	return nil
}

// Stop closes the mailbox. Queued messages are still processed; Stop
// does not wait for them.
func (i *Instance[A]) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	close(i.mailbox)
}

// Drained reports a channel closed once all queued messages have been
// processed after Stop.
func (i *Instance[A]) Drained() <-chan struct{} { return i.done }
