// Package testkit drives specification-style aggregate tests: given a
// baseline history, when a command, then expect events or a business
// rejection. No store is involved; only the aggregate protocol runs.
package testkit

import (
	"reflect"
	"testing"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/domain/event"
	apperrors "github.com/louisbranch/chronicle/internal/errors"
)

// Framework builds executors for one aggregate type.
type Framework[A aggregate.Root] struct {
	newRoot func() A
}

// New returns a framework that builds fresh aggregates with newRoot.
func New[A aggregate.Root](newRoot func() A) Framework[A] {
	return Framework[A]{newRoot: newRoot}
}

// GivenNoPreviousEvents starts a spec from the empty initial state.
func (f Framework[A]) GivenNoPreviousEvents() Executor[A] {
	return Executor[A]{newRoot: f.newRoot}
}

// Given starts a spec from a baseline history.
func (f Framework[A]) Given(events ...event.Domain) Executor[A] {
	return Executor[A]{newRoot: f.newRoot, events: events}
}

// Executor holds the baseline history and accepts the command under test.
type Executor[A aggregate.Root] struct {
	newRoot func() A
	events  []event.Domain
}

// When folds the baseline into a fresh aggregate and handles the
// command, capturing the result for the Then assertions.
func (e Executor[A]) When(cmd aggregate.Command) Validator {
	root := e.newRoot()
	for _, evt := range e.events {
		root.Apply(evt)
	}
	events, err := root.Handle(cmd)
	return Validator{events: events, err: err}
}

// Validator asserts on a captured command result.
type Validator struct {
	events []event.Domain
	err    error
}

// ThenExpectEvents asserts the command succeeded and produced exactly
// the expected events, in order. Call with no arguments to expect a
// no-op.
func (v Validator) ThenExpectEvents(t testing.TB, expected ...event.Domain) {
	t.Helper()
	if v.err != nil {
		t.Fatalf("expected success, received aggregate error: %v", v.err)
	}
	if len(v.events) != len(expected) {
		t.Fatalf("produced %d events, want %d:\n got: %#v\nwant: %#v", len(v.events), len(expected), v.events, expected)
	}
	for i := range expected {
		if !reflect.DeepEqual(v.events[i], expected[i]) {
			t.Fatalf("event %d mismatch:\n got: %#v\nwant: %#v", i, v.events[i], expected[i])
		}
	}
}

// ThenExpectError asserts the command was rejected with exactly the
// given business error message. A success or a technical error fails
// with a distinct diagnostic.
func (v Validator) ThenExpectError(t testing.TB, message string) {
	t.Helper()
	if v.err == nil {
		t.Fatalf("expected error, received events: %#v", v.events)
	}
	if !apperrors.IsUser(v.err) {
		t.Fatalf("expected business error but found technical error: %v", v.err)
	}
	if got := v.err.Error(); got != message {
		t.Fatalf("error message = %q, want %q", got, message)
	}
}
