// Package customer holds the reference aggregate used by specification
// tests and the demo flow: a customer that records a name exactly once
// and an updatable email address.
package customer

import (
	"fmt"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/domain/event"
	apperrors "github.com/louisbranch/chronicle/internal/errors"
)

// AggregateType tags customer events and registry entries.
const AggregateType = "customer"

// Customer is the reconstructible state of one customer entity.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// New returns the empty initial state.
func New() *Customer { return &Customer{} }

// AddCustomerName records the customer's name. A name may only be added
// once.
type AddCustomerName struct {
	Name string
}

// CommandType identifies the command kind.
func (AddCustomerName) CommandType() string { return "customer.add_name" }

// UpdateEmail replaces the customer's email address.
type UpdateEmail struct {
	Email string
}

// CommandType identifies the command kind.
func (UpdateEmail) CommandType() string { return "customer.update_email" }

// NameAdded records that a name was added to the customer.
type NameAdded struct {
	Name string `json:"name"`
}

// EventType identifies the event kind.
func (NameAdded) EventType() string { return "customer.name_added" }

// EventVersion identifies the payload schema version.
func (NameAdded) EventVersion() string { return "1.0" }

// EmailUpdated records that the customer's email changed.
type EmailUpdated struct {
	Email string `json:"email"`
}

// EventType identifies the event kind.
func (EmailUpdated) EventType() string { return "customer.email_updated" }

// EventVersion identifies the payload schema version.
func (EmailUpdated) EventVersion() string { return "1.0" }

// AggregateType implements aggregate.Root.
func (c *Customer) AggregateType() string { return AggregateType }

// Handle validates a command against current state.
func (c *Customer) Handle(cmd aggregate.Command) ([]event.Domain, error) {
	switch cmd := cmd.(type) {
	case AddCustomerName:
		if c.Name != "" {
			return nil, apperrors.Rejected("a name has already been added for this customer")
		}
		return []event.Domain{&NameAdded{Name: cmd.Name}}, nil
	case UpdateEmail:
		return []event.Domain{&EmailUpdated{Email: cmd.Email}}, nil
	default:
		return nil, apperrors.Rejected(fmt.Sprintf("unsupported command %q", cmd.CommandType()))
	}
}

// Apply folds one committed event into state.
func (c *Customer) Apply(evt event.Domain) {
	switch evt := evt.(type) {
	case *NameAdded:
		c.Name = evt.Name
	case *EmailUpdated:
		c.Email = evt.Email
	}
}

// Events returns the decode registry for stored customer events.
func Events() *event.Registry {
	registry := event.NewRegistry()
	registry.Register(NameAdded{}.EventType(), NameAdded{}.EventVersion(), func() event.Domain { return &NameAdded{} })
	registry.Register(EmailUpdated{}.EventType(), EmailUpdated{}.EventVersion(), func() event.Domain { return &EmailUpdated{} })
	return registry
}
