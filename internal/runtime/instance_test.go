package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/chronicle/internal/domain/customer"
	"github.com/louisbranch/chronicle/internal/engine"
	"github.com/louisbranch/chronicle/internal/store/memstore"
)

func startCustomerInstance(t *testing.T) (*Instance[*customer.Customer], *memstore.Store[*customer.Customer]) {
	t.Helper()
	eventStore := memstore.New(customer.New)
	framework := engine.New[*customer.Customer](eventStore, nil)
	inst := Start("cust-1", framework)
	t.Cleanup(inst.Stop)
	return inst, eventStore
}

func deliver(t *testing.T, inst *Instance[*customer.Customer], msg Message) error {
	t.Helper()
	result := make(chan error, 1)
	msg.Result = result
	if err := inst.Deliver(msg); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for command result")
		return nil
	}
}

func TestInstanceProcessesCommandsInOrder(t *testing.T) {
	inst, eventStore := startCustomerInstance(t)

	if err := deliver(t, inst, Message{Command: customer.AddCustomerName{Name: "John Doe"}}); err != nil {
		t.Fatalf("add name: %v", err)
	}
	if err := deliver(t, inst, Message{Command: customer.UpdateEmail{Email: "john@example.com"}}); err != nil {
		t.Fatalf("update email: %v", err)
	}

	actx, err := eventStore.LoadAggregate(t.Context(), "cust-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if actx.Version != 2 {
		t.Fatalf("version = %d, want 2", actx.Version)
	}
	if actx.Aggregate.Name != "John Doe" || actx.Aggregate.Email != "john@example.com" {
		t.Fatalf("state = %+v", actx.Aggregate)
	}
}

func TestInstanceSurfacesBusinessErrors(t *testing.T) {
	inst, _ := startCustomerInstance(t)

	if err := deliver(t, inst, Message{Command: customer.AddCustomerName{Name: "John Doe"}}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := deliver(t, inst, Message{Command: customer.AddCustomerName{Name: "John Doe"}})
	if err == nil {
		t.Fatal("expected rejection for second name")
	}
	if err.Error() != "a name has already been added for this customer" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestStoppedInstanceRefusesDelivery(t *testing.T) {
	inst, _ := startCustomerInstance(t)

	if !inst.Alive() {
		t.Fatal("expected instance to start alive")
	}
	inst.Stop()
	if inst.Alive() {
		t.Fatal("expected instance to be dead after Stop")
	}

	err := inst.Deliver(Message{Command: customer.UpdateEmail{Email: "x@example.com"}})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}

	select {
	case <-inst.Drained():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for drain")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	inst, _ := startCustomerInstance(t)
	inst.Stop()
	inst.Stop()
}
