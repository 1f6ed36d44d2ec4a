package aggregate

import (
	"reflect"
	"testing"

	"github.com/louisbranch/chronicle/internal/domain/event"
)

type counterBumped struct {
	By int `json:"by"`
}

func (counterBumped) EventType() string    { return "counter.bumped" }
func (counterBumped) EventVersion() string { return "1.0" }

type counter struct {
	Total int
	Seen  []int
}

func newCounter() *counter { return &counter{} }

func (c *counter) AggregateType() string { return "counter" }

func (c *counter) Apply(evt event.Domain) {
	if bumped, ok := evt.(*counterBumped); ok {
		c.Total += bumped.By
		c.Seen = append(c.Seen, bumped.By)
	}
}

func (c *counter) Handle(cmd Command) ([]event.Domain, error) {
	return nil, nil
}

func history(bumps ...int) []event.Envelope {
	envs := make([]event.Envelope, 0, len(bumps))
	for i, by := range bumps {
		envs = append(envs, event.Envelope{
			AggregateID: "counter-1",
			Seq:         uint64(i + 1),
			Event:       &counterBumped{By: by},
		})
	}
	return envs
}

func TestFoldReplaysHistoryInOrder(t *testing.T) {
	ctx := Fold("counter-1", newCounter, history(1, 2, 3))
	if ctx.Version != 3 {
		t.Fatalf("version = %d, want 3", ctx.Version)
	}
	if ctx.Aggregate.Total != 6 {
		t.Fatalf("total = %d, want 6", ctx.Aggregate.Total)
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(ctx.Aggregate.Seen, want) {
		t.Fatalf("seen = %v, want %v", ctx.Aggregate.Seen, want)
	}
}

func TestFoldEmptyHistoryYieldsDefault(t *testing.T) {
	ctx := Fold("counter-1", newCounter, nil)
	if ctx.Version != 0 {
		t.Fatalf("version = %d, want 0", ctx.Version)
	}
	if ctx.Aggregate.Total != 0 || ctx.Aggregate.Seen != nil {
		t.Fatalf("expected zero state, got %+v", ctx.Aggregate)
	}
}

func TestFoldIsDeterministic(t *testing.T) {
	events := history(4, 8, 15, 16, 23, 42)
	first := Fold("counter-1", newCounter, events)
	second := Fold("counter-1", newCounter, events)
	if !reflect.DeepEqual(first.Aggregate, second.Aggregate) {
		t.Fatalf("fold diverged: %+v vs %+v", first.Aggregate, second.Aggregate)
	}
	if first.Version != second.Version {
		t.Fatalf("versions diverged: %d vs %d", first.Version, second.Version)
	}
}
