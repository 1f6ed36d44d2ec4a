package query

import (
	"context"

	"github.com/louisbranch/chronicle/internal/domain/event"
	"github.com/louisbranch/chronicle/internal/platform/logger"
)

// Logging is a Processor that records every committed batch. Useful as
// an audit trail and as the simplest possible projection consumer.
type Logging struct {
	Log *logger.Logger
}

// Dispatch implements Processor.
func (p *Logging) Dispatch(_ context.Context, aggregateID string, events []event.Envelope) {
	if p.Log == nil {
		return
	}
	for _, env := range events {
		p.Log.Info("event committed",
			"aggregate_id", aggregateID,
			"seq", env.Seq,
			"event_type", env.Event.EventType(),
			"event_version", env.Event.EventVersion(),
		)
	}
}
