package event

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/chronicle/internal/errors"
)

type registryKey struct {
	eventType    string
	eventVersion string
}

// Registry maps (event type, event version) pairs to payload constructors
// so stores can rehydrate typed events from persisted bytes.
//
// Factories must return pointers: Decode unmarshals the stored payload
// directly into the constructed value.
type Registry struct {
	factories map[registryKey]func() Domain
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[registryKey]func() Domain)}
}

// Register adds a constructor for the given event type and version.
// Registering the same pair twice replaces the earlier constructor.
func (r *Registry) Register(eventType, eventVersion string, factory func() Domain) {
	r.factories[registryKey{eventType: eventType, eventVersion: eventVersion}] = factory
}

// Decode rehydrates a stored payload into a typed event. An unregistered
// type/version pair or a malformed payload is a serialization failure.
func (r *Registry) Decode(eventType, eventVersion string, payload []byte) (Domain, error) {
	factory, ok := r.factories[registryKey{eventType: eventType, eventVersion: eventVersion}]
	if !ok {
		return nil, apperrors.WithMetadata(
			apperrors.CodeSerializationFailure,
			fmt.Sprintf("no event registered for type %q version %q", eventType, eventVersion),
			map[string]string{"event_type": eventType, "event_version": eventVersion},
		)
	}
	evt := factory()
	if err := json.Unmarshal(payload, evt); err != nil {
		return nil, apperrors.Wrap(
			apperrors.CodeSerializationFailure,
			fmt.Sprintf("decode event %q version %q", eventType, eventVersion),
			err,
		)
	}
	return evt, nil
}

// Encode serializes an event payload for storage.
func (r *Registry) Encode(evt Domain) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, apperrors.Wrap(
			apperrors.CodeSerializationFailure,
			fmt.Sprintf("encode event %q", evt.EventType()),
			err,
		)
	}
	return payload, nil
}
