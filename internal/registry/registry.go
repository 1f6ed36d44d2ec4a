// Package registry guarantees at most one live handle per aggregate id:
// handles are created lazily through a caller-supplied factory and
// replaced transparently once dead.
package registry

import (
	"fmt"
	"sync"

	apperrors "github.com/louisbranch/chronicle/internal/errors"
	"github.com/louisbranch/chronicle/internal/runtime"
)

type entry struct {
	handle        runtime.Handle
	aggregateType string
}

// Registry is a process-local cache mapping aggregate id to the live
// handle of its running instance. The composition root owns a Registry
// and passes it to whatever needs it; there is no ambient instance.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// GetOrCreate returns the live handle for id, invoking factory only when
// no live handle exists. A dead entry is replaced wholesale, never
// updated in place. An entry created for a different aggregate type
// fails with a registry-entry error: that is a wiring defect, not a
// condition to recover from.
//
// The mutex is held across lookup and, on a miss, the factory call, so
// creation is serialized globally across all ids. This trades creation
// throughput for the guarantee that at most one factory call per id can
// ever race.
func (r *Registry) GetOrCreate(id, aggregateType string, factory func(id string) runtime.Handle) (runtime.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[id]; ok {
		if existing.aggregateType != aggregateType {
			return nil, apperrors.WithMetadata(
				apperrors.CodeRegistryEntryInvalid,
				fmt.Sprintf("registry entry for id %q holds aggregate type %q, caller expects %q", id, existing.aggregateType, aggregateType),
				map[string]string{
					"aggregate_id":   id,
					"entry_type":     existing.aggregateType,
					"requested_type": aggregateType,
				},
			)
		}
		if existing.handle.Alive() {
			return existing.handle, nil
		}
	}

	handle := factory(id)
	r.entries[id] = entry{handle: handle, aggregateType: aggregateType}
	return handle, nil
}

// Len reports how many entries the registry holds, alive or dead.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
