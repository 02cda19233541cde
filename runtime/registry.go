// Package runtime owns the transient realtime state of one process:
// who is connected, who is typing, and how events reach live sessions.
// Everything here vanishes on restart; no rehydration is attempted.
package runtime

import (
	"sync"

	"pingme/contract"
)

// Registry maps a user to their single active delivery sink.
// A second announce for the same user silently supersedes the first,
// so multi-device users keep exactly one live route (last one wins).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.EventSink)}
}

func (r *Registry) Bind(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

func (r *Registry) Unbind(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Lookup is a pure read with no side effects.
func (r *Registry) Lookup(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[userID]
	return sink, ok
}

// Snapshot copies the current sessions so callers can iterate without
// holding the lock while they push events.
func (r *Registry) Snapshot() map[string]contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]contract.EventSink, len(r.sessions))
	for id, sink := range r.sessions {
		out[id] = sink
	}
	return out
}
