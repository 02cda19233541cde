package runtime

import (
	"context"
	"log/slog"

	"pingme/domain/event"
)

// Router resolves a target user to their live sink at delivery time and
// pushes the event. There is no queue, no retry, and no persistence of
// undelivered events: the persisted record is the durable source of truth,
// a routed event is purely a liveness optimization.
//
// Presence is re-checked on every call because a user may disconnect
// between the mutation that triggered the event and its delivery.
type Router struct {
	registry *Registry
	log      *slog.Logger
}

func NewRouter(registry *Registry, log *slog.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// SendTo delivers an event to one user, or drops it if they are offline.
// A failed or dropped delivery never propagates to the caller.
func (r *Router) SendTo(ctx context.Context, userID string, e event.Event) {
	sink, ok := r.registry.Lookup(userID)
	if !ok {
		r.log.Debug("Target offline, event dropped", "target", userID, "event", e.Name)
		return
	}
	if err := sink.Consume(ctx, e); err != nil {
		r.log.Warn("Event delivery failed, dropping", "target", userID, "event", e.Name, "error", err)
	}
}

// BroadcastExcept delivers an event to every connected user but one.
func (r *Router) BroadcastExcept(ctx context.Context, userID string, e event.Event) {
	for target, sink := range r.registry.Snapshot() {
		if target == userID {
			continue
		}
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Warn("Broadcast delivery failed, dropping", "target", target, "event", e.Name, "error", err)
		}
	}
}
