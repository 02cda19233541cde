//go:generate go run go.uber.org/mock/mockgen -source=presence.go -destination=../mocks/mock_presence.go -package=mocks
package runtime

import (
	"context"
	"log/slog"
	"time"

	"pingme/contract"
	"pingme/domain/event"
)

// PresenceStore persists the best-effort online flag and last-seen stamp.
// The registry stays authoritative while the process lives: store failures
// are logged and swallowed so live state never diverges from reality.
type PresenceStore interface {
	SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error
	GetLastSeen(ctx context.Context, userID string) (time.Time, error)
}

// Presence implements contract.IPresence on top of the in-memory Registry.
// Announce and Remove broadcast user_status transitions to every connected
// session, mirroring what clients need to flip online badges.
type Presence struct {
	registry *Registry
	store    PresenceStore
	log      *slog.Logger
	now      func() time.Time
}

func NewPresence(registry *Registry, store PresenceStore, log *slog.Logger) *Presence {
	return &Presence{registry: registry, store: store, log: log, now: time.Now}
}

func (p *Presence) Announce(ctx context.Context, userID string, sink contract.EventSink) {
	p.registry.Bind(userID, sink)

	now := p.now().UTC()
	if err := p.store.SetPresence(ctx, userID, true, now); err != nil {
		p.log.Warn("Failed to persist online presence, live state kept", "user_id", userID, "error", err)
	}

	p.broadcast(ctx, event.Event{
		Name:    event.UserStatus,
		Payload: event.UserStatusPayload{UserID: userID, IsOnline: true},
	})
}

func (p *Presence) Lookup(userID string) (contract.EventSink, bool) {
	return p.registry.Lookup(userID)
}

func (p *Presence) Remove(ctx context.Context, userID string) {
	p.registry.Unbind(userID)

	now := p.now().UTC()
	if err := p.store.SetPresence(ctx, userID, false, now); err != nil {
		p.log.Warn("Failed to persist offline presence, session torn down anyway", "user_id", userID, "error", err)
	}

	p.broadcast(ctx, event.Event{
		Name:    event.UserStatus,
		Payload: event.UserStatusPayload{UserID: userID, IsOnline: false, LastSeen: &now},
	})
}

// LastSeen answers presence queries: an online user's last-seen is "now",
// an offline user's comes from the store (zero time if never persisted).
func (p *Presence) LastSeen(ctx context.Context, userID string) (time.Time, bool) {
	if _, online := p.registry.Lookup(userID); online {
		return p.now().UTC(), true
	}
	lastSeen, err := p.store.GetLastSeen(ctx, userID)
	if err != nil {
		return time.Time{}, false
	}
	return lastSeen, false
}

func (p *Presence) broadcast(ctx context.Context, e event.Event) {
	for userID, sink := range p.registry.Snapshot() {
		if err := sink.Consume(ctx, e); err != nil {
			p.log.Debug("Presence broadcast dropped", "target", userID, "error", err)
		}
	}
}
