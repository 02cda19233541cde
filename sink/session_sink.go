// Package sink contains EventSink implementations bridging the realtime
// runtime to downstream consumers.
package sink

import (
	"context"
	"log/slog"

	"pingme/domain/event"
)

// SessionSink buffers events routed to one connected user. The socket write
// pump drains Events and pushes them onto the wire.
type SessionSink struct {
	Events chan event.Event
	log    *slog.Logger
}

func NewSessionSink(bufferSize int, log *slog.Logger) *SessionSink {
	return &SessionSink{Events: make(chan event.Event, bufferSize), log: log}
}

// Consume hands the event to the owning session without blocking the caller.
// A full buffer means the client is too slow, the event is dropped so one
// stalled connection cannot back up the router. Drops are logged here, the
// caller only sees an error when the context ends.
func (s *SessionSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Session buffer full, event dropped", "event", e.Name)
		return nil
	}
}
