package runtime

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"pingme/domain/event"
)

const testTypingTimeout = 40 * time.Millisecond

func newTestTyping() (*TypingCoordinator, *Registry) {
	registry := NewRegistry()
	router := NewRouter(registry, logs.GetLoggerFromLevel(slog.LevelDebug))
	return NewTypingCoordinator(router, testTypingTimeout), registry
}

func typingEvents(sink *recordingSink) []event.TypingPayload {
	var out []event.TypingPayload
	for _, e := range sink.Events() {
		if e.Name == event.UserTyping {
			out = append(out, e.Payload.(event.TypingPayload))
		}
	}
	return out
}

func TestTyping_Start_NotifiesReceiver(t *testing.T) {
	req := require.New(t)
	typing, registry := newTestTyping()
	bobSink := &recordingSink{}
	registry.Bind("bob", bobSink)
	conversationID := uuid.New()

	// When alice starts typing to bob
	typing.Start("alice", conversationID, "bob")

	// Then bob sees isTyping=true and the state is live
	events := typingEvents(bobSink)
	req.Len(events, 1)
	req.Equal("alice", events[0].UserID)
	req.Equal(conversationID, events[0].ConversationID)
	req.True(events[0].IsTyping)
	req.True(typing.IsTyping("alice", conversationID))
}

func TestTyping_AutoExpiry(t *testing.T) {
	req := require.New(t)
	typing, registry := newTestTyping()
	bobSink := &recordingSink{}
	registry.Bind("bob", bobSink)
	conversationID := uuid.New()

	// Given alice started typing and went silent
	typing.Start("alice", conversationID, "bob")

	// When the timeout elapses
	req.Eventually(func() bool {
		return !typing.IsTyping("alice", conversationID)
	}, time.Second, 5*time.Millisecond)

	// Then bob got the trailing isTyping=false
	req.Eventually(func() bool {
		events := typingEvents(bobSink)
		return len(events) == 2 && !events[1].IsTyping
	}, time.Second, 5*time.Millisecond)
}

func TestTyping_RepeatStart_ResetsExpiry(t *testing.T) {
	req := require.New(t)
	typing, registry := newTestTyping()
	registry.Bind("bob", &recordingSink{})
	conversationID := uuid.New()

	// Given alice keeps refreshing her typing state
	typing.Start("alice", conversationID, "bob")
	time.Sleep(testTypingTimeout / 2)
	typing.Start("alice", conversationID, "bob")
	time.Sleep(testTypingTimeout / 2)

	// Then the first timer did not tear the refreshed state down
	req.True(typing.IsTyping("alice", conversationID))
}

func TestTyping_Stop_CancelsTimerAndNotifies(t *testing.T) {
	req := require.New(t)
	typing, registry := newTestTyping()
	bobSink := &recordingSink{}
	registry.Bind("bob", bobSink)
	conversationID := uuid.New()

	// Given alice is typing
	typing.Start("alice", conversationID, "bob")

	// When she stops explicitly
	typing.Stop("alice", conversationID, "bob")

	// Then the state is idle and exactly one isTyping=false was emitted
	req.False(typing.IsTyping("alice", conversationID))
	events := typingEvents(bobSink)
	req.Len(events, 2)
	req.False(events[1].IsTyping)

	// And the expired timer stays silent afterwards
	time.Sleep(2 * testTypingTimeout)
	req.Len(typingEvents(bobSink), 2)
}

func TestTyping_CancelAll_IsSilent(t *testing.T) {
	req := require.New(t)
	typing, registry := newTestTyping()
	bobSink := &recordingSink{}
	registry.Bind("bob", bobSink)
	first := uuid.New()
	second := uuid.New()

	// Given alice types in two conversations
	typing.Start("alice", first, "bob")
	typing.Start("alice", second, "bob")
	before := len(typingEvents(bobSink))

	// When her session dies
	typing.CancelAll("alice")

	// Then all her state is gone without stop events
	req.False(typing.IsTyping("alice", first))
	req.False(typing.IsTyping("alice", second))
	req.Len(typingEvents(bobSink), before)
}

func TestTyping_IgnoresIncompleteIdentity(t *testing.T) {
	req := require.New(t)
	typing, _ := newTestTyping()

	typing.Start("", uuid.New(), "bob")
	typing.Start("alice", uuid.Nil, "bob")
	typing.Start("alice", uuid.New(), "")

	req.Empty(typing.entries)
}
