// Package ws carries the realtime surface: one Session per socket, a read
// pump for inbound signals and a write pump draining the session sink.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pingme/contract"
	"pingme/domain/chat"
	"pingme/domain/event"
	"pingme/services"
	"pingme/sink"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second // must stay below pongWait
	maxMessageSize = 64 * 1024
)

// Inbound signal names, mirroring the outbound event vocabulary.
const (
	SignalUserConnected = "user_connected"
	SignalGetUserStatus = "get_user_status"
	SignalSendMessage   = "send_message"
	SignalMessageRead   = "message_read"
	SignalAddReaction   = "add_reaction"
	SignalTypingStart   = "typing_start"
	SignalTypingStop    = "typing_stop"
	SignalViewStatus    = "view_status"
	SignalDisconnect    = "disconnect"
)

// signal is the inbound envelope, symmetric with event.Event.
type signal struct {
	Name    event.Name      `json:"event"`
	Payload json.RawMessage `json:"data,omitempty"`
}

// Session owns one socket. It stays anonymous until the client announces
// itself with user_connected; only then does it join the presence registry.
// The write pump is the only goroutine that touches the connection for
// writes. Identity signals arriving before the announce are ignored.
type Session struct {
	userID   string
	bound    bool
	conn     *websocket.Conn
	sink     *sink.SessionSink
	presence contract.IPresence
	router   contract.IRouter
	typing   contract.ITyping
	chat     services.IChatService
	statuses services.IStatusService
	log      *slog.Logger
	done     chan struct{}
}

func NewSession(
	conn *websocket.Conn,
	sessionSink *sink.SessionSink,
	presence contract.IPresence,
	router contract.IRouter,
	typing contract.ITyping,
	chatService services.IChatService,
	statusService services.IStatusService,
	log *slog.Logger,
) *Session {
	return &Session{
		conn:     conn,
		sink:     sessionSink,
		presence: presence,
		router:   router,
		typing:   typing,
		chat:     chatService,
		statuses: statusService,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Run starts the write pump and blocks on the read pump until the socket
// dies. The session joins the presence registry only once the client sends
// user_connected.
func (s *Session) Run(ctx context.Context) {
	// s.log is reassigned by the read path once the session binds; the
	// write pump gets its own reference so the two goroutines never share
	// the field.
	go s.writePump(s.log)
	s.readPump(ctx)
	s.cleanup(ctx)
}

func (s *Session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Warn("Socket read failed", "error", err)
			}
			return
		}
		s.handleSignal(ctx, data)
	}
}

func (s *Session) writePump(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case e := <-s.sink.Events:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(e); err != nil {
				log.Warn("Socket write failed", "event", e.Name, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// cleanup tears down presence and typing state. It runs once per socket.
// An anonymous session leaves no trace; a user who already reconnected on a
// new socket keeps their new registration, only the session whose sink is
// still bound announces the offline transition.
func (s *Session) cleanup(ctx context.Context) {
	close(s.done)

	if !s.bound {
		return
	}
	if current, ok := s.presence.Lookup(s.userID); ok && current == contract.EventSink(s.sink) {
		s.typing.CancelAll(s.userID)
		s.presence.Remove(ctx, s.userID)
	}
	s.log.Debug("Session closed", "user", s.userID)
}

func (s *Session) handleSignal(ctx context.Context, data []byte) {
	var sig signal
	if err := json.Unmarshal(data, &sig); err != nil {
		s.log.Warn("Dropping malformed signal", "error", err)
		return
	}

	if !s.bound && string(sig.Name) != SignalUserConnected {
		s.log.Debug("Ignoring signal from unbound session", "signal", sig.Name)
		return
	}

	switch string(sig.Name) {
	case SignalUserConnected:
		s.handleUserConnected(ctx, sig.Payload)
	case SignalGetUserStatus:
		s.handleGetUserStatus(ctx, sig.Payload)
	case SignalSendMessage:
		s.handleSendMessage(ctx, sig.Payload)
	case SignalMessageRead:
		s.handleMessageRead(ctx, sig.Payload)
	case SignalAddReaction:
		s.handleAddReaction(ctx, sig.Payload)
	case SignalTypingStart:
		s.handleTyping(sig.Payload, true)
	case SignalTypingStop:
		s.handleTyping(sig.Payload, false)
	case SignalViewStatus:
		s.handleViewStatus(ctx, sig.Payload)
	case SignalDisconnect:
		// Closing the connection unblocks the read pump, which runs the
		// regular cleanup path.
		_ = s.conn.Close()
	default:
		s.log.Debug("Unknown signal", "signal", sig.Name)
	}
}

// handleUserConnected binds the socket to a user and announces them online.
// Re-announcing on the same socket is ignored.
func (s *Session) handleUserConnected(ctx context.Context, payload json.RawMessage) {
	if s.bound {
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.UserID == "" {
		return
	}

	s.userID = req.UserID
	s.bound = true
	s.log = s.log.With("user", s.userID)
	s.presence.Announce(ctx, s.userID, s.sink)
}

func (s *Session) handleGetUserStatus(ctx context.Context, payload json.RawMessage) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.UserID == "" {
		return
	}

	reply := event.UserStatusPayload{UserID: req.UserID}
	if lastSeen, online := s.presence.LastSeen(ctx, req.UserID); online {
		reply.IsOnline = true
	} else if !lastSeen.IsZero() {
		reply.LastSeen = &lastSeen
	}

	if err := s.sink.Consume(ctx, event.Event{Name: event.UserStatus, Payload: reply}); err != nil {
		s.log.Warn("Unable to reply user status", "error", err)
	}
}

// handleSendMessage relays an already persisted message record to its
// receiver. Persistence happens on the HTTP path; the socket signal is a
// pure delivery shortcut, so the record is forwarded as-is.
func (s *Session) handleSendMessage(ctx context.Context, payload json.RawMessage) {
	var msg chat.Message
	if err := json.Unmarshal(payload, &msg); err != nil || msg.ReceiverID == "" {
		return
	}
	if msg.SenderID != s.userID {
		s.log.Warn("Dropping relayed message with foreign sender", "sender", msg.SenderID)
		return
	}

	s.router.SendTo(ctx, msg.ReceiverID, event.Event{Name: event.ReceiveMessage, Payload: msg})
}

func (s *Session) handleMessageRead(ctx context.Context, payload json.RawMessage) {
	var req struct {
		MessageIDs []uuid.UUID `json:"messageIds"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || len(req.MessageIDs) == 0 {
		return
	}

	err := s.chat.MarkAsRead(ctx, chat.MarkAsReadCommand{
		ReaderID:   s.userID,
		MessageIDs: req.MessageIDs,
	})
	if err != nil {
		s.log.Warn("Read receipt failed", "error", err)
	}
}

func (s *Session) handleAddReaction(ctx context.Context, payload json.RawMessage) {
	var req struct {
		MessageID uuid.UUID `json:"messageId"`
		Emoji     string    `json:"emoji"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	_, err := s.chat.React(ctx, chat.ReactCommand{
		ReactorID: s.userID,
		MessageID: req.MessageID,
		Emoji:     req.Emoji,
	})
	if err != nil {
		s.log.Warn("Reaction failed", "error", err)
	}
}

func (s *Session) handleTyping(payload json.RawMessage, start bool) {
	var req struct {
		ConversationID uuid.UUID `json:"conversationId"`
		ReceiverID     string    `json:"receiverId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.ReceiverID == "" {
		return
	}

	if start {
		s.typing.Start(s.userID, req.ConversationID, req.ReceiverID)
	} else {
		s.typing.Stop(s.userID, req.ConversationID, req.ReceiverID)
	}
}

func (s *Session) handleViewStatus(ctx context.Context, payload json.RawMessage) {
	var req struct {
		StatusID uuid.UUID `json:"statusId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	if _, err := s.statuses.ViewStatus(ctx, s.userID, req.StatusID); err != nil {
		s.log.Debug("Status view rejected", "status", req.StatusID, "error", err)
	}
}
