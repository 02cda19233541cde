package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"pingme/contract"
	"pingme/domain/chat"
	"pingme/domain/event"
	"pingme/domain/media"
	"pingme/errors"
	"pingme/moderation"
	"pingme/repositories"
	"pingme/runtime/workers"
	"pingme/search"
)

// MediaStore persists attachment blobs and resolves them to URLs.
type MediaStore interface {
	Save(data []byte, mime media.MIME) (string, error)
	Remove(url string) error
}

// MessageSearcher resolves free-text queries to indexed message hits.
type MessageSearcher interface {
	Search(ctx context.Context, callerID, terms string, limit int) ([]search.Hit, error)
}

type IChatService interface {
	SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error)
	MarkAsRead(ctx context.Context, cmd chat.MarkAsReadCommand) error
	DeleteMessage(ctx context.Context, cmd chat.DeleteMessageCommand) error
	React(ctx context.Context, cmd chat.ReactCommand) (chat.Message, error)
	GetConversations(userID string) ([]chat.Conversation, error)
	GetMessages(ctx context.Context, callerID string, conversationID uuid.UUID) ([]chat.Message, error)
	Search(ctx context.Context, cmd chat.SearchCommand) ([]chat.Message, error)
}

type ChatService struct {
	messages      repositories.IMessageRepository
	conversations repositories.IConversationRepository
	presence      contract.IPresence
	router        contract.IRouter
	moderator     *moderation.Moderator
	mediaStore    MediaStore
	searcher      MessageSearcher
	indexOps      chan<- workers.IndexOp
	log           *slog.Logger
	now           func() time.Time
}

func NewChatService(
	messages repositories.IMessageRepository,
	conversations repositories.IConversationRepository,
	presence contract.IPresence,
	router contract.IRouter,
	moderator *moderation.Moderator,
	mediaStore MediaStore,
	searcher MessageSearcher,
	indexOps chan<- workers.IndexOp,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		messages:      messages,
		conversations: conversations,
		presence:      presence,
		router:        router,
		moderator:     moderator,
		mediaStore:    mediaStore,
		searcher:      searcher,
		indexOps:      indexOps,
		log:           log,
		now:           time.Now,
	}
}

// SendMessage persists a message and pushes it to both participants.
// When the receiver is online the message is stored already delivered, so
// the echoed copy carries the final status in one roundtrip.
func (s *ChatService) SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error) {
	if cmd.SenderID == "" || cmd.ReceiverID == "" || cmd.SenderID == cmd.ReceiverID {
		return chat.Message{}, fmt.Errorf("%w: invalid participants", errors.ErrValidation)
	}
	if cmd.Content == "" && len(cmd.Media) == 0 {
		return chat.Message{}, fmt.Errorf("%w: empty message", errors.ErrValidation)
	}

	at := cmd.At
	if at.IsZero() {
		at = s.now()
	}

	contentType := chat.ContentTypeText
	mediaURL := ""
	if len(cmd.Media) > 0 {
		ct, mime, err := media.Sniff(cmd.Media)
		if err != nil {
			return chat.Message{}, err
		}
		url, err := s.mediaStore.Save(cmd.Media, mime)
		if err != nil {
			return chat.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		contentType = ct
		mediaURL = url
	}

	content := cmd.Content
	language := ""
	if content != "" {
		sanitized, found := s.moderator.Censor(content)
		if len(found) > 0 {
			s.log.Warn("Censored outgoing message", "sender", cmd.SenderID, "words", len(found))
		}
		content = sanitized
		language = moderation.DetectLanguage(content)
	}

	conversation, err := s.conversations.FindOrCreate(cmd.SenderID, cmd.ReceiverID, at)
	if err != nil {
		return chat.Message{}, err
	}

	msg := chat.Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		SenderID:       cmd.SenderID,
		ReceiverID:     cmd.ReceiverID,
		Content:        content,
		MediaURL:       mediaURL,
		ContentType:    contentType,
		Status:         chat.StatusSent,
		Language:       language,
		CreatedAt:      at,
	}

	// Presence is checked before the write so the stored status and the
	// echoed copies agree.
	if _, online := s.presence.Lookup(cmd.ReceiverID); online {
		msg.Promote(chat.StatusDelivered)
	}

	if err := s.messages.Store(msg); err != nil {
		return chat.Message{}, err
	}

	conversation.LastMessageID = msg.ID
	conversation.UnreadCount++
	conversation.UpdatedAt = at
	if err := s.conversations.Save(conversation); err != nil {
		return chat.Message{}, err
	}

	e := event.Event{Name: event.ReceiveMessage, Payload: msg}
	s.router.SendTo(ctx, msg.ReceiverID, e)
	s.router.SendTo(ctx, msg.SenderID, e)

	if msg.ContentType == chat.ContentTypeText {
		s.enqueueIndex(workers.IndexOp{Message: msg})
	}
	return msg, nil
}

// MarkAsRead promotes the given messages to read and tells each sender.
// Only the receiver of a message may read it; foreign and unknown IDs are
// skipped so a stale client cannot fail the whole batch.
func (s *ChatService) MarkAsRead(ctx context.Context, cmd chat.MarkAsReadCommand) error {
	readBySender := make(map[string][]uuid.UUID)
	touchedConversations := make(map[uuid.UUID]struct{})

	for _, id := range cmd.MessageIDs {
		msg, err := s.messages.Get(id)
		if err != nil {
			continue
		}
		if msg.ReceiverID != cmd.ReaderID {
			continue
		}
		if !msg.Promote(chat.StatusRead) {
			continue
		}
		if err := s.messages.Save(msg); err != nil {
			return err
		}
		readBySender[msg.SenderID] = append(readBySender[msg.SenderID], msg.ID)
		touchedConversations[msg.ConversationID] = struct{}{}
	}

	for conversationID := range touchedConversations {
		s.resetUnread(conversationID)
	}

	for senderID, ids := range readBySender {
		s.router.SendTo(ctx, senderID, event.Event{
			Name: event.MessageRead,
			Payload: event.MessageStatusPayload{
				MessageIDs: ids,
				Status:     chat.StatusRead,
			},
		})
	}
	return nil
}

// DeleteMessage removes a message, sender-only.
func (s *ChatService) DeleteMessage(ctx context.Context, cmd chat.DeleteMessageCommand) error {
	msg, err := s.messages.Get(cmd.MessageID)
	if err != nil {
		return err
	}
	if msg.SenderID != cmd.CallerID {
		return fmt.Errorf("%w: only the sender can delete a message", errors.ErrNotAuthorized)
	}

	if _, err := s.messages.Delete(cmd.MessageID); err != nil {
		return err
	}
	if msg.MediaURL != "" {
		if err := s.mediaStore.Remove(msg.MediaURL); err != nil {
			s.log.Warn("Unable to remove media file", "url", msg.MediaURL, "error", err)
		}
	}
	if msg.ContentType == chat.ContentTypeText {
		s.enqueueIndex(workers.IndexOp{Message: msg, Remove: true})
	}

	s.router.SendTo(ctx, msg.ReceiverID, event.Event{
		Name:    event.MessageDeleted,
		Payload: event.MessageDeletedPayload{MessageID: msg.ID},
	})
	return nil
}

// React toggles the caller's emoji on a message and pushes the updated
// reaction list to both participants.
func (s *ChatService) React(ctx context.Context, cmd chat.ReactCommand) (chat.Message, error) {
	if cmd.Emoji == "" {
		return chat.Message{}, fmt.Errorf("%w: empty emoji", errors.ErrValidation)
	}

	msg, err := s.messages.Get(cmd.MessageID)
	if err != nil {
		return chat.Message{}, err
	}
	if msg.SenderID != cmd.ReactorID && msg.ReceiverID != cmd.ReactorID {
		return chat.Message{}, fmt.Errorf("%w: not a participant", errors.ErrNotAuthorized)
	}

	msg.ApplyReaction(cmd.ReactorID, cmd.Emoji)
	if err := s.messages.Save(msg); err != nil {
		return chat.Message{}, err
	}

	e := event.Event{
		Name: event.ReactionUpdate,
		Payload: event.ReactionUpdatePayload{
			MessageID: msg.ID,
			Reactions: msg.Reactions,
		},
	}
	s.router.SendTo(ctx, msg.SenderID, e)
	s.router.SendTo(ctx, msg.ReceiverID, e)
	return msg, nil
}

func (s *ChatService) GetConversations(userID string) ([]chat.Conversation, error) {
	return s.conversations.ListForUser(userID)
}

// GetMessages returns the conversation history for a participant. Opening a
// conversation counts as reading it: incoming messages are promoted to read
// and each sender is notified, mirroring MarkAsRead.
func (s *ChatService) GetMessages(ctx context.Context, callerID string, conversationID uuid.UUID) ([]chat.Message, error) {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.Has(callerID) {
		return nil, fmt.Errorf("%w: not a participant", errors.ErrNotAuthorized)
	}

	messages, err := s.messages.ListByConversation(conversationID)
	if err != nil {
		return nil, err
	}

	readBySender := make(map[string][]uuid.UUID)
	for i := range messages {
		if messages[i].ReceiverID != callerID || !messages[i].Promote(chat.StatusRead) {
			continue
		}
		if err := s.messages.Save(messages[i]); err != nil {
			return nil, err
		}
		readBySender[messages[i].SenderID] = append(readBySender[messages[i].SenderID], messages[i].ID)
	}

	if len(readBySender) > 0 {
		s.resetUnread(conversationID)
	}
	for senderID, ids := range readBySender {
		s.router.SendTo(ctx, senderID, event.Event{
			Name: event.MessageRead,
			Payload: event.MessageStatusPayload{
				MessageIDs: ids,
				Status:     chat.StatusRead,
			},
		})
	}
	return messages, nil
}

// Search resolves full-text hits back to stored messages. Hits whose message
// has been deleted since indexing are dropped.
func (s *ChatService) Search(ctx context.Context, cmd chat.SearchCommand) ([]chat.Message, error) {
	if cmd.Terms == "" {
		return nil, fmt.Errorf("%w: empty search terms", errors.ErrValidation)
	}
	limit := cmd.Limit
	if limit <= 0 {
		limit = 20
	}

	hits, err := s.searcher.Search(ctx, cmd.CallerID, cmd.Terms, limit)
	if err != nil {
		return nil, err
	}

	return lo.FilterMap(hits, func(hit search.Hit, _ int) (chat.Message, bool) {
		msg, err := s.messages.Get(hit.MessageID)
		return msg, err == nil
	}), nil
}

func (s *ChatService) resetUnread(conversationID uuid.UUID) {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return
	}
	conversation.UnreadCount = 0
	if err := s.conversations.Save(conversation); err != nil {
		s.log.Warn("Unable to reset unread count", "conversation", conversationID, "error", err)
	}
}

// enqueueIndex hands the op to the indexer worker without blocking the send
// path. Search lags behind rather than slowing message delivery.
func (s *ChatService) enqueueIndex(op workers.IndexOp) {
	select {
	case s.indexOps <- op:
	default:
		s.log.Warn("Index queue full, dropping index op", "message", op.Message.ID)
	}
}
