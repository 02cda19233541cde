// Package search maintains the full-text index over message content.
// It handles indexing and querying only; which messages get indexed is
// decided by the service layer.
package search

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"pingme/domain/chat"
)

// MessageIndex wraps a Bluge index holding one document per text message.
// Stored fields keep the hit list self-sufficient: search results resolve
// to message IDs without a second store round-trip per hit.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func OpenMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}

func (i *MessageIndex) Index(msg chat.Message) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewTextField("content", msg.Content)).
		AddField(bluge.NewKeywordField("conversation", msg.ConversationID.String()).StoreValue()).
		AddField(bluge.NewKeywordField("sender", msg.SenderID).StoreValue()).
		AddField(bluge.NewKeywordField("receiver", msg.ReceiverID).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

func (i *MessageIndex) Delete(msg chat.Message) error {
	doc := bluge.NewDocument(msg.ID.String())
	return i.writer.Delete(doc.ID())
}

// Hit is one search result, limited to what the index stores.
type Hit struct {
	MessageID      uuid.UUID
	ConversationID uuid.UUID
	SenderID       string
	ReceiverID     string
}

// Search runs a match query over message content and keeps only hits where
// callerID is a participant, so users never search other people's chats.
func (i *MessageIndex) Search(ctx context.Context, callerID, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	query := bluge.NewMatchQuery(terms).SetField("content")
	request := bluge.NewTopNSearch(limit, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID, _ = uuid.Parse(string(value))
			case "conversation":
				hit.ConversationID, _ = uuid.Parse(string(value))
			case "sender":
				hit.SenderID = string(value)
			case "receiver":
				hit.ReceiverID = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if hit.SenderID == callerID || hit.ReceiverID == callerID {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}
