package workers

import (
	"context"
	"log/slog"

	"pingme/domain/chat"
)

// MessageIndexer is the write side of the search index.
type MessageIndexer interface {
	Index(msg chat.Message) error
	Delete(msg chat.Message) error
}

// IndexOp carries one index mutation from the chat service to the worker.
type IndexOp struct {
	Message chat.Message
	Remove  bool
}

// IndexerWorker feeds persisted messages into the full-text index off the
// request path. Indexing is best-effort: a failed write costs one message
// in search results, never a failed send.
type IndexerWorker struct {
	index MessageIndexer
	ops   chan IndexOp
	log   *slog.Logger
}

func NewIndexerWorker(index MessageIndexer, ops chan IndexOp, log *slog.Logger) *IndexerWorker {
	return &IndexerWorker{index: index, ops: ops, log: log}
}

func (w *IndexerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping indexer")
			return ctx.Err()
		case op, ok := <-w.ops:
			if !ok {
				return nil
			}
			var err error
			if op.Remove {
				err = w.index.Delete(op.Message)
			} else {
				err = w.index.Index(op.Message)
			}
			if err != nil {
				w.log.Warn("Index update failed",
					"message_id", op.Message.ID,
					"remove", op.Remove,
					"error", err)
			}
		}
	}
}
