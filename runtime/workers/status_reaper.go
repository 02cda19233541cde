package workers

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredStatusDeleter is the slice of the status repository the reaper needs.
type ExpiredStatusDeleter interface {
	DeleteExpired(now time.Time) (int, error)
}

// StatusReaperWorker sweeps expired status posts out of the store.
// Badger already drops the entries through key TTLs; the sweep keeps listings
// exact in the window between logical expiry and TTL eviction.
type StatusReaperWorker struct {
	statuses ExpiredStatusDeleter
	interval time.Duration
	log      *slog.Logger
}

func NewStatusReaperWorker(statuses ExpiredStatusDeleter, interval time.Duration, log *slog.Logger) *StatusReaperWorker {
	return &StatusReaperWorker{statuses: statuses, interval: interval, log: log}
}

func (w *StatusReaperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping status reaper")
			return ctx.Err()
		case <-ticker.C:
			removed, err := w.statuses.DeleteExpired(time.Now().UTC())
			if err != nil {
				w.log.Warn("Status sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				w.log.Info("Expired statuses removed", "count", removed)
			}
		}
	}
}
