package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingDeleter struct {
	sweeps atomic.Int32
}

func (d *countingDeleter) DeleteExpired(time.Time) (int, error) {
	d.sweeps.Add(1)
	return 1, nil
}

func TestStatusReaper_SweepsOnEveryTick(t *testing.T) {
	req := require.New(t)
	deleter := &countingDeleter{}
	worker := NewStatusReaperWorker(deleter, 10*time.Millisecond, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// Then the sweep fires repeatedly until the context ends
	req.Eventually(func() bool {
		return deleter.sweeps.Load() >= 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
