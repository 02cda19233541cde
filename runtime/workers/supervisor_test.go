package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pingme/domain/chat"
)

// funcWorker adapts a closure into a contract.Worker for the tests.
type funcWorker struct {
	run func(ctx context.Context) error
}

func (w *funcWorker) Run(ctx context.Context) error {
	return w.run(ctx)
}

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	var calls atomic.Int32
	worker := &funcWorker{run: func(ctx context.Context) error {
		calls.Add(1)
		panic("boom")
	}}

	sup := NewSupervisor(log, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go sup.Add(worker).Run(ctx)

	// Waiting for panics and restarts
	req.Eventually(func() bool {
		return calls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a worker running only once
	worker := &funcWorker{run: func(ctx context.Context) error {
		return nil
	}}

	sup := NewSupervisor(log, 10*time.Millisecond)

	// Given a channel to notify when Run() terminated
	done := make(chan struct{})

	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then the supervisor detected a success, returned and stopped
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_StopCancelsWorkers(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a worker blocking until its context is canceled
	worker := &funcWorker{run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	sup := NewSupervisor(log, 10*time.Millisecond)
	done := make(chan struct{})

	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	// When the supervisor is asked to stop
	time.Sleep(20 * time.Millisecond)
	sup.Stop()

	select {
	case <-done:
		// Then Run unblocked once the worker returned
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after Stop()")
	}
}

func TestIndexerWorker_AppliesOps(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	var indexed, deleted atomic.Int32
	index := &stubIndexer{
		onIndex:  func() { indexed.Add(1) },
		onDelete: func() { deleted.Add(1) },
	}
	ops := make(chan IndexOp, 4)
	worker := NewIndexerWorker(index, ops, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// When an add and a remove flow through the queue
	ops <- IndexOp{}
	ops <- IndexOp{Remove: true}

	req.Eventually(func() bool {
		return indexed.Load() == 1 && deleted.Load() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

type stubIndexer struct {
	onIndex  func()
	onDelete func()
}

func (s *stubIndexer) Index(chat.Message) error {
	s.onIndex()
	return nil
}

func (s *stubIndexer) Delete(chat.Message) error {
	s.onDelete()
	return nil
}
