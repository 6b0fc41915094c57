package pushqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

func newTestExecutor(cfg Config) *Executor {
	return New(cfg, zerolog.Nop())
}

func TestExecutor_FIFOWithinFamily(t *testing.T) {
	e := newTestExecutor(Config{QueueSize: 16})
	defer e.Stop()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 8; i++ {
		i := i
		err := e.Submit(context.Background(), model.KindGoal, JobFunc(func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := e.Barrier(context.Background(), model.KindGoal); err != nil {
		t.Fatalf("barrier: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
}

func TestExecutor_RetriesUnavailableThenSucceeds(t *testing.T) {
	e := newTestExecutor(Config{QueueSize: 4, BaseBackoff: time.Millisecond, MaxAttempts: 5})
	defer e.Stop()

	var mu sync.Mutex
	calls := 0
	err := e.Submit(context.Background(), model.KindTask, JobFunc(func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: connection refused", remote.ErrUnavailable)
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.Barrier(context.Background(), model.KindTask); err != nil {
		t.Fatalf("barrier: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecutor_FailsFastOnRejection(t *testing.T) {
	e := newTestExecutor(Config{QueueSize: 4, BaseBackoff: time.Millisecond, MaxAttempts: 5})
	defer e.Stop()

	var mu sync.Mutex
	calls := 0
	_ = e.Submit(context.Background(), model.KindItem, JobFunc(func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return fmt.Errorf("%w: quota", remote.ErrRejected)
	}))
	if err := e.Barrier(context.Background(), model.KindItem); err != nil {
		t.Fatalf("barrier: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("rejected job must not retry, got %d attempts", calls)
	}
}

func TestExecutor_SubmitAfterStop(t *testing.T) {
	e := newTestExecutor(Config{QueueSize: 1})
	e.Stop()
	e.Stop() // idempotent

	err := e.Submit(context.Background(), model.KindGoal, JobFunc(func(context.Context) error { return nil }))
	if !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("expected ErrExecutorClosed, got %v", err)
	}
}

func TestExecutor_QueueFull(t *testing.T) {
	e := newTestExecutor(Config{QueueSize: 1, EnqueueTimeout: 5 * time.Millisecond})
	defer e.Stop()

	block := make(chan struct{})
	defer close(block)
	// First job occupies the worker, second fills the buffer.
	_ = e.Submit(context.Background(), model.KindGoal, JobFunc(func(context.Context) error {
		<-block
		return nil
	}))
	_ = e.Submit(context.Background(), model.KindGoal, JobFunc(func(context.Context) error { return nil }))

	// Third submission must time out with a queue-full error. The worker may
	// have dequeued the buffered job already, so allow one extra fill.
	var err error
	for i := 0; i < 3; i++ {
		err = e.Submit(context.Background(), model.KindGoal, JobFunc(func(context.Context) error { return nil }))
		if err != nil {
			break
		}
	}
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	var qf *QueueFullError
	if !errors.As(err, &qf) || qf.Family != string(model.KindGoal) {
		t.Fatalf("expected QueueFullError for goal family, got %v", err)
	}
}
