// Package pushqueue provides the fire-and-forget push channel between the
// entity managers and the remote store. Each entity family gets its own
// FIFO queue and worker, so push attempts for one family never reorder,
// while families proceed independently. A job that keeps failing is dropped
// after its retries; the entity's needs-sync flag remains set, so the next
// full sync pass picks it up again.
package pushqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// Config controls queue sizing and retry pacing.
type Config struct {
	QueueSize      int           // per-family buffer
	EnqueueTimeout time.Duration // how long Submit waits for space
	MaxAttempts    int           // attempts per job for recoverable errors
	BaseBackoff    time.Duration // first retry delay
	MaxInterval    time.Duration // retry delay cap
	Pacing         time.Duration // pause between consecutive jobs of a family
}

// Executor runs push jobs with per-family FIFO ordering.
type Executor struct {
	cfg    Config
	queues map[model.Kind]chan queuedJob
	log    zerolog.Logger

	done   chan struct{}
	closed uint32

	wg sync.WaitGroup
}

// New constructs the executor and starts one worker per entity family.
func New(cfg Config, log zerolog.Logger) *Executor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 30 * time.Second
	}

	e := &Executor{
		cfg:    cfg,
		queues: make(map[model.Kind]chan queuedJob),
		log:    log,
		done:   make(chan struct{}),
	}
	for _, kind := range []model.Kind{model.KindProfile, model.KindGoal, model.KindTask, model.KindItem} {
		ch := make(chan queuedJob, cfg.QueueSize)
		e.queues[kind] = ch
		e.wg.Add(1)
		go e.runWorker(kind, ch)
	}
	return e
}

// Submit enqueues job on the family's queue.
//
//   - Returns nil on success.
//   - Returns ErrExecutorClosed if the executor is stopped.
//   - Returns a *QueueFullError if the queue has no space after
//     EnqueueTimeout.
//   - Returns ctx.Err() if the caller context is canceled first.
func (e *Executor) Submit(ctx context.Context, family model.Kind, job Job) error {
	if atomic.LoadUint32(&e.closed) == 1 {
		return ErrExecutorClosed
	}
	select {
	case <-e.done:
		return ErrExecutorClosed
	default:
	}

	ch, ok := e.queues[family]
	if !ok {
		return errors.New("pushqueue: unknown family " + string(family))
	}

	timer := time.NewTimer(e.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(string(family)).Inc()
		return nil
	case <-e.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(string(family)).Inc()
		return &QueueFullError{Family: string(family), Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier enqueues a no-op job on the family queue and waits until it runs,
// guaranteeing all previously submitted jobs for the family have completed.
func (e *Executor) Barrier(ctx context.Context, family model.Kind) error {
	done := make(chan struct{})
	j := JobFunc(func(context.Context) error {
		close(done)
		return nil
	})
	if err := e.Submit(ctx, family, j); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop signals workers to drain their queues, waits for them, then returns.
// Idempotent and safe for concurrent use.
func (e *Executor) Stop() {
	if !atomic.CompareAndSwapUint32(&e.closed, 0, 1) {
		return
	}
	close(e.done)
	e.wg.Wait()
	e.log.Debug().Msg("push executor stopped, all queues drained")
}

func (e *Executor) runWorker(family model.Kind, ch <-chan queuedJob) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("family", string(family)).Msg("push worker panic")
		}
	}()

	label := string(family)

	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			select {
			case <-qj.ctx.Done():
				// canceled before it ran; nothing to do
			default:
				e.runWithRetry(qj, label)
			}
			if e.cfg.Pacing > 0 {
				select {
				case <-time.After(e.cfg.Pacing):
				case <-e.done:
				}
			}

		case <-e.done:
			// Drain remaining jobs, preserving FIFO, then exit.
			for {
				select {
				case qj := <-ch:
					if qj.job != nil {
						_ = qj.job.Run(qj.ctx)
					}
				default:
					return
				}
			}
		}
	}
}

func (e *Executor) runWithRetry(qj queuedJob, label string) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = e.cfg.MaxInterval
	exp.Reset()

	for attempt := 1; ; attempt++ {
		err := qj.job.Run(qj.ctx)
		if err == nil {
			return
		}

		// Only unavailability is worth retrying here; everything else is
		// either permanent or picked up by the next full sync pass.
		if !errors.Is(err, remote.ErrUnavailable) || attempt >= e.cfg.MaxAttempts {
			failuresTotal.WithLabelValues(label).Inc()
			e.log.Warn().Err(err).Str("family", label).Int("attempts", attempt).Msg("push job dropped")
			return
		}

		select {
		case <-time.After(exp.NextBackOff()):
		case <-e.done:
			return
		case <-qj.ctx.Done():
			failuresTotal.WithLabelValues(label).Inc()
			return
		}
	}
}
