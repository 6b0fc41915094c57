package syncer

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/events"
	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/pending"
	"github.com/reelfocus/reelfocus/internal/pushqueue"
	"github.com/reelfocus/reelfocus/internal/remote"
	"github.com/reelfocus/reelfocus/internal/store"
)

// OnlineChecker reports current remote reachability. The connectivity
// monitor satisfies this; tests substitute a constant.
type OnlineChecker interface {
	Online() bool
}

// Deps carries the shared collaborators every manager is wired with.
// Queue, Monitor and Bus may be nil: a nil queue disables fire-and-forget
// pushes (mutations still flag entities for the next full sync), a nil
// monitor is treated as offline, a nil bus drops events.
type Deps struct {
	Store    store.Store
	Registry *pending.Registry
	Remote   remote.Store
	Queue    *pushqueue.Executor
	Monitor  OnlineChecker
	Bus      *events.Bus
	Log      zerolog.Logger
}

func (d Deps) online() bool {
	return d.Monitor != nil && d.Monitor.Online()
}

func (d Deps) publishChanged(kind model.Kind) {
	if d.Bus != nil {
		d.Bus.Publish(events.Event{Kind: events.EventEntitiesChanged, Family: kind})
	}
}

// submitPush enqueues a fire-and-forget job on the family queue. A full
// queue or closed executor is not an error worth surfacing: the entity
// stays flagged and the next full sync pushes it.
func (d Deps) submitPush(kind model.Kind, job pushqueue.Job) {
	if d.Queue == nil {
		return
	}
	if err := d.Queue.Submit(context.Background(), kind, job); err != nil {
		d.Log.Debug().Err(err).Str("kind", string(kind)).Msg("push not enqueued, deferring to next sync")
	}
}

// pushByIDJob builds the standard push job: re-read the entity at run time
// so the job pushes current fields, not the fields at enqueue time. An
// entity deleted in the meantime is a no-op.
func pushByIDJob[T any](eng *engine[T], id string) pushqueue.JobFunc {
	return func(ctx context.Context) error {
		ent, err := eng.ad.get(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return eng.pushOne(ctx, ent)
	}
}

// deleteJob builds the push job attempted right after a local delete while
// online: remote delete plus registry cleanup.
func deleteJob[T any](eng *engine[T], id string) pushqueue.JobFunc {
	return func(ctx context.Context) error {
		return eng.deleteRemote(ctx, id)
	}
}
