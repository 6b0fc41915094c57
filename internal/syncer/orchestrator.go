package syncer

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/events"
	"github.com/reelfocus/reelfocus/internal/store"
)

// Status is the observable sync state collaborators render.
type Status struct {
	IsSyncing    bool
	LastSyncTime *time.Time
	LastError    string
}

// Orchestrator runs full syncs in dependency order. At most one full sync
// is in flight process-wide: a request arriving while one runs is dropped,
// not queued. Individual create/update/delete calls are not serialized
// against a running sync; the needs-sync preservation rule in the reconcile
// step is what keeps that race from losing data.
type Orchestrator struct {
	userID   string
	store    store.Store
	profiles *ProfileManager
	goals    *GoalManager
	tasks    *TaskManager
	items    *ItemManager
	bus      *events.Bus
	log      zerolog.Logger

	syncing atomic.Bool

	mu       sync.Mutex
	lastSync *time.Time
	lastErr  string
}

func NewOrchestrator(userID string, st store.Store, profiles *ProfileManager, goals *GoalManager, tasks *TaskManager, items *ItemManager, bus *events.Bus, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		userID:   userID,
		store:    st,
		profiles: profiles,
		goals:    goals,
		tasks:    tasks,
		items:    items,
		bus:      bus,
		log:      log,
	}
	if ts, err := st.Meta().LastSyncTime(context.Background()); err == nil {
		o.lastSync = ts
	}
	return o
}

// Status returns a snapshot of the orchestrator's observable state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{IsSyncing: o.syncing.Load(), LastSyncTime: o.lastSync, LastError: o.lastErr}
}

// FullSync runs one complete sync pass and reports success.
//
// Order is fixed: pending deletions for every family first, so a delete is
// never raced by a stale update; then pending edits, goals before tasks so
// a task's parent exists remotely; then reconciles, tasks scoped to the
// goal set the first reconcile just made current.
//
// Per-entity remote failures are swallowed by the managers and only show up
// in the aggregate LastError. A local persistence failure aborts the
// remaining steps; progress already committed stays, the pass is safe to
// re-run.
func (o *Orchestrator) FullSync(ctx context.Context) bool {
	if o.userID == "" {
		o.log.Debug().Msg("no signed-in user, skipping sync")
		return false
	}
	if !o.syncing.CompareAndSwap(false, true) {
		o.log.Debug().Msg("sync already in flight, dropping request")
		return false
	}
	defer o.syncing.Store(false)

	o.log.Info().Msg("full sync starting")

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"delete goals", o.goals.SyncPendingDeletions},
		{"delete tasks", o.tasks.SyncPendingDeletions},
		{"delete items", o.items.SyncPendingDeletions},
		{"push profile", o.profiles.SyncPendingEdits},
		{"push goals", o.goals.SyncPendingEdits},
		{"push tasks", o.tasks.SyncPendingEdits},
		{"push items", o.items.SyncPendingEdits},
		{"reconcile goals", o.goals.Reconcile},
		{"reconcile tasks", o.tasks.Reconcile},
		{"reconcile items", o.items.Reconcile},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			o.fail(step.name, err)
			return false
		}
	}

	now := time.Now().UTC()
	if err := o.store.Meta().SetLastSyncTime(ctx, now); err != nil {
		o.fail("record sync time", err)
		return false
	}

	soft := o.collectSoftErrors()
	o.mu.Lock()
	o.lastSync = &now
	o.lastErr = soft
	o.mu.Unlock()

	if o.bus != nil {
		o.bus.Publish(events.Event{Kind: events.EventSyncCompleted})
	}
	o.log.Info().Str("soft_errors", soft).Msg("full sync completed")
	return true
}

func (o *Orchestrator) fail(step string, err error) {
	msg := step + ": " + err.Error()
	// drain the soft-error buffers so remote failures from this aborted
	// pass surface here instead of leaking into the next pass's status
	if soft := o.collectSoftErrors(); soft != "" {
		msg += "; " + soft
	}
	o.mu.Lock()
	o.lastErr = msg
	o.mu.Unlock()
	if o.bus != nil {
		o.bus.Publish(events.Event{Kind: events.EventSyncFailed, Err: msg})
	}
	o.log.Error().Stack().Err(err).Str("step", step).Msg("full sync aborted")
}

// collectSoftErrors aggregates the remote failures the managers recorded
// during this pass into one diagnostic string.
func (o *Orchestrator) collectSoftErrors() string {
	var parts []string
	for _, s := range []string{
		o.profiles.TakeSoftError(),
		o.goals.TakeSoftError(),
		o.tasks.TakeSoftError(),
		o.items.TakeSoftError(),
	} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}
