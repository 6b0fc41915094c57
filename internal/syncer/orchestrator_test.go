package syncer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reelfocus/reelfocus/internal/events"
	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
	"github.com/reelfocus/reelfocus/internal/store"
)

func TestFullSync_RunsDeletionsBeforePushesBeforeFetches(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// one pending deletion, one pending edit, and a remote record to fetch
	require.NoError(t, e.registry.Add(ctx, model.KindGoal, "g-del"))
	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "g-edit", Name: "push me", NeedsSync: true}))
	seedRemoteGoal(t, e.remote, &model.Goal{ID: "g-remote", Name: "pull me"})

	require.True(t, e.orch.FullSync(ctx))

	var delIdx, saveIdx, fetchIdx = -1, -1, -1
	for i, op := range e.remote.opLog() {
		switch {
		case strings.HasPrefix(op, "delete goal") && delIdx == -1:
			delIdx = i
		case strings.HasPrefix(op, "save goal") && saveIdx == -1:
			saveIdx = i
		case strings.HasPrefix(op, "fetch goal") && fetchIdx == -1:
			fetchIdx = i
		}
	}
	require.GreaterOrEqual(t, delIdx, 0)
	require.Greater(t, saveIdx, delIdx)
	require.Greater(t, fetchIdx, saveIdx)
}

func TestFullSync_Converges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.goals.Create(ctx, "offline goal", time.Now().Add(48*time.Hour), "made without a network")
	require.NoError(t, err)
	task, err := e.tasks.Create(ctx, g.ID, "offline task", time.Now(), 50)
	require.NoError(t, err)

	require.True(t, e.orch.FullSync(ctx))

	rec, ok := e.remote.get(model.KindGoal, g.ID)
	require.True(t, ok)
	pushed, err := remote.DecodeGoal(rec)
	require.NoError(t, err)
	require.Equal(t, "offline goal", pushed.Name)

	_, ok = e.remote.get(model.KindTask, task.ID)
	require.True(t, ok)

	stored, err := e.goals.Get(ctx, g.ID)
	require.NoError(t, err)
	require.False(t, stored.NeedsSync)
	storedTask, err := e.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.False(t, storedTask.NeedsSync)

	st := e.orch.Status()
	require.NotNil(t, st.LastSyncTime)
	require.Empty(t, st.LastError)
}

func TestFullSync_OfflineDeleteSettlesOnNextSync(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	seedRemoteGoal(t, e.remote, &model.Goal{ID: "g1", Name: "shared"})
	require.True(t, e.orch.FullSync(ctx))

	g, err := e.goals.Get(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, e.goals.Delete(ctx, g))

	// the delete is queued, not yet applied remotely
	_, ok := e.remote.get(model.KindGoal, "g1")
	require.True(t, ok)

	require.True(t, e.orch.FullSync(ctx))
	_, ok = e.remote.get(model.KindGoal, "g1")
	require.False(t, ok)
	_, err = e.goals.Get(ctx, "g1")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestFullSync_SkippedWithoutUser(t *testing.T) {
	e := newEnv(t)

	orch := NewOrchestrator("", e.store, e.profiles, e.goals, e.tasks, e.items, nil, zerolog.Nop())
	require.False(t, orch.FullSync(context.Background()))
	require.Empty(t, e.remote.opLog())
}

func TestFullSync_DropsOverlappingRequest(t *testing.T) {
	e := newEnv(t)

	e.orch.syncing.Store(true)
	require.False(t, e.orch.FullSync(context.Background()))
	require.Empty(t, e.remote.opLog())
	e.orch.syncing.Store(false)
}

func TestFullSync_RemoteOutageIsSoftError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.goals.Create(ctx, "stuck", time.Now(), "")
	require.NoError(t, err)

	e.remote.setFail(remote.ErrUnavailable)
	require.True(t, e.orch.FullSync(ctx))

	st := e.orch.Status()
	require.NotNil(t, st.LastSyncTime)
	require.NotEmpty(t, st.LastError)

	stored, err := e.goals.Get(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, stored.NeedsSync)
}

func TestFullSync_LocalStoreFailureAborts(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.store.Close())
	require.False(t, e.orch.FullSync(context.Background()))
	require.NotEmpty(t, e.orch.Status().LastError)
}

// flakyTasks fails the next failLists ListNeedingSync calls.
type flakyTasks struct {
	store.Tasks
	failLists int
}

func (f *flakyTasks) ListNeedingSync(ctx context.Context) ([]*model.Task, error) {
	if f.failLists > 0 {
		f.failLists--
		return nil, fmt.Errorf("disk read failed")
	}
	return f.Tasks.ListNeedingSync(ctx)
}

type flakyTaskStore struct {
	store.Store
	tasks *flakyTasks
}

func (f *flakyTaskStore) Tasks() store.Tasks { return f.tasks }

func TestFullSync_AbortedPassDoesNotLeakSoftErrors(t *testing.T) {
	var flaky *flakyTasks
	e := newEnvWith(t, func(st store.Store) store.Store {
		flaky = &flakyTasks{Tasks: st.Tasks()}
		return &flakyTaskStore{Store: st, tasks: flaky}
	})
	ctx := context.Background()

	// the goal push fails soft against an unreachable remote, then the task
	// push aborts the pass on a local read failure
	_, err := e.goals.Create(ctx, "stuck", time.Now(), "")
	require.NoError(t, err)
	e.remote.setFail(remote.ErrUnavailable)
	flaky.failLists = 1

	require.False(t, e.orch.FullSync(ctx))
	st := e.orch.Status()
	require.Contains(t, st.LastError, "push tasks")
	require.Contains(t, st.LastError, "unavailable")

	// everything heals; the clean pass must not carry the old remote error
	e.remote.setFail(nil)
	require.True(t, e.orch.FullSync(ctx))
	require.Empty(t, e.orch.Status().LastError)
}

func TestFullSync_PublishesCompletionEvent(t *testing.T) {
	e := newEnv(t)
	bus := events.NewBus(4)
	sub := bus.Subscribe()

	orch := NewOrchestrator(testUser, e.store, e.profiles, e.goals, e.tasks, e.items, bus, zerolog.Nop())
	require.True(t, orch.FullSync(context.Background()))

	select {
	case evt := <-sub:
		require.Equal(t, events.EventSyncCompleted, evt.Kind)
	default:
		t.Fatal("expected a sync completion event")
	}
}

func TestFullSync_PersistsLastSyncTime(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.True(t, e.orch.FullSync(ctx))

	ts, err := e.store.Meta().LastSyncTime(ctx)
	require.NoError(t, err)
	require.NotNil(t, ts)

	// a fresh orchestrator over the same store sees the recorded time
	reloaded := NewOrchestrator(testUser, e.store, e.profiles, e.goals, e.tasks, e.items, nil, zerolog.Nop())
	st := reloaded.Status()
	require.NotNil(t, st.LastSyncTime)
	require.WithinDuration(t, *ts, *st.LastSyncTime, time.Second)
}
