package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

func seedRemoteGoal(t *testing.T, rem *fakeRemote, g *model.Goal) {
	t.Helper()
	rec, err := remote.EncodeGoal(g)
	require.NoError(t, err)
	rem.put(rec)
}

func TestReconcile_InsertsUnknownRemoteGoals(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	seedRemoteGoal(t, e.remote, &model.Goal{ID: "g1", Name: "ship it", Due: time.Now().UTC()})

	out, err := e.goals.FetchAndReconcile(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "ship it", out[0].Name)
	require.False(t, out[0].NeedsSync)
}

func TestReconcile_OverwritesCleanLocal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "g1", Name: "old name"}))
	seedRemoteGoal(t, e.remote, &model.Goal{ID: "g1", Name: "new name"})

	out, err := e.goals.FetchAndReconcile(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "new name", out[0].Name)
}

func TestReconcile_PendingEditSurvivesFetch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "g1", Name: "local edit", NeedsSync: true}))
	seedRemoteGoal(t, e.remote, &model.Goal{ID: "g1", Name: "stale remote"})

	out, err := e.goals.FetchAndReconcile(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "local edit", out[0].Name)
	require.True(t, out[0].NeedsSync)
}

func TestReconcile_RemovesCleanLocalAbsentRemotely(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// a clean local record the remote no longer has was deleted elsewhere
	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "gone", Name: "deleted on other device"}))
	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "mine", Name: "offline creation", NeedsSync: true}))

	out, err := e.goals.FetchAndReconcile(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "mine", out[0].ID)

	_, err = e.store.Goals().Get(ctx, "gone")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestReconcile_RemoteDisappearanceAcrossCycles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	seedRemoteGoal(t, e.remote, &model.Goal{ID: "g1", Name: "shared"})

	out, err := e.goals.FetchAndReconcile(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// another device deletes the record between cycles
	e.remote.drop(model.KindGoal, "g1")

	out, err = e.goals.FetchAndReconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestReconcile_FetchFailureKeepsLocalState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "g1", Name: "keep me"}))
	e.remote.setFail(remote.ErrUnavailable)

	out, err := e.goals.FetchAndReconcile(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "keep me", out[0].Name)
	require.NotEmpty(t, e.goals.TakeSoftError())
}

func TestSyncPendingEdits_PushesAndClearsFlag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.goals.Create(ctx, "write report", time.Now().Add(24*time.Hour), "")
	require.NoError(t, err)
	require.True(t, g.NeedsSync)

	require.NoError(t, e.goals.SyncPendingEdits(ctx))

	stored, err := e.store.Goals().Get(ctx, g.ID)
	require.NoError(t, err)
	require.False(t, stored.NeedsSync)

	rec, ok := e.remote.get(model.KindGoal, g.ID)
	require.True(t, ok)
	pushed, err := remote.DecodeGoal(rec)
	require.NoError(t, err)
	require.Equal(t, "write report", pushed.Name)
}

func TestSyncPendingEdits_RemoteFailureKeepsFlag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.goals.Create(ctx, "retry me", time.Now(), "")
	require.NoError(t, err)

	e.remote.setFail(remote.ErrUnavailable)
	require.NoError(t, e.goals.SyncPendingEdits(ctx))

	stored, err := e.store.Goals().Get(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, stored.NeedsSync)
	require.NotEmpty(t, e.goals.TakeSoftError())

	// the remote recovers and the next pass drains the backlog
	e.remote.setFail(nil)
	require.NoError(t, e.goals.SyncPendingEdits(ctx))
	stored, err = e.store.Goals().Get(ctx, g.ID)
	require.NoError(t, err)
	require.False(t, stored.NeedsSync)
}

func TestPush_EditDuringPushStaysFlagged(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.goals.Create(ctx, "v1", time.Now().Add(24*time.Hour), "")
	require.NoError(t, err)

	// another writer commits an edit while the push round-trip is in flight
	e.remote.onSave = func(remote.Record) {
		e.remote.onSave = nil
		require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{
			ID: g.ID, Name: "edited mid-flight", Due: g.Due, NeedsSync: true,
		}))
	}
	require.NoError(t, e.goals.SyncPendingEdits(ctx))

	stored, err := e.store.Goals().Get(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, "edited mid-flight", stored.Name)
	require.True(t, stored.NeedsSync)

	// the next pass pushes the edit and only then clears the flag
	require.NoError(t, e.goals.SyncPendingEdits(ctx))
	stored, err = e.store.Goals().Get(ctx, g.ID)
	require.NoError(t, err)
	require.False(t, stored.NeedsSync)
	rec, ok := e.remote.get(model.KindGoal, g.ID)
	require.True(t, ok)
	pushed, err := remote.DecodeGoal(rec)
	require.NoError(t, err)
	require.Equal(t, "edited mid-flight", pushed.Name)
}

func TestPush_DeletionWinsOverEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// flagged locally and registered for deletion at the same time: the
	// edit must never reach the remote
	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "g1", Name: "doomed", NeedsSync: true}))
	require.NoError(t, e.registry.Add(ctx, model.KindGoal, "g1"))

	require.NoError(t, e.goals.SyncPendingEdits(ctx))
	for _, op := range e.remote.opLog() {
		require.NotContains(t, op, "save goal")
	}
}

func TestSyncPendingDeletions_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	seedRemoteGoal(t, e.remote, &model.Goal{ID: "g1", Name: "shared"})
	require.NoError(t, e.store.Goals().Put(ctx, &model.Goal{ID: "g1", Name: "shared"}))

	g, err := e.goals.Get(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, e.goals.Delete(ctx, g))

	has, err := e.registry.Contains(ctx, model.KindGoal, "g1")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, e.goals.SyncPendingDeletions(ctx))
	_, ok := e.remote.get(model.KindGoal, "g1")
	require.False(t, ok)
	has, err = e.registry.Contains(ctx, model.KindGoal, "g1")
	require.NoError(t, err)
	require.False(t, has)

	// a second pass has nothing to do and issues no remote calls
	before := len(e.remote.opLog())
	require.NoError(t, e.goals.SyncPendingDeletions(ctx))
	require.Len(t, e.remote.opLog(), before)
}

func TestSyncPendingDeletions_RemoteAlreadyGone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// never pushed, so the remote has no record; delete must still settle
	require.NoError(t, e.registry.Add(ctx, model.KindGoal, "never-pushed"))
	require.NoError(t, e.goals.SyncPendingDeletions(ctx))

	has, err := e.registry.Contains(ctx, model.KindGoal, "never-pushed")
	require.NoError(t, err)
	require.False(t, has)
}

func TestSyncPendingDeletions_UnreachableRemoteKeepsEntry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.registry.Add(ctx, model.KindGoal, "g1"))
	e.remote.setFail(remote.ErrUnavailable)

	require.NoError(t, e.goals.SyncPendingDeletions(ctx))
	has, err := e.registry.Contains(ctx, model.KindGoal, "g1")
	require.NoError(t, err)
	require.True(t, has)
	require.NotEmpty(t, e.goals.TakeSoftError())
}
