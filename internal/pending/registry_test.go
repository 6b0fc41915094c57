package pending

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelfocus/reelfocus/internal/model"
)

func openTestRegistry(t *testing.T, path string) *Registry {
	t.Helper()
	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistry_AddRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	r := openTestRegistry(t, filepath.Join(t.TempDir(), "pending.db"))

	require.NoError(t, r.Add(ctx, model.KindGoal, "g1"))
	require.NoError(t, r.Add(ctx, model.KindGoal, "g1"))

	ids, err := r.All(ctx, model.KindGoal)
	require.NoError(t, err)
	require.Equal(t, []string{"g1"}, ids)

	ok, err := r.Contains(ctx, model.KindGoal, "g1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, r.Remove(ctx, model.KindGoal, "g1"))
	require.NoError(t, r.Remove(ctx, model.KindGoal, "g1"))

	ok, err = r.Contains(ctx, model.KindGoal, "g1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegistry_NamespacedByKind(t *testing.T) {
	ctx := context.Background()
	r := openTestRegistry(t, filepath.Join(t.TempDir(), "pending.db"))

	require.NoError(t, r.Add(ctx, model.KindGoal, "x"))

	ok, err := r.Contains(ctx, model.KindTask, "x")
	require.NoError(t, err)
	require.False(t, ok, "task namespace must not see goal entries")

	ids, err := r.All(ctx, model.KindTask)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestRegistry_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pending.db")

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Add(ctx, model.KindTask, "t9"))
	require.NoError(t, r.Close())

	r2 := openTestRegistry(t, path)
	ok, err := r2.Contains(ctx, model.KindTask, "t9")
	require.NoError(t, err)
	require.True(t, ok, "offline deletion must survive relaunch")
}
