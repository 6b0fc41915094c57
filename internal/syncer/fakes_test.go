package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/pending"
	"github.com/reelfocus/reelfocus/internal/remote"
	"github.com/reelfocus/reelfocus/internal/store"
	storesqlite "github.com/reelfocus/reelfocus/internal/store/sqlite"
)

// fakeRemote is an in-memory remote.Store that records the operations it
// served, in order, and can be told to fail.
type fakeRemote struct {
	mu      sync.Mutex
	records map[string]remote.Record // keyed kind/id
	ops     []string
	failAll error

	// onSave, when set, runs after a successful Save, outside the lock.
	// Tests use it to interleave local edits with an in-flight push.
	onSave func(remote.Record)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: make(map[string]remote.Record)}
}

func key(kind model.Kind, id string) string { return string(kind) + "/" + id }

func (f *fakeRemote) setFail(err error) {
	f.mu.Lock()
	f.failAll = err
	f.mu.Unlock()
}

func (f *fakeRemote) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *fakeRemote) put(rec remote.Record) {
	f.mu.Lock()
	f.records[key(rec.Kind, rec.ID)] = rec
	f.mu.Unlock()
}

func (f *fakeRemote) drop(kind model.Kind, id string) {
	f.mu.Lock()
	delete(f.records, key(kind, id))
	f.mu.Unlock()
}

func (f *fakeRemote) get(kind model.Kind, id string) (remote.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key(kind, id)]
	return rec, ok
}

func (f *fakeRemote) Fetch(_ context.Context, kind model.Kind, parentIDs []string) ([]remote.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, fmt.Sprintf("fetch %s parents=%v", kind, parentIDs))
	if f.failAll != nil {
		return nil, f.failAll
	}
	scope := map[string]bool{}
	for _, p := range parentIDs {
		scope[p] = true
	}
	var out []remote.Record
	for _, rec := range f.records {
		if rec.Kind != kind {
			continue
		}
		if len(scope) > 0 && !scope[rec.ParentID] {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) FetchOne(_ context.Context, kind model.Kind, id string) (remote.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, fmt.Sprintf("fetchone %s %s", kind, id))
	if f.failAll != nil {
		return remote.Record{}, f.failAll
	}
	rec, ok := f.records[key(kind, id)]
	if !ok {
		return remote.Record{}, remote.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRemote) Save(_ context.Context, rec remote.Record) (remote.Record, error) {
	f.mu.Lock()
	f.ops = append(f.ops, fmt.Sprintf("save %s %s", rec.Kind, rec.ID))
	if f.failAll != nil {
		f.mu.Unlock()
		return remote.Record{}, f.failAll
	}
	f.records[key(rec.Kind, rec.ID)] = rec
	hook := f.onSave
	f.mu.Unlock()
	if hook != nil {
		hook(rec)
	}
	return rec, nil
}

func (f *fakeRemote) Delete(_ context.Context, kind model.Kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, fmt.Sprintf("delete %s %s", kind, id))
	if f.failAll != nil {
		return f.failAll
	}
	if _, ok := f.records[key(kind, id)]; !ok {
		return remote.ErrNotFound
	}
	delete(f.records, key(kind, id))
	return nil
}

// stubOnline is a constant connectivity signal.
type stubOnline bool

func (s stubOnline) Online() bool { return bool(s) }

// env bundles a full manager set over a real sqlite store and a fake remote.
type env struct {
	store    store.Store
	registry *pending.Registry
	remote   *fakeRemote
	profiles *ProfileManager
	goals    *GoalManager
	tasks    *TaskManager
	items    *ItemManager
	orch     *Orchestrator
}

const testUser = "u-test"

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, nil)
}

// newEnvWith builds the manager set over a store optionally wrapped by the
// caller, so tests can inject persistence failures.
func newEnvWith(t *testing.T, wrap func(store.Store) store.Store) *env {
	t.Helper()
	dir := t.TempDir()

	var st store.Store
	st, err := storesqlite.New(filepath.Join(dir, "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	if wrap != nil {
		st = wrap(st)
	}

	reg, err := pending.Open(filepath.Join(dir, "pending.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	rem := newFakeRemote()
	d := Deps{
		Store:    st,
		Registry: reg,
		Remote:   rem,
		Monitor:  stubOnline(false),
		Log:      zerolog.Nop(),
	}

	profiles := NewProfileManager(d)
	goals := NewGoalManager(d)
	tasks := NewTaskManager(d)
	items := NewItemManager(d, profiles)
	orch := NewOrchestrator(testUser, st, profiles, goals, tasks, items, nil, zerolog.Nop())

	return &env{store: st, registry: reg, remote: rem, profiles: profiles, goals: goals, tasks: tasks, items: items, orch: orch}
}
