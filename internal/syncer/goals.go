package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// GoalManager owns the goal family: optimistic local-first writes with
// asynchronous pushes, and the goal side of the reconcile cycle.
type GoalManager struct {
	deps Deps
	eng  *engine[model.Goal]
}

func NewGoalManager(d Deps) *GoalManager {
	m := &GoalManager{deps: d}
	m.eng = &engine[model.Goal]{
		ad: adapter[model.Goal]{
			kind:            model.KindGoal,
			id:              func(g *model.Goal) string { return g.ID },
			needsSync:       func(g *model.Goal) bool { return g.NeedsSync },
			setNeedsSync:    func(g *model.Goal, v bool) { g.NeedsSync = v },
			encode:          remote.EncodeGoal,
			decode:          remote.DecodeGoal,
			get:             d.Store.Goals().Get,
			put:             d.Store.Goals().Put,
			deleteLocal:     d.Store.Goals().Delete,
			list:            d.Store.Goals().List,
			listNeedingSync: d.Store.Goals().ListNeedingSync,
		},
		rem: d.Remote,
		reg: d.Registry,
		log: d.Log,
	}
	return m
}

// Create inserts the goal locally and returns immediately; the remote push
// happens asynchronously.
func (m *GoalManager) Create(ctx context.Context, name string, due time.Time, description string) (*model.Goal, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: goal name is empty", model.ErrValidation)
	}
	g := &model.Goal{
		ID:        uuid.New().String(),
		Name:      name,
		Due:       due.UTC(),
		NeedsSync: true,
	}
	if description != "" {
		g.Description = &description
	}
	if err := m.deps.Store.Goals().Put(ctx, g); err != nil {
		return nil, err
	}
	m.deps.publishChanged(model.KindGoal)
	m.deps.submitPush(model.KindGoal, pushByIDJob(m.eng, g.ID))
	return g, nil
}

// Update overwrites the local copy with g's fields and schedules a push.
func (m *GoalManager) Update(ctx context.Context, g *model.Goal) error {
	g.NeedsSync = true
	if err := m.deps.Store.Goals().Put(ctx, g); err != nil {
		return err
	}
	m.deps.publishChanged(model.KindGoal)
	m.deps.submitPush(model.KindGoal, pushByIDJob(m.eng, g.ID))
	return nil
}

// Delete removes the goal locally at once, registers the ID for remote
// deletion, and attempts the remote delete immediately when connected.
// The goal's tasks become orphans; they are excluded from pushes and reaped
// by the next task reconcile.
func (m *GoalManager) Delete(ctx context.Context, g *model.Goal) error {
	if err := m.deps.Store.Goals().Delete(ctx, g.ID); err != nil {
		return err
	}
	if err := m.deps.Registry.Add(ctx, model.KindGoal, g.ID); err != nil {
		return err
	}
	m.deps.publishChanged(model.KindGoal)
	if m.deps.online() {
		m.deps.submitPush(model.KindGoal, deleteJob(m.eng, g.ID))
	}
	return nil
}

func (m *GoalManager) Get(ctx context.Context, id string) (*model.Goal, error) {
	return m.deps.Store.Goals().Get(ctx, id)
}

func (m *GoalManager) List(ctx context.Context) ([]*model.Goal, error) {
	return m.deps.Store.Goals().List(ctx)
}

func (m *GoalManager) Kind() model.Kind { return model.KindGoal }

func (m *GoalManager) SyncOne(ctx context.Context, g *model.Goal) error {
	return m.eng.syncOne(ctx, g)
}

func (m *GoalManager) SyncPendingDeletions(ctx context.Context) error {
	return m.eng.syncPendingDeletions(ctx)
}

func (m *GoalManager) SyncPendingEdits(ctx context.Context) error {
	return m.eng.syncPendingEdits(ctx)
}

// FetchAndReconcile pulls the remote goal set and merges it locally,
// returning the post-merge goals.
func (m *GoalManager) FetchAndReconcile(ctx context.Context) ([]*model.Goal, error) {
	out, err := m.eng.fetchAndReconcile(ctx)
	if err == nil {
		m.deps.publishChanged(model.KindGoal)
	}
	return out, err
}

func (m *GoalManager) Reconcile(ctx context.Context) error {
	_, err := m.FetchAndReconcile(ctx)
	return err
}

func (m *GoalManager) TakeSoftError() string { return m.eng.takeSoftError() }
