package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// TaskManager owns the task family. Tasks are children of goals: pushes are
// vetoed for orphans (their goal no longer exists locally) and reconcile
// fetches are scoped to the currently known goal IDs.
type TaskManager struct {
	deps Deps
	eng  *engine[model.Task]
}

func NewTaskManager(d Deps) *TaskManager {
	m := &TaskManager{deps: d}
	m.eng = &engine[model.Task]{
		ad: adapter[model.Task]{
			kind:            model.KindTask,
			id:              func(t *model.Task) string { return t.ID },
			needsSync:       func(t *model.Task) bool { return t.NeedsSync },
			setNeedsSync:    func(t *model.Task, v bool) { t.NeedsSync = v },
			encode:          remote.EncodeTask,
			decode:          remote.DecodeTask,
			get:             d.Store.Tasks().Get,
			put:             d.Store.Tasks().Put,
			deleteLocal:     d.Store.Tasks().Delete,
			list:            d.Store.Tasks().List,
			listNeedingSync: d.Store.Tasks().ListNeedingSync,
			fetchScope:      m.goalScope,
			pushable:        m.hasParentGoal,
		},
		rem: d.Remote,
		reg: d.Registry,
		log: d.Log,
	}
	return m
}

// goalScope returns the IDs of all locally known goals; the remote task
// fetch is limited to children of these.
func (m *TaskManager) goalScope(ctx context.Context) ([]string, error) {
	goals, err := m.deps.Store.Goals().List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

// hasParentGoal vetoes the push of orphaned tasks.
func (m *TaskManager) hasParentGoal(ctx context.Context, t *model.Task) (bool, error) {
	_, err := m.deps.Store.Goals().Get(ctx, t.GoalID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a task under goalID locally and schedules a push. The
// parent goal must exist locally.
func (m *TaskManager) Create(ctx context.Context, goalID, name string, start time.Time, focusMinutes int) (*model.Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: task name is empty", model.ErrValidation)
	}
	if focusMinutes <= 0 {
		return nil, fmt.Errorf("%w: focus duration must be positive", model.ErrValidation)
	}
	if _, err := m.deps.Store.Goals().Get(ctx, goalID); err != nil {
		return nil, fmt.Errorf("parent goal %s: %w", goalID, err)
	}
	t := &model.Task{
		ID:           uuid.New().String(),
		GoalID:       goalID,
		Name:         name,
		StartTime:    start.UTC(),
		FocusMinutes: focusMinutes,
		NeedsSync:    true,
	}
	if err := m.deps.Store.Tasks().Put(ctx, t); err != nil {
		return nil, err
	}
	m.deps.publishChanged(model.KindTask)
	m.deps.submitPush(model.KindTask, pushByIDJob(m.eng, t.ID))
	return t, nil
}

// Update overwrites the local copy with t's fields and schedules a push.
func (m *TaskManager) Update(ctx context.Context, t *model.Task) error {
	t.NeedsSync = true
	if err := m.deps.Store.Tasks().Put(ctx, t); err != nil {
		return err
	}
	m.deps.publishChanged(model.KindTask)
	m.deps.submitPush(model.KindTask, pushByIDJob(m.eng, t.ID))
	return nil
}

// Complete marks the task done and schedules a push.
func (m *TaskManager) Complete(ctx context.Context, t *model.Task) error {
	t.Completed = true
	return m.Update(ctx, t)
}

// Delete removes the task locally and registers it for remote deletion.
func (m *TaskManager) Delete(ctx context.Context, t *model.Task) error {
	if err := m.deps.Store.Tasks().Delete(ctx, t.ID); err != nil {
		return err
	}
	if err := m.deps.Registry.Add(ctx, model.KindTask, t.ID); err != nil {
		return err
	}
	m.deps.publishChanged(model.KindTask)
	if m.deps.online() {
		m.deps.submitPush(model.KindTask, deleteJob(m.eng, t.ID))
	}
	return nil
}

func (m *TaskManager) Get(ctx context.Context, id string) (*model.Task, error) {
	return m.deps.Store.Tasks().Get(ctx, id)
}

func (m *TaskManager) List(ctx context.Context) ([]*model.Task, error) {
	return m.deps.Store.Tasks().List(ctx)
}

func (m *TaskManager) ListByGoal(ctx context.Context, goalID string) ([]*model.Task, error) {
	return m.deps.Store.Tasks().ListByGoal(ctx, goalID)
}

func (m *TaskManager) Kind() model.Kind { return model.KindTask }

func (m *TaskManager) SyncOne(ctx context.Context, t *model.Task) error {
	return m.eng.syncOne(ctx, t)
}

func (m *TaskManager) SyncPendingDeletions(ctx context.Context) error {
	return m.eng.syncPendingDeletions(ctx)
}

func (m *TaskManager) SyncPendingEdits(ctx context.Context) error {
	return m.eng.syncPendingEdits(ctx)
}

func (m *TaskManager) FetchAndReconcile(ctx context.Context) ([]*model.Task, error) {
	out, err := m.eng.fetchAndReconcile(ctx)
	if err == nil {
		m.deps.publishChanged(model.KindTask)
	}
	return out, err
}

func (m *TaskManager) Reconcile(ctx context.Context) error {
	_, err := m.FetchAndReconcile(ctx)
	return err
}

func (m *TaskManager) TakeSoftError() string { return m.eng.takeSoftError() }
