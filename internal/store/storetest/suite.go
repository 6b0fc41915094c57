// Package storetest provides a compliance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Profile
	userID := "u-" + uuid.New().String()
	p := &model.Profile{
		UserID:      userID,
		DisplayName: "tester",
		Points:      40,
		WeeklyHours: model.WeeklyHours{model.Monday: {model.SlotMorning, model.SlotEvening}},
		NeedsSync:   true,
	}
	if err := s.Profiles().Put(ctx, p); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	got, err := s.Profiles().Get(ctx, userID)
	if err != nil || got.Points != 40 || len(got.WeeklyHours[model.Monday]) != 2 {
		t.Fatalf("GetProfile: got=%+v err=%v", got, err)
	}
	if lst, err := s.Profiles().ListNeedingSync(ctx); err != nil || len(lst) != 1 {
		t.Fatalf("ListNeedingSync profiles: n=%d err=%v", len(lst), err)
	}
	if _, err := s.Profiles().Get(ctx, "absent"); err != model.ErrNotFound {
		t.Fatalf("GetProfile absent: expected ErrNotFound, got %v", err)
	}

	// Goals
	due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	g := &model.Goal{ID: uuid.New().String(), Name: "ship v1", Due: due, NeedsSync: true}
	if err := s.Goals().Put(ctx, g); err != nil {
		t.Fatalf("PutGoal: %v", err)
	}
	gotG, err := s.Goals().Get(ctx, g.ID)
	if err != nil || gotG.Name != "ship v1" || !gotG.Due.Equal(due) {
		t.Fatalf("GetGoal: got=%+v err=%v", gotG, err)
	}
	// overwrite clears the flag
	g.NeedsSync = false
	if err := s.Goals().Put(ctx, g); err != nil {
		t.Fatalf("PutGoal overwrite: %v", err)
	}
	if lst, err := s.Goals().ListNeedingSync(ctx); err != nil || len(lst) != 0 {
		t.Fatalf("ListNeedingSync goals after clear: n=%d err=%v", len(lst), err)
	}

	// Tasks
	tk := &model.Task{
		ID:           uuid.New().String(),
		GoalID:       g.ID,
		Name:         "morning session",
		StartTime:    due.Add(-24 * time.Hour),
		FocusMinutes: 25,
		NeedsSync:    true,
	}
	if err := s.Tasks().Put(ctx, tk); err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	if lst, err := s.Tasks().ListByGoal(ctx, g.ID); err != nil || len(lst) != 1 || lst[0].ID != tk.ID {
		t.Fatalf("ListByGoal: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Tasks().ListByGoal(ctx, "other-goal"); err != nil || len(lst) != 0 {
		t.Fatalf("ListByGoal other: n=%d err=%v", len(lst), err)
	}

	// Items
	it := &model.PurchasedItem{ID: uuid.New().String(), ItemName: "lucky-hat", IsSelected: true, NeedsSync: true}
	it2 := &model.PurchasedItem{ID: uuid.New().String(), ItemName: "bamboo-rod", IsSelected: true}
	if err := s.Items().Put(ctx, it); err != nil {
		t.Fatalf("PutItem: %v", err)
	}
	if err := s.Items().Put(ctx, it2); err != nil {
		t.Fatalf("PutItem 2: %v", err)
	}
	n, err := s.Items().UnselectAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("UnselectAll: n=%d err=%v", n, err)
	}
	lst, err := s.Items().List(ctx)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListItems: n=%d err=%v", len(lst), err)
	}
	for _, x := range lst {
		if x.IsSelected {
			t.Fatalf("item still selected after UnselectAll: %+v", x)
		}
		if !x.NeedsSync {
			t.Fatalf("unselected item not marked for sync: %+v", x)
		}
	}

	// Deletes are idempotent
	if err := s.Goals().Delete(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if err := s.Goals().Delete(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal twice: %v", err)
	}
	if _, err := s.Goals().Get(ctx, g.ID); err != model.ErrNotFound {
		t.Fatalf("GetGoal after delete: expected ErrNotFound, got %v", err)
	}

	// Meta
	if ts, err := s.Meta().LastSyncTime(ctx); err != nil || ts != nil {
		t.Fatalf("LastSyncTime empty: ts=%v err=%v", ts, err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := s.Meta().SetLastSyncTime(ctx, now); err != nil {
		t.Fatalf("SetLastSyncTime: %v", err)
	}
	if ts, err := s.Meta().LastSyncTime(ctx); err != nil || ts == nil || !ts.Equal(now) {
		t.Fatalf("LastSyncTime: ts=%v err=%v", ts, err)
	}
}
