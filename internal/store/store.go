// Package store defines the local persistence interface shared by the sync
// managers and UI collaborators. Implementations live under
// internal/store/<driver>/ (sqlite today).
package store

import (
	"context"
	"time"

	"github.com/reelfocus/reelfocus/internal/model"
)

// Store exposes the local object store. Every mutation is flushed before the
// call returns so readers never observe a torn multi-entity write.
type Store interface {
	Profiles() Profiles
	Goals() Goals
	Tasks() Tasks
	Items() Items
	Meta() Meta
	Close() error
}

type Profiles interface {
	// Put inserts or fully overwrites the profile row.
	Put(ctx context.Context, p *model.Profile) error
	// Get returns model.ErrNotFound when no profile exists for userID.
	Get(ctx context.Context, userID string) (*model.Profile, error)
	ListNeedingSync(ctx context.Context) ([]*model.Profile, error)
}

type Goals interface {
	Put(ctx context.Context, g *model.Goal) error
	Get(ctx context.Context, id string) (*model.Goal, error)
	List(ctx context.Context) ([]*model.Goal, error)
	ListNeedingSync(ctx context.Context) ([]*model.Goal, error)
	// Delete is idempotent: deleting an absent goal is not an error.
	Delete(ctx context.Context, id string) error
}

type Tasks interface {
	Put(ctx context.Context, tk *model.Task) error
	Get(ctx context.Context, id string) (*model.Task, error)
	List(ctx context.Context) ([]*model.Task, error)
	ListByGoal(ctx context.Context, goalID string) ([]*model.Task, error)
	ListNeedingSync(ctx context.Context) ([]*model.Task, error)
	Delete(ctx context.Context, id string) error
}

type Items interface {
	Put(ctx context.Context, it *model.PurchasedItem) error
	Get(ctx context.Context, id string) (*model.PurchasedItem, error)
	List(ctx context.Context) ([]*model.PurchasedItem, error)
	ListNeedingSync(ctx context.Context) ([]*model.PurchasedItem, error)
	Delete(ctx context.Context, id string) error
	// UnselectAll clears IsSelected on every item and marks the rows it
	// changed as needing sync. Returns the number of rows changed.
	UnselectAll(ctx context.Context) (int, error)
}

// Meta holds small durable keys outside the entity tables, currently the
// timestamp of the last successful full sync.
type Meta interface {
	LastSyncTime(ctx context.Context) (*time.Time, error)
	SetLastSyncTime(ctx context.Context, ts time.Time) error
}
