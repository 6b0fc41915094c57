// Package remote defines the interface to the cloud record store and the
// error taxonomy callers dispatch on. Implementations do not retry; retry
// policy belongs to the sync managers and the push queue.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/reelfocus/reelfocus/internal/model"
)

var (
	// ErrNotFound: the record is absent. Expected during fetch-before-create
	// and when a delete races another device; handled, never surfaced.
	ErrNotFound = errors.New("remote: record not found")
	// ErrUnavailable: the remote cannot be reached or answered 5xx.
	// Recoverable; the entity stays flagged for a later pass.
	ErrUnavailable = errors.New("remote: unavailable")
	// ErrRejected: the remote refused the request (validation, quota, auth).
	ErrRejected = errors.New("remote: rejected")
)

// Record is the wire form of one entity. The ID is the entity's local ID;
// ParentID scopes child records (a task's goal).
type Record struct {
	Kind       model.Kind      `json:"kind"`
	ID         string          `json:"id"`
	ParentID   string          `json:"parentId,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	UpdateTime time.Time       `json:"updateTime,omitempty"`
}

// Store is the record CRUD surface of the remote.
type Store interface {
	// Fetch returns all records of a kind, optionally scoped to parents.
	// An empty result is not an error.
	Fetch(ctx context.Context, kind model.Kind, parentIDs []string) ([]Record, error)
	// FetchOne returns ErrNotFound when the record is absent.
	FetchOne(ctx context.Context, kind model.Kind, id string) (Record, error)
	// Save upserts the record keyed by (kind, id).
	Save(ctx context.Context, rec Record) (Record, error)
	// Delete returns ErrNotFound when the record was already absent.
	Delete(ctx context.Context, kind model.Kind, id string) error
}
