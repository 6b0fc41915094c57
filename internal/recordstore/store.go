// Package recordstore is the server side of the sync protocol: a flat
// record store keyed by (kind, id), with parent scoping for child records.
// The sqlite driver backs local development, the postgres driver a shared
// deployment.
package recordstore

import (
	"context"
	"errors"
	"time"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// ErrNotFound is returned for absent records.
var ErrNotFound = errors.New("recordstore: record not found")

// Store persists remote.Records. Upsert is last-write-wins by arrival
// order; the server stamps UpdateTime, clients never set it.
type Store interface {
	// Upsert inserts or overwrites the record and returns the stored form.
	Upsert(ctx context.Context, rec remote.Record) (remote.Record, error)
	// Get returns ErrNotFound when the record is absent.
	Get(ctx context.Context, kind model.Kind, id string) (remote.Record, error)
	// List returns all records of a kind; a non-empty parentIDs limits the
	// result to records whose ParentID is in the set.
	List(ctx context.Context, kind model.Kind, parentIDs []string) ([]remote.Record, error)
	// Delete returns ErrNotFound when the record was already absent.
	Delete(ctx context.Context, kind model.Kind, id string) error
	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// ValidKind reports whether k names a known entity family.
func ValidKind(k model.Kind) bool {
	switch k {
	case model.KindProfile, model.KindGoal, model.KindTask, model.KindItem:
		return true
	}
	return false
}

func now() time.Time { return time.Now().UTC() }
