// Package syncer contains the reconciliation engine: one sync manager per
// entity family plus the orchestrator that runs full syncs in dependency
// order.
//
// The merge model is whole-record last-write-wins. There is no field-level
// merge: a completed remote round-trip is authoritative for clean local
// records, and local records with unsynced edits survive any fetch until
// their next successful push.
package syncer

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/pending"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// adapter binds one entity family to the generic sync engine: identity,
// codec, local persistence, and the family's special rules.
type adapter[T any] struct {
	kind         model.Kind
	id           func(*T) string
	needsSync    func(*T) bool
	setNeedsSync func(*T, bool)
	encode       func(*T) (remote.Record, error)
	decode       func(remote.Record) (*T, error)

	get             func(ctx context.Context, id string) (*T, error)
	put             func(ctx context.Context, e *T) error
	deleteLocal     func(ctx context.Context, id string) error
	list            func(ctx context.Context) ([]*T, error)
	listNeedingSync func(ctx context.Context) ([]*T, error)

	// fetchScope, when set, limits reconcile fetches to these parent IDs
	// (tasks are scoped to the known goal set).
	fetchScope func(ctx context.Context) ([]string, error)
	// pushable, when set, vetoes pushes (orphaned tasks are unsyncable).
	pushable func(ctx context.Context, e *T) (bool, error)
	// beforeInsert, when set, runs before a reconcile inserts a record that
	// was unknown locally (single-selection upkeep for items).
	beforeInsert func(ctx context.Context, e *T) error
}

// engine implements the family-agnostic fetch-merge-delete cycle.
//
// Error discipline: methods return an error only for local persistence
// failures, which abort the sync pass. Remote failures are recorded as the
// pass's soft error and otherwise swallowed; the needs-sync flag or the
// pending-deletion registry keeps the work queued for a later pass.
type engine[T any] struct {
	ad  adapter[T]
	rem remote.Store
	reg *pending.Registry
	log zerolog.Logger

	mu      sync.Mutex
	softErr string
}

func (e *engine[T]) kind() model.Kind { return e.ad.kind }

// noteSoft records a remote failure for aggregate diagnostics.
func (e *engine[T]) noteSoft(err error) {
	e.mu.Lock()
	e.softErr = err.Error()
	e.mu.Unlock()
}

// takeSoftError returns and clears the last recorded remote failure.
func (e *engine[T]) takeSoftError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.softErr
	e.softErr = ""
	return s
}

// pushOne pushes the entity's current local fields to the remote and clears
// the needs-sync flag on success. The remote error is returned so callers
// with retry policies (the push queue) can dispatch on it; sequential sync
// passes wrap this via syncOne instead.
//
// An entity pending deletion is never pushed: deletion wins over any edit.
func (e *engine[T]) pushOne(ctx context.Context, ent *T) error {
	id := e.ad.id(ent)

	pendingDel, err := e.reg.Contains(ctx, e.ad.kind, id)
	if err != nil {
		return err
	}
	if pendingDel {
		return nil
	}
	if e.ad.pushable != nil {
		ok, err := e.ad.pushable(ctx, ent)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	rec, err := e.ad.encode(ent)
	if err != nil {
		return err
	}
	if _, err := e.rem.Save(ctx, rec); err != nil {
		return err
	}

	// Mutations are not serialized against a running push. Re-read before
	// clearing the flag: an edit committed while the push was in flight
	// must stay flagged for the next pass, not be reverted to the pushed
	// snapshot.
	cur, err := e.ad.get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	curRec, err := e.ad.encode(cur)
	if err != nil {
		return err
	}
	if !bytes.Equal(curRec.Payload, rec.Payload) || curRec.ParentID != rec.ParentID {
		return nil
	}
	e.ad.setNeedsSync(cur, false)
	return e.ad.put(ctx, cur)
}

// syncOne is the sequential-pass form of pushOne: remote failures are logged
// and recorded, never returned. The entity stays flagged and is retried on
// the next pass.
func (e *engine[T]) syncOne(ctx context.Context, ent *T) error {
	err := e.pushOne(ctx, ent)
	if err == nil {
		return nil
	}
	if isRemoteErr(err) {
		e.noteSoft(err)
		e.log.Warn().Err(err).Str("kind", string(e.ad.kind)).Str("id", e.ad.id(ent)).Msg("push failed, will retry later")
		return nil
	}
	return err
}

// deleteRemote removes one pending-deletion entry: the remote record is
// deleted and, on success or when the remote already lost the record, the
// registry entry is dropped.
func (e *engine[T]) deleteRemote(ctx context.Context, id string) error {
	err := e.rem.Delete(ctx, e.ad.kind, id)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return err
	}
	return e.reg.Remove(ctx, e.ad.kind, id)
}

// syncPendingDeletions drains the family's pending-deletion registry.
// Remote failures leave the entry registered for a future attempt.
func (e *engine[T]) syncPendingDeletions(ctx context.Context) error {
	ids, err := e.reg.All(ctx, e.ad.kind)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := e.deleteRemote(ctx, id); err != nil {
			if isRemoteErr(err) {
				e.noteSoft(err)
				e.log.Warn().Err(err).Str("kind", string(e.ad.kind)).Str("id", id).Msg("remote delete failed, keeping registered")
				continue
			}
			return err
		}
	}
	return nil
}

// syncPendingEdits pushes every locally flagged entity, sequentially,
// skipping any that are pending deletion.
func (e *engine[T]) syncPendingEdits(ctx context.Context) error {
	ents, err := e.ad.listNeedingSync(ctx)
	if err != nil {
		return err
	}
	for _, ent := range ents {
		if err := e.syncOne(ctx, ent); err != nil {
			return err
		}
	}
	return nil
}

// fetchAndReconcile pulls the family's remote records and merges them into
// the local store:
//
//  1. Remote records known locally overwrite the local copy and clear the
//     flag, unless the local copy has unsynced edits, which survive.
//  2. Remote records unknown locally are inserted.
//  3. Local records absent from the remote with no unsynced edits are
//     deleted: another device removed them and nothing local is worth
//     preserving. Flagged records are kept.
//
// Returns the authoritative post-merge local set. A failed remote fetch is
// a soft error: the current local set is returned unchanged.
func (e *engine[T]) fetchAndReconcile(ctx context.Context) ([]*T, error) {
	var parents []string
	if e.ad.fetchScope != nil {
		var err error
		parents, err = e.ad.fetchScope(ctx)
		if err != nil {
			return nil, err
		}
	}

	recs, err := e.rem.Fetch(ctx, e.ad.kind, parents)
	if err != nil {
		if isRemoteErr(err) {
			e.noteSoft(err)
			e.log.Warn().Err(err).Str("kind", string(e.ad.kind)).Msg("fetch failed, skipping reconcile")
			return e.ad.list(ctx)
		}
		return nil, err
	}

	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		seen[rec.ID] = true

		decoded, err := e.ad.decode(rec)
		if err != nil {
			e.log.Error().Err(err).Str("kind", string(e.ad.kind)).Str("id", rec.ID).Msg("undecodable remote record, skipping")
			continue
		}
		e.ad.setNeedsSync(decoded, false)

		local, err := e.ad.get(ctx, rec.ID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			if e.ad.beforeInsert != nil {
				if err := e.ad.beforeInsert(ctx, decoded); err != nil {
					return nil, err
				}
			}
			if err := e.ad.put(ctx, decoded); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, err
		case e.ad.needsSync(local):
			// unsynced local edit survives until its next successful push
		default:
			if err := e.ad.put(ctx, decoded); err != nil {
				return nil, err
			}
		}
	}

	locals, err := e.ad.list(ctx)
	if err != nil {
		return nil, err
	}
	for _, ent := range locals {
		if !seen[e.ad.id(ent)] && !e.ad.needsSync(ent) {
			if err := e.ad.deleteLocal(ctx, e.ad.id(ent)); err != nil {
				return nil, err
			}
		}
	}

	return e.ad.list(ctx)
}

// isRemoteErr reports whether err belongs to the remote error taxonomy, as
// opposed to a local persistence failure.
func isRemoteErr(err error) bool {
	return errors.Is(err, remote.ErrNotFound) ||
		errors.Is(err, remote.ErrUnavailable) ||
		errors.Is(err, remote.ErrRejected)
}
