// Package pending holds the durable pending-deletion registry: per entity
// family, the set of IDs whose remote delete was requested locally but not
// yet confirmed. The set survives restarts so an offline deletion is never
// lost across relaunches.
//
// The registry provides no internal concurrency control beyond SQLite's own;
// in practice each family has a single writer, its sync manager.
package pending

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/reelfocus/reelfocus/internal/model"
)

// Registry is a namespaced durable string set backed by its own SQLite file,
// kept separate from the local object store.
type Registry struct {
	db *sql.DB
}

// Open opens (or creates) the registry database at path.
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS pending_deletions (
        kind TEXT NOT NULL,
        entity_id TEXT NOT NULL,
        PRIMARY KEY (kind, entity_id)
    )`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Add records id for remote deletion. Idempotent.
func (r *Registry) Add(ctx context.Context, kind model.Kind, id string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pending_deletions (kind, entity_id) VALUES (?,?)`,
		string(kind), id)
	return err
}

// Remove drops id from the set. No-op if absent.
func (r *Registry) Remove(ctx context.Context, kind model.Kind, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_deletions WHERE kind=? AND entity_id=?`,
		string(kind), id)
	return err
}

// Contains reports whether id is pending deletion in the given family.
func (r *Registry) Contains(ctx context.Context, kind model.Kind, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM pending_deletions WHERE kind=? AND entity_id=?`,
		string(kind), id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// All returns every pending ID in the given family.
func (r *Registry) All(ctx context.Context, kind model.Kind) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entity_id FROM pending_deletions WHERE kind=? ORDER BY entity_id`,
		string(kind))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (r *Registry) Close() error { return r.db.Close() }
