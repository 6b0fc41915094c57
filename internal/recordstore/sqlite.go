package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
	storesqlite "github.com/reelfocus/reelfocus/internal/store/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
    kind        TEXT NOT NULL,
    id          TEXT NOT NULL,
    parent_id   TEXT NOT NULL DEFAULT '',
    payload     TEXT NOT NULL,
    update_time TEXT NOT NULL,
    PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS idx_records_parent ON records(kind, parent_id);
`

type sqliteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the sqlite-backed record store at path.
func NewSQLite(path string) (Store, error) {
	db, err := storesqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Upsert(ctx context.Context, rec remote.Record) (remote.Record, error) {
	rec.UpdateTime = now()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO records (kind, id, parent_id, payload, update_time)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(kind, id) DO UPDATE SET
            parent_id = excluded.parent_id,
            payload = excluded.payload,
            update_time = excluded.update_time
    `, string(rec.Kind), rec.ID, rec.ParentID, string(rec.Payload), rec.UpdateTime.Format(time.RFC3339Nano))
	if err != nil {
		return remote.Record{}, err
	}
	return rec, nil
}

func (s *sqliteStore) Get(ctx context.Context, kind model.Kind, id string) (remote.Record, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT kind, id, parent_id, payload, update_time FROM records
        WHERE kind = ? AND id = ?
    `, string(kind), id)
	return scanRecord(row.Scan)
}

func (s *sqliteStore) List(ctx context.Context, kind model.Kind, parentIDs []string) ([]remote.Record, error) {
	q := `SELECT kind, id, parent_id, payload, update_time FROM records WHERE kind = ?`
	args := []any{string(kind)}
	if len(parentIDs) > 0 {
		q += ` AND parent_id IN (?` + strings.Repeat(",?", len(parentIDs)-1) + `)`
		for _, p := range parentIDs {
			args = append(args, p)
		}
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []remote.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Delete(ctx context.Context, kind model.Kind, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqliteStore) Close() error { return s.db.Close() }

// scanRecord maps one row onto a remote.Record; update_time is stored as
// RFC3339Nano text.
func scanRecord(scan func(dest ...any) error) (remote.Record, error) {
	var (
		kind, id, parentID, payload, updated string
	)
	if err := scan(&kind, &id, &parentID, &payload, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return remote.Record{}, ErrNotFound
		}
		return remote.Record{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return remote.Record{}, err
	}
	return remote.Record{
		Kind:       model.Kind(kind),
		ID:         id,
		ParentID:   parentID,
		Payload:    json.RawMessage(payload),
		UpdateTime: ts,
	}, nil
}
