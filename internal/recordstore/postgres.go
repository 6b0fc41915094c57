package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
    kind        TEXT NOT NULL,
    id          TEXT NOT NULL,
    parent_id   TEXT NOT NULL DEFAULT '',
    payload     JSONB NOT NULL,
    update_time TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS idx_records_parent ON records(kind, parent_id);
`

type pgStore struct {
	db *sql.DB
}

// NewPostgres opens a Postgres-backed record store using the pgx stdlib
// driver and applies the schema.
func NewPostgres(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &pgStore{db: db}, nil
}

func (s *pgStore) Upsert(ctx context.Context, rec remote.Record) (remote.Record, error) {
	rec.UpdateTime = now()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO records (kind, id, parent_id, payload, update_time)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (kind, id) DO UPDATE SET
            parent_id = EXCLUDED.parent_id,
            payload = EXCLUDED.payload,
            update_time = EXCLUDED.update_time
    `, string(rec.Kind), rec.ID, rec.ParentID, string(rec.Payload), rec.UpdateTime)
	if err != nil {
		return remote.Record{}, err
	}
	return rec, nil
}

func (s *pgStore) Get(ctx context.Context, kind model.Kind, id string) (remote.Record, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT kind, id, parent_id, payload::text, update_time FROM records
        WHERE kind = $1 AND id = $2
    `, string(kind), id)
	return scanPgRecord(row.Scan)
}

func (s *pgStore) List(ctx context.Context, kind model.Kind, parentIDs []string) ([]remote.Record, error) {
	q := `SELECT kind, id, parent_id, payload::text, update_time FROM records WHERE kind = $1`
	args := []any{string(kind)}
	if len(parentIDs) > 0 {
		ph := make([]string, len(parentIDs))
		for i, p := range parentIDs {
			ph[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, p)
		}
		q += ` AND parent_id IN (` + strings.Join(ph, ",") + `)`
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []remote.Record
	for rows.Next() {
		rec, err := scanPgRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgStore) Delete(ctx context.Context, kind model.Kind, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE kind = $1 AND id = $2`, string(kind), id)
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

func (s *pgStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *pgStore) Close() error { return s.db.Close() }

func scanPgRecord(scan func(dest ...any) error) (remote.Record, error) {
	var (
		kind, id, parentID, payload string
		updated                     time.Time
	)
	if err := scan(&kind, &id, &parentID, &payload, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return remote.Record{}, ErrNotFound
		}
		return remote.Record{}, err
	}
	return remote.Record{
		Kind:       model.Kind(kind),
		ID:         id,
		ParentID:   parentID,
		Payload:    json.RawMessage(payload),
		UpdateTime: updated.UTC(),
	}, nil
}
