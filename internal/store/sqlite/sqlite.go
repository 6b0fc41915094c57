// Package sqlite implements store.Store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/store"
)

const lastSyncKey = "last_sync_time"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
        user_id TEXT PRIMARY KEY,
        display_name TEXT NOT NULL,
        points INTEGER NOT NULL DEFAULT 0,
        weekly_hours TEXT,
        best_focus_seconds INTEGER NOT NULL DEFAULT 0,
        needs_sync INTEGER NOT NULL DEFAULT 0
    );`,
	`CREATE TABLE IF NOT EXISTS goals (
        goal_id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        due TIMESTAMP NOT NULL,
        description TEXT,
        needs_sync INTEGER NOT NULL DEFAULT 0
    );`,
	`CREATE TABLE IF NOT EXISTS tasks (
        task_id TEXT PRIMARY KEY,
        goal_id TEXT NOT NULL,
        name TEXT NOT NULL,
        start_time TIMESTAMP NOT NULL,
        focus_minutes INTEGER NOT NULL DEFAULT 0,
        completed INTEGER NOT NULL DEFAULT 0,
        needs_sync INTEGER NOT NULL DEFAULT 0
    );`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_goal ON tasks(goal_id);`,
	`CREATE TABLE IF NOT EXISTS items (
        item_id TEXT PRIMARY KEY,
        item_name TEXT NOT NULL,
        is_selected INTEGER NOT NULL DEFAULT 0,
        needs_sync INTEGER NOT NULL DEFAULT 0
    );`,
	`CREATE TABLE IF NOT EXISTS meta (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL
    );`,
}

// New opens (or creates) the local store at path and ensures the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires a store over an existing connection.
func NewWithDB(db *sql.DB) (store.Store, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Profiles() store.Profiles { return &profiles{db: s.db} }
func (s *sqliteStore) Goals() store.Goals       { return &goals{db: s.db} }
func (s *sqliteStore) Tasks() store.Tasks       { return &tasks{db: s.db} }
func (s *sqliteStore) Items() store.Items       { return &items{db: s.db} }
func (s *sqliteStore) Meta() store.Meta         { return &meta{db: s.db} }
func (s *sqliteStore) Close() error             { return s.db.Close() }

// --- Profiles ---

type profiles struct{ db *sql.DB }

func (p *profiles) Put(ctx context.Context, m *model.Profile) error {
	var hours any
	if len(m.WeeklyHours) > 0 {
		b, err := json.Marshal(m.WeeklyHours)
		if err != nil {
			return err
		}
		hours = string(b)
	}
	_, err := p.db.ExecContext(ctx, `
        INSERT INTO profiles (user_id, display_name, points, weekly_hours, best_focus_seconds, needs_sync)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET
            display_name=excluded.display_name,
            points=excluded.points,
            weekly_hours=excluded.weekly_hours,
            best_focus_seconds=excluded.best_focus_seconds,
            needs_sync=excluded.needs_sync
    `, m.UserID, m.DisplayName, m.Points, hours, m.BestFocusSeconds, boolToInt(m.NeedsSync))
	return err
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.Profile, error) {
	row := p.db.QueryRowContext(ctx, `
        SELECT user_id, display_name, points, weekly_hours, best_focus_seconds, needs_sync
        FROM profiles WHERE user_id=?
    `, userID)
	return scanProfile(row.Scan)
}

func (p *profiles) ListNeedingSync(ctx context.Context) ([]*model.Profile, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT user_id, display_name, points, weekly_hours, best_focus_seconds, needs_sync
        FROM profiles WHERE needs_sync=1
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Profile
	for rows.Next() {
		m, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanProfile(scan func(...any) error) (*model.Profile, error) {
	var m model.Profile
	var hours sql.NullString
	var needs int
	if err := scan(&m.UserID, &m.DisplayName, &m.Points, &hours, &m.BestFocusSeconds, &needs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if hours.Valid && hours.String != "" {
		if err := json.Unmarshal([]byte(hours.String), &m.WeeklyHours); err != nil {
			return nil, fmt.Errorf("decode weekly hours: %w", err)
		}
	}
	m.NeedsSync = needs == 1
	return &m, nil
}

// --- Goals ---

type goals struct{ db *sql.DB }

func (g *goals) Put(ctx context.Context, m *model.Goal) error {
	_, err := g.db.ExecContext(ctx, `
        INSERT INTO goals (goal_id, name, due, description, needs_sync)
        VALUES (?,?,?,?,?)
        ON CONFLICT(goal_id) DO UPDATE SET
            name=excluded.name,
            due=excluded.due,
            description=excluded.description,
            needs_sync=excluded.needs_sync
    `, m.ID, m.Name, m.Due.UTC(), m.Description, boolToInt(m.NeedsSync))
	return err
}

func (g *goals) Get(ctx context.Context, id string) (*model.Goal, error) {
	row := g.db.QueryRowContext(ctx, `
        SELECT goal_id, name, due, description, needs_sync FROM goals WHERE goal_id=?
    `, id)
	return scanGoal(row.Scan)
}

func (g *goals) List(ctx context.Context) ([]*model.Goal, error) {
	return g.query(ctx, `SELECT goal_id, name, due, description, needs_sync FROM goals ORDER BY due`)
}

func (g *goals) ListNeedingSync(ctx context.Context) ([]*model.Goal, error) {
	return g.query(ctx, `SELECT goal_id, name, due, description, needs_sync FROM goals WHERE needs_sync=1`)
}

func (g *goals) query(ctx context.Context, q string, args ...any) ([]*model.Goal, error) {
	rows, err := g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Goal
	for rows.Next() {
		m, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (g *goals) Delete(ctx context.Context, id string) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM goals WHERE goal_id=?`, id)
	return err
}

func scanGoal(scan func(...any) error) (*model.Goal, error) {
	var m model.Goal
	var needs int
	if err := scan(&m.ID, &m.Name, &m.Due, &m.Description, &needs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	m.Due = m.Due.UTC()
	m.NeedsSync = needs == 1
	return &m, nil
}

// --- Tasks ---

type tasks struct{ db *sql.DB }

const taskCols = `task_id, goal_id, name, start_time, focus_minutes, completed, needs_sync`

func (t *tasks) Put(ctx context.Context, m *model.Task) error {
	_, err := t.db.ExecContext(ctx, `
        INSERT INTO tasks (task_id, goal_id, name, start_time, focus_minutes, completed, needs_sync)
        VALUES (?,?,?,?,?,?,?)
        ON CONFLICT(task_id) DO UPDATE SET
            goal_id=excluded.goal_id,
            name=excluded.name,
            start_time=excluded.start_time,
            focus_minutes=excluded.focus_minutes,
            completed=excluded.completed,
            needs_sync=excluded.needs_sync
    `, m.ID, m.GoalID, m.Name, m.StartTime.UTC(), m.FocusMinutes, boolToInt(m.Completed), boolToInt(m.NeedsSync))
	return err
}

func (t *tasks) Get(ctx context.Context, id string) (*model.Task, error) {
	row := t.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE task_id=?`, id)
	return scanTask(row.Scan)
}

func (t *tasks) List(ctx context.Context) ([]*model.Task, error) {
	return t.query(ctx, `SELECT `+taskCols+` FROM tasks ORDER BY start_time`)
}

func (t *tasks) ListByGoal(ctx context.Context, goalID string) ([]*model.Task, error) {
	return t.query(ctx, `SELECT `+taskCols+` FROM tasks WHERE goal_id=? ORDER BY start_time`, goalID)
}

func (t *tasks) ListNeedingSync(ctx context.Context) ([]*model.Task, error) {
	return t.query(ctx, `SELECT `+taskCols+` FROM tasks WHERE needs_sync=1`)
}

func (t *tasks) query(ctx context.Context, q string, args ...any) ([]*model.Task, error) {
	rows, err := t.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Task
	for rows.Next() {
		m, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *tasks) Delete(ctx context.Context, id string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM tasks WHERE task_id=?`, id)
	return err
}

func scanTask(scan func(...any) error) (*model.Task, error) {
	var m model.Task
	var completed, needs int
	if err := scan(&m.ID, &m.GoalID, &m.Name, &m.StartTime, &m.FocusMinutes, &completed, &needs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	m.StartTime = m.StartTime.UTC()
	m.Completed = completed == 1
	m.NeedsSync = needs == 1
	return &m, nil
}

// --- Items ---

type items struct{ db *sql.DB }

func (i *items) Put(ctx context.Context, m *model.PurchasedItem) error {
	_, err := i.db.ExecContext(ctx, `
        INSERT INTO items (item_id, item_name, is_selected, needs_sync)
        VALUES (?,?,?,?)
        ON CONFLICT(item_id) DO UPDATE SET
            item_name=excluded.item_name,
            is_selected=excluded.is_selected,
            needs_sync=excluded.needs_sync
    `, m.ID, m.ItemName, boolToInt(m.IsSelected), boolToInt(m.NeedsSync))
	return err
}

func (i *items) Get(ctx context.Context, id string) (*model.PurchasedItem, error) {
	row := i.db.QueryRowContext(ctx, `
        SELECT item_id, item_name, is_selected, needs_sync FROM items WHERE item_id=?
    `, id)
	return scanItem(row.Scan)
}

func (i *items) List(ctx context.Context) ([]*model.PurchasedItem, error) {
	return i.query(ctx, `SELECT item_id, item_name, is_selected, needs_sync FROM items ORDER BY item_name`)
}

func (i *items) ListNeedingSync(ctx context.Context) ([]*model.PurchasedItem, error) {
	return i.query(ctx, `SELECT item_id, item_name, is_selected, needs_sync FROM items WHERE needs_sync=1`)
}

func (i *items) query(ctx context.Context, q string, args ...any) ([]*model.PurchasedItem, error) {
	rows, err := i.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.PurchasedItem
	for rows.Next() {
		m, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (i *items) Delete(ctx context.Context, id string) error {
	_, err := i.db.ExecContext(ctx, `DELETE FROM items WHERE item_id=?`, id)
	return err
}

func (i *items) UnselectAll(ctx context.Context) (int, error) {
	res, err := i.db.ExecContext(ctx, `UPDATE items SET is_selected=0, needs_sync=1 WHERE is_selected=1`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanItem(scan func(...any) error) (*model.PurchasedItem, error) {
	var m model.PurchasedItem
	var selected, needs int
	if err := scan(&m.ID, &m.ItemName, &selected, &needs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	m.IsSelected = selected == 1
	m.NeedsSync = needs == 1
	return &m, nil
}

// --- Meta ---

type meta struct{ db *sql.DB }

func (m *meta) LastSyncTime(ctx context.Context) (*time.Time, error) {
	var raw string
	row := m.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, lastSyncKey)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("decode last sync time: %w", err)
	}
	return &ts, nil
}

func (m *meta) SetLastSyncTime(ctx context.Context, ts time.Time) error {
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO meta (key, value) VALUES (?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value
    `, lastSyncKey, ts.UTC().Format(time.RFC3339Nano))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
