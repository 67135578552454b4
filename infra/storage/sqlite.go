// Package storage provides SQLite-backed robot and task stores. The claim
// path relies on a conditional UPDATE keyed on the expected prior status, so
// concurrent claims serialize inside the database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/core/store"
)

// Config selects the database file.
type Config struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "robofleet.db"
	}
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS robots (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        status TEXT NOT NULL,
        battery REAL NOT NULL,
        x REAL NOT NULL DEFAULT 0,
        y REAL NOT NULL DEFAULT 0,
        task_id TEXT NOT NULL DEFAULT ''
    );
    CREATE TABLE IF NOT EXISTS tasks (
        id TEXT PRIMARY KEY,
        task_type TEXT NOT NULL,
        status TEXT NOT NULL,
        requester_id TEXT NOT NULL,
        robot_id TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        completed_at INTEGER,
        details TEXT NOT NULL DEFAULT '{}'
    );
    CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks(status, created_at);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return db, nil
}

// RobotStore persists robots in SQLite.
type RobotStore struct {
	db *sql.DB
}

var _ store.RobotStore = (*RobotStore)(nil)

// NewRobotStore wraps the database.
func NewRobotStore(db *sql.DB) *RobotStore { return &RobotStore{db: db} }

const robotColumns = `id, name, status, battery, x, y, task_id`

func scanRobot(row interface{ Scan(...any) error }) (model.Robot, error) {
	var r model.Robot
	var status string
	if err := row.Scan(&r.ID, &r.Name, &status, &r.Battery, &r.Position.X, &r.Position.Y, &r.CurrentTaskID); err != nil {
		return model.Robot{}, err
	}
	r.Status = model.RobotStatus(status)
	return r, nil
}

func (s *RobotStore) Register(ctx context.Context, r model.Robot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO robots (`+robotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, string(r.Status), r.Battery, r.Position.X, r.Position.Y, r.CurrentTaskID)
	return err
}

func (s *RobotStore) Get(ctx context.Context, id string) (model.Robot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+robotColumns+` FROM robots WHERE id = ?`, id)
	r, err := scanRobot(row)
	if err == sql.ErrNoRows {
		return model.Robot{}, store.ErrNotFound
	}
	return r, err
}

func (s *RobotStore) List(ctx context.Context) ([]model.Robot, error) {
	return s.query(ctx, `SELECT `+robotColumns+` FROM robots ORDER BY id`)
}

func (s *RobotStore) ListIdleAboveBattery(ctx context.Context, threshold float64) ([]model.Robot, error) {
	return s.query(ctx,
		`SELECT `+robotColumns+` FROM robots WHERE status = ? AND battery > ? ORDER BY id`,
		string(model.RobotIdle), threshold)
}

func (s *RobotStore) query(ctx context.Context, q string, args ...any) ([]model.Robot, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Robot
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// CompareAndSetStatus performs the atomic claim: the UPDATE only matches when
// the robot is still in the expected status, and a zero row count reports the
// lost race.
func (s *RobotStore) CompareAndSetStatus(ctx context.Context, id string, expected, next model.RobotStatus, extra store.RobotUpdate) (bool, error) {
	set := []string{"status = ?"}
	args := []any{string(next)}
	appendRobotUpdate(&set, &args, extra)
	args = append(args, id, string(expected))
	res, err := s.db.ExecContext(ctx,
		`UPDATE robots SET `+strings.Join(set, ", ")+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Distinguish a lost race from a missing robot.
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM robots WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
			return false, store.ErrNotFound
		} else if err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *RobotStore) Update(ctx context.Context, id string, upd store.RobotUpdate) (model.Robot, error) {
	var set []string
	var args []any
	if upd.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*upd.Status))
	}
	appendRobotUpdate(&set, &args, upd)
	if len(set) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, `UPDATE robots SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return model.Robot{}, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return model.Robot{}, store.ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func appendRobotUpdate(set *[]string, args *[]any, upd store.RobotUpdate) {
	if upd.Battery != nil {
		*set = append(*set, "battery = ?")
		*args = append(*args, *upd.Battery)
	}
	if upd.Position != nil {
		*set = append(*set, "x = ?", "y = ?")
		*args = append(*args, upd.Position.X, upd.Position.Y)
	}
	if upd.TaskID != nil {
		*set = append(*set, "task_id = ?")
		*args = append(*args, *upd.TaskID)
	}
}

// TaskStore persists tasks in SQLite. Details travel as a JSON text column;
// the engine treats them as an opaque bag.
type TaskStore struct {
	db *sql.DB
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore wraps the database.
func NewTaskStore(db *sql.DB) *TaskStore { return &TaskStore{db: db} }

const taskColumns = `id, task_type, status, requester_id, robot_id, created_at, completed_at, details`

func scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var t model.Task
	var taskType, status, details string
	var createdAt int64
	var completedAt sql.NullInt64
	if err := row.Scan(&t.ID, &taskType, &status, &t.RequesterID, &t.RobotID, &createdAt, &completedAt, &details); err != nil {
		return model.Task{}, err
	}
	t.Type = model.TaskType(taskType)
	t.Status = model.TaskStatus(status)
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	if completedAt.Valid {
		done := time.Unix(0, completedAt.Int64).UTC()
		t.CompletedAt = &done
	}
	if details != "" {
		if err := json.Unmarshal([]byte(details), &t.Details); err != nil {
			return model.Task{}, fmt.Errorf("decode details for task %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func (s *TaskStore) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	details := "{}"
	if t.Details != nil {
		b, err := json.Marshal(t.Details)
		if err != nil {
			return model.Task{}, fmt.Errorf("encode details: %w", err)
		}
		details = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, NULL, ?)`,
		t.ID, string(t.Type), string(t.Status), t.RequesterID, t.RobotID, t.CreatedAt.UnixNano(), details)
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, store.ErrNotFound
	}
	return t, err
}

func (s *TaskStore) Update(ctx context.Context, id string, upd store.TaskUpdate) (model.Task, error) {
	var set []string
	var args []any
	if upd.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.RobotID != nil {
		set = append(set, "robot_id = ?")
		args = append(args, *upd.RobotID)
	}
	if upd.CompletedAt != nil && *upd.CompletedAt {
		set = append(set, "completed_at = ?")
		args = append(args, time.Now().UTC().UnixNano())
	}
	if len(set) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return model.Task{}, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return model.Task{}, store.ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func (s *TaskStore) ListByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
