// Package store provides the embedded SQLite storage layer for taskdeck.
//
// The database runs in embedded mode using the pure-Go ncruces/go-sqlite3
// driver with WAL enabled, so a second taskdeck process (or the serve
// daemon) can read while the CLI writes.
//
// Layout:
//   - Database file: one file per list, default ~/.taskdeck/todos.db
//   - Schema: a single todos table, created on first open
//   - Ordering: list queries return newest first (id descending)
//
// The store is opened exactly once per process and handed to the view
// layer; nothing in this package keeps global state.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mlemos/taskdeck/internal/task"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var (
	// ErrUnavailable indicates durable storage cannot be provided at all:
	// storage is disabled by configuration or the database location cannot
	// be created. It is a capability gap, not a runtime failure, and is
	// returned deterministically.
	ErrUnavailable = errors.New("durable storage unavailable")

	// ErrNotFound indicates the target id does not exist. Update-style
	// operations return it; Delete does not (removing an absent row is a
	// successful no-op).
	ErrNotFound = errors.New("task not found")
)

// Store wraps the SQLite connection for a single task list.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a new database connection at the specified path.
//
// If the database doesn't exist it is created. An empty path means storage
// is disabled; Open then returns ErrUnavailable without touching the
// filesystem. A failure to create the parent directory is also reported as
// ErrUnavailable, so callers can distinguish "this environment cannot hold
// a store" from an I/O error against an existing one.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrUnavailable
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, ErrUnavailable)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// A single-user list sees little concurrency; a small pool is enough
	// for the CLI plus the serve daemon's refreshes.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		conn: conn,
		path: path,
	}

	// WAL so the watcher daemon can re-read during writes
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RawDB returns the underlying sql.DB connection.
// Useful for integrating with libraries that expect *sql.DB.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection.
// Performs a WAL checkpoint so the main file is complete on disk.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the todos table if it doesn't exist.
//
// Idempotent - safe to call on every startup. Running it against an
// already-initialized store neither fails nor touches existing rows.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS todos (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		task      TEXT NOT NULL,
		completed INTEGER DEFAULT 0
	);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// InsertTask persists a new task with the given text, not completed.
//
// Text is normalized (trimmed) and must be non-empty afterwards; a
// *task.ValidationError is returned before anything reaches the backend
// otherwise. The new id is assigned by SQLite and learned by the caller
// through the next ListTasks.
func (s *Store) InsertTask(ctx context.Context, text string) error {
	text = task.NormalizeText(text)
	if err := task.ValidateText(text); err != nil {
		return err
	}

	query := `INSERT INTO todos (task, completed) VALUES (?, 0)`
	if _, err := s.conn.ExecContext(ctx, query, text); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// insertTaskRecord inserts a full record, preserving an explicit id when
// the record carries one. Used by the import path only; normal creation
// goes through InsertTask so ids stay backend-assigned.
func (s *Store) insertTaskRecord(ctx context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	text := task.NormalizeText(t.Text)
	if t.ID > 0 {
		query := `INSERT INTO todos (id, task, completed) VALUES (?, ?, ?)`
		if _, err := s.conn.ExecContext(ctx, query, t.ID, text, boolToInt(t.Done)); err != nil {
			return fmt.Errorf("failed to insert task %d: %w", t.ID, err)
		}
		return nil
	}

	query := `INSERT INTO todos (task, completed) VALUES (?, ?)`
	if _, err := s.conn.ExecContext(ctx, query, text, boolToInt(t.Done)); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// ImportTask inserts a record that originated outside this store, for
// example from a JSONL or YAML export.
func (s *Store) ImportTask(ctx context.Context, t *task.Task) error {
	return s.insertTaskRecord(ctx, t)
}

// ListTasks returns every task, newest first (id descending).
//
// An empty table yields an empty slice, not an error.
func (s *Store) ListTasks(ctx context.Context) ([]task.Task, error) {
	query := `
	SELECT id, task, completed
	FROM todos
	ORDER BY id DESC
	`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTask retrieves a single task by id.
// Returns ErrNotFound if no such task exists.
func (s *Store) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	query := `SELECT id, task, completed FROM todos WHERE id = ?`

	var t task.Task
	var completed int
	err := s.conn.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Text, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}

	t.Done = completed != 0
	return &t, nil
}

// SetCompleted sets the completion flag for the given id.
// Returns ErrNotFound if the id does not exist.
func (s *Store) SetCompleted(ctx context.Context, id int64, done bool) error {
	query := `UPDATE todos SET completed = ? WHERE id = ?`
	res, err := s.conn.ExecContext(ctx, query, boolToInt(done), id)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}

	return checkAffected(res, id)
}

// ToggleCompleted flips the completion flag for the given id.
// Returns ErrNotFound if the id does not exist.
func (s *Store) ToggleCompleted(ctx context.Context, id int64) error {
	query := `UPDATE todos SET completed = 1 - completed WHERE id = ?`
	res, err := s.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to toggle task %d: %w", id, err)
	}

	return checkAffected(res, id)
}

// UpdateText overwrites the text of the given task.
//
// The new text is normalized and validated like InsertTask's. Returns
// ErrNotFound if the id does not exist.
func (s *Store) UpdateText(ctx context.Context, id int64, text string) error {
	text = task.NormalizeText(text)
	if err := task.ValidateText(text); err != nil {
		return err
	}

	query := `UPDATE todos SET task = ? WHERE id = ?`
	res, err := s.conn.ExecContext(ctx, query, text, id)
	if err != nil {
		return fmt.Errorf("failed to rename task %d: %w", id, err)
	}

	return checkAffected(res, id)
}

// DeleteTask removes a task from the database.
// Returns nil if the task doesn't exist (idempotent).
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	query := `DELETE FROM todos WHERE id = ?`
	if _, err := s.conn.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}

// TaskCount returns the total number of tasks.
func (s *Store) TaskCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get task count: %w", err)
	}
	return count, nil
}

// CompletedCount returns the number of completed tasks.
func (s *Store) CompletedCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos WHERE completed != 0").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get completed count: %w", err)
	}
	return count, nil
}

// scanTasks is a helper to scan multiple tasks from query results.
// This is the only place the stored 0/1 completed encoding is decoded.
func scanTasks(rows *sql.Rows) ([]task.Task, error) {
	tasks := []task.Task{}

	for rows.Next() {
		var t task.Task
		var completed int

		if err := rows.Scan(&t.ID, &t.Text, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		t.Done = completed != 0
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// boolToInt converts the contract-level bool to the stored 0/1 encoding.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// checkAffected converts a zero-row update into ErrNotFound.
func checkAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of task %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}
