package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mlemos/taskdeck/internal/task"
)

// testDBPath returns a temporary path for test databases
func testDBPath(t *testing.T) string {
	tmpDir := t.TempDir()
	return filepath.Join(tmpDir, "test.db")
}

// openStore opens and initializes a scratch store
func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return s
}

// TestOpen_Success tests successful database creation
func TestOpen_Success(t *testing.T) {
	path := testDBPath(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

// TestOpen_Unavailable tests the capability-gap path
func TestOpen_Unavailable(t *testing.T) {
	_, err := Open("")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Open(\"\") error = %v, want ErrUnavailable", err)
	}

	// Deterministic: a second call reports the same condition
	_, err = Open("")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("second Open(\"\") error = %v, want ErrUnavailable", err)
	}
}

// TestInitSchema_Success tests schema creation
func TestInitSchema_Success(t *testing.T) {
	s := openStore(t)

	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='todos'`
	if err := s.conn.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	if count != 1 {
		t.Errorf("todos table count = %d, want 1", count)
	}
}

// TestInitSchema_Idempotent tests that re-running schema creation neither
// fails, duplicates the table, nor alters existing rows
func TestInitSchema_Idempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertTask(ctx, "existing row"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}

	if err := s.InitSchema(ctx); err != nil {
		t.Errorf("Second InitSchema() failed: %v", err)
	}

	var tables int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='todos'`
	if err := s.conn.QueryRow(query).Scan(&tables); err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	if tables != 1 {
		t.Errorf("todos table count = %d, want 1", tables)
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Text != "existing row" {
		t.Errorf("existing rows altered: %v", tasks)
	}
}

// TestInsertTask_TrimsAndDefaults tests that inserted text is trimmed and
// completion starts false
func TestInsertTask_TrimsAndDefaults(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertTask(ctx, "  Buy milk  "); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	if tasks[0].Text != "Buy milk" {
		t.Errorf("Text = %q, want %q", tasks[0].Text, "Buy milk")
	}
	if tasks[0].Done {
		t.Error("new task is completed, want not completed")
	}
}

// TestInsertTask_RejectsEmpty tests validation before the backend
func TestInsertTask_RejectsEmpty(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\t\n"} {
		err := s.InsertTask(ctx, text)
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("InsertTask(%q) error = %v, want ValidationError", text, err)
		}
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("len(tasks) = %d, want 0 after rejected inserts", len(tasks))
	}
}

// TestListTasks_Ordering tests descending id order (newest first)
func TestListTasks_Ordering(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := s.InsertTask(ctx, fmt.Sprintf("task %d", i)); err != nil {
			t.Fatalf("InsertTask() failed: %v", err)
		}
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}

	want := []int64{3, 2, 1}
	if len(tasks) != len(want) {
		t.Fatalf("len(tasks) = %d, want %d", len(tasks), len(want))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("tasks[%d].ID = %d, want %d", i, tasks[i].ID, id)
		}
	}
}

// TestListTasks_Empty tests that an empty table yields an empty slice
func TestListTasks_Empty(t *testing.T) {
	s := openStore(t)

	tasks, err := s.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if tasks == nil {
		t.Fatal("ListTasks() returned nil, want empty slice")
	}
	if len(tasks) != 0 {
		t.Errorf("len(tasks) = %d, want 0", len(tasks))
	}
}

// TestToggleCompleted_Involution tests that toggling twice restores the
// original value
func TestToggleCompleted_Involution(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertTask(ctx, "flip me"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}
	tasks, _ := s.ListTasks(ctx)
	id := tasks[0].ID

	if err := s.ToggleCompleted(ctx, id); err != nil {
		t.Fatalf("first ToggleCompleted() failed: %v", err)
	}
	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask() failed: %v", err)
	}
	if !got.Done {
		t.Error("after one toggle Done = false, want true")
	}

	if err := s.ToggleCompleted(ctx, id); err != nil {
		t.Fatalf("second ToggleCompleted() failed: %v", err)
	}
	got, err = s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask() failed: %v", err)
	}
	if got.Done {
		t.Error("after two toggles Done = true, want false")
	}
}

// TestToggleCompleted_NotFound tests the missing-id error
func TestToggleCompleted_NotFound(t *testing.T) {
	s := openStore(t)

	err := s.ToggleCompleted(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleCompleted(42) error = %v, want ErrNotFound", err)
	}
}

// TestSetCompleted tests explicit completion updates
func TestSetCompleted(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertTask(ctx, "finish me"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}
	tasks, _ := s.ListTasks(ctx)
	id := tasks[0].ID

	if err := s.SetCompleted(ctx, id, true); err != nil {
		t.Fatalf("SetCompleted(true) failed: %v", err)
	}
	got, _ := s.GetTask(ctx, id)
	if !got.Done {
		t.Error("Done = false, want true")
	}

	if err := s.SetCompleted(ctx, id, false); err != nil {
		t.Fatalf("SetCompleted(false) failed: %v", err)
	}
	got, _ = s.GetTask(ctx, id)
	if got.Done {
		t.Error("Done = true, want false")
	}

	if err := s.SetCompleted(ctx, 99, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCompleted(99) error = %v, want ErrNotFound", err)
	}
}

// TestUpdateText tests renames, validation, and the missing-id error
func TestUpdateText(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertTask(ctx, "Buy milk"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}
	tasks, _ := s.ListTasks(ctx)
	id := tasks[0].ID

	if err := s.SetCompleted(ctx, id, true); err != nil {
		t.Fatalf("SetCompleted() failed: %v", err)
	}

	if err := s.UpdateText(ctx, id, "  Buy oat milk "); err != nil {
		t.Fatalf("UpdateText() failed: %v", err)
	}

	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask() failed: %v", err)
	}
	if got.Text != "Buy oat milk" {
		t.Errorf("Text = %q, want %q", got.Text, "Buy oat milk")
	}
	if !got.Done {
		t.Error("rename cleared the completion flag")
	}

	var verr *task.ValidationError
	if err := s.UpdateText(ctx, id, "   "); !errors.As(err, &verr) {
		t.Errorf("UpdateText(blank) error = %v, want ValidationError", err)
	}

	if err := s.UpdateText(ctx, 99, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateText(99) error = %v, want ErrNotFound", err)
	}
}

// TestDeleteTask tests removal and idempotence
func TestDeleteTask(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertTask(ctx, "doomed"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}
	tasks, _ := s.ListTasks(ctx)
	id := tasks[0].ID

	if err := s.DeleteTask(ctx, id); err != nil {
		t.Fatalf("DeleteTask() failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	for _, got := range tasks {
		if got.ID == id {
			t.Errorf("deleted id %d still listed", id)
		}
	}

	// Deleting an absent id is a successful no-op
	if err := s.DeleteTask(ctx, id); err != nil {
		t.Errorf("second DeleteTask() failed: %v", err)
	}
}

// TestIDsNotReused tests that ids stay monotonic after deletes
func TestIDsNotReused(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertTask(ctx, "first"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}
	tasks, _ := s.ListTasks(ctx)
	first := tasks[0].ID

	if err := s.DeleteTask(ctx, first); err != nil {
		t.Fatalf("DeleteTask() failed: %v", err)
	}
	if err := s.InsertTask(ctx, "second"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}

	tasks, _ = s.ListTasks(ctx)
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	if tasks[0].ID <= first {
		t.Errorf("new id %d is not greater than deleted id %d", tasks[0].ID, first)
	}
}

// TestCounts tests TaskCount and CompletedCount
func TestCounts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.InsertTask(ctx, fmt.Sprintf("task %d", i)); err != nil {
			t.Fatalf("InsertTask() failed: %v", err)
		}
	}
	tasks, _ := s.ListTasks(ctx)
	if err := s.SetCompleted(ctx, tasks[0].ID, true); err != nil {
		t.Fatalf("SetCompleted() failed: %v", err)
	}

	total, err := s.TaskCount(ctx)
	if err != nil {
		t.Fatalf("TaskCount() failed: %v", err)
	}
	if total != 3 {
		t.Errorf("TaskCount() = %d, want 3", total)
	}

	completed, err := s.CompletedCount(ctx)
	if err != nil {
		t.Fatalf("CompletedCount() failed: %v", err)
	}
	if completed != 1 {
		t.Errorf("CompletedCount() = %d, want 1", completed)
	}
}

// TestImportTask tests id-preserving and id-assigning imports
func TestImportTask(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	explicit := &task.Task{ID: 7, Text: "kept id", Done: true}
	if err := s.ImportTask(ctx, explicit); err != nil {
		t.Fatalf("ImportTask(explicit) failed: %v", err)
	}

	assigned := &task.Task{Text: "assigned id"}
	if err := s.ImportTask(ctx, assigned); err != nil {
		t.Fatalf("ImportTask(assigned) failed: %v", err)
	}

	got, err := s.GetTask(ctx, 7)
	if err != nil {
		t.Fatalf("GetTask(7) failed: %v", err)
	}
	if got.Text != "kept id" || !got.Done {
		t.Errorf("imported record = %+v", got)
	}

	tasks, _ := s.ListTasks(ctx)
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	// The auto-assigned id continues past the explicit one
	if tasks[0].ID <= 7 {
		t.Errorf("auto-assigned id = %d, want > 7", tasks[0].ID)
	}
}

// TestPersistence tests that rows survive close and reopen
func TestPersistence(t *testing.T) {
	path := testDBPath(t)
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	if err := s.InsertTask(ctx, "durable"); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()
	if err := s2.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() after reopen failed: %v", err)
	}

	tasks, err := s2.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Text != "durable" {
		t.Errorf("tasks after reopen = %v", tasks)
	}
}
