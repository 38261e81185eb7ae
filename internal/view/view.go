// Package view keeps an in-memory projection of the task list consistent
// with the durable store.
//
// The Manager owns the store handle and re-reads the full table after
// every successful mutation; the projection is always replaced wholesale
// with the result of a real post-mutation read, never patched in place.
// Rapid mutations can put several refreshes in flight at once, so each
// refresh carries a generation token and a completed refresh is only
// applied if no later-issued one has been applied already.
package view

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/mlemos/taskdeck/internal/store"
	"github.com/mlemos/taskdeck/internal/task"
)

// State describes the lifecycle of the manager.
type State int

const (
	// StateLoading is the initial state, before Initialize has finished.
	StateLoading State = iota
	// StateReady means the store is open, the schema exists, and the
	// first refresh has been attempted.
	StateReady
	// StateUnavailable means the platform/configuration provides no
	// durable storage. Expected, not fatal; all mutations are no-ops.
	StateUnavailable
	// StateError means the store opened but initialization failed.
	// The handle stays open; individual operations will keep failing.
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrNotInitialized is returned by operations invoked before Initialize.
var ErrNotInitialized = errors.New("view: not initialized")

// Subscriber receives each newly applied projection snapshot.
// The slice must be treated as read-only.
type Subscriber func(tasks []task.Task)

// Manager synchronizes the in-memory projection with the store.
//
// A Manager is safe for concurrent use. The store handle is set once at
// construction and never reassigned.
type Manager struct {
	st     *store.Store // nil when storage is unavailable
	logger *log.Logger

	mu          sync.Mutex
	state       State
	initialized bool
	projection  []task.Task

	// Refresh ordering guard. issued counts refreshes as they start,
	// applied records the generation of the last refresh whose result
	// made it into the projection. A slower, older refresh completing
	// after a newer one is discarded.
	issued  uint64
	applied uint64

	subs []Subscriber
}

// New creates a Manager over an opened store.
//
// st may be nil, which puts the manager into the capability-gap path:
// Initialize reports StateUnavailable and every mutation is a no-op
// returning store.ErrUnavailable. If logger is nil, a default logger
// writing to stderr is used.
func New(st *store.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stderr, "[view] ", log.LstdFlags)
	}
	return &Manager{
		st:     st,
		logger: logger,
		state:  StateLoading,
	}
}

// Initialize ensures the schema exists and performs the first refresh.
//
// It must run to completion before any other operation is used. The
// manager leaves StateLoading exactly once, whether or not schema
// creation succeeded, so callers always reach a definitive state.
// Initialization failure is reported here once; subsequent operations
// then fail individually.
func (m *Manager) Initialize(ctx context.Context) State {
	m.mu.Lock()
	if m.initialized {
		st := m.state
		m.mu.Unlock()
		return st
	}
	m.initialized = true

	if m.st == nil {
		m.state = StateUnavailable
		m.mu.Unlock()
		m.logger.Println("No durable storage on this platform; running with an empty, read-only list")
		return StateUnavailable
	}
	m.mu.Unlock()

	if err := m.st.InitSchema(ctx); err != nil {
		m.logger.Printf("Schema initialization failed: %v", err)
		m.mu.Lock()
		m.state = StateError
		m.mu.Unlock()
		return StateError
	}

	m.mu.Lock()
	m.state = StateReady
	m.mu.Unlock()

	if err := m.Refresh(ctx); err != nil {
		m.logger.Printf("Initial refresh failed: %v", err)
	}

	return StateReady
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Projection returns the current in-memory snapshot, newest first.
//
// The returned slice is a copy; callers may hold it across refreshes.
func (m *Manager) Projection() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]task.Task, len(m.projection))
	copy(out, m.projection)
	return out
}

// Subscribe registers fn to be called with each newly applied projection.
// Subscribers are invoked synchronously, in registration order, while the
// snapshot is already committed.
func (m *Manager) Subscribe(fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Add validates and persists a new task, then refreshes the projection.
// The new id is visible only through the refreshed projection.
func (m *Manager) Add(ctx context.Context, text string) error {
	st, err := m.storeForMutation()
	if err != nil {
		return err
	}

	if err := st.InsertTask(ctx, text); err != nil {
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			err = fmt.Errorf("add task: %w", err)
		}
		return err
	}

	return m.Refresh(ctx)
}

// SetCompleted sets the completion flag of the given task, then refreshes.
func (m *Manager) SetCompleted(ctx context.Context, id int64, done bool) error {
	st, err := m.storeForMutation()
	if err != nil {
		return err
	}

	if err := st.SetCompleted(ctx, id, done); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}

	return m.Refresh(ctx)
}

// Toggle flips the completion flag of the given task, then refreshes.
func (m *Manager) Toggle(ctx context.Context, id int64) error {
	st, err := m.storeForMutation()
	if err != nil {
		return err
	}

	if err := st.ToggleCompleted(ctx, id); err != nil {
		return fmt.Errorf("toggle: %w", err)
	}

	return m.Refresh(ctx)
}

// Rename overwrites the text of the given task, then refreshes.
func (m *Manager) Rename(ctx context.Context, id int64, text string) error {
	st, err := m.storeForMutation()
	if err != nil {
		return err
	}

	if err := st.UpdateText(ctx, id, text); err != nil {
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			err = fmt.Errorf("rename: %w", err)
		}
		return err
	}

	return m.Refresh(ctx)
}

// Remove deletes the given task, then refreshes. Removing an id that is
// already absent succeeds.
func (m *Manager) Remove(ctx context.Context, id int64) error {
	st, err := m.storeForMutation()
	if err != nil {
		return err
	}

	if err := st.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	return m.Refresh(ctx)
}

// Refresh re-reads the full task list and replaces the projection.
//
// Safe to invoke concurrently with itself: results are applied
// last-write-wins by issue order, so a stale response never overwrites a
// newer one. A failed list clears the projection rather than leaving
// stale data in place.
func (m *Manager) Refresh(ctx context.Context) error {
	gen, st, err := m.beginRefresh()
	if err != nil {
		return err
	}

	tasks, lerr := st.ListTasks(ctx)
	return m.completeRefresh(gen, tasks, lerr)
}

// beginRefresh allocates a generation token for a new refresh.
func (m *Manager) beginRefresh() (uint64, *store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return 0, nil, ErrNotInitialized
	}
	if m.st == nil {
		return 0, nil, store.ErrUnavailable
	}
	m.issued++
	return m.issued, m.st, nil
}

// completeRefresh applies a refresh result unless a later-issued refresh
// already completed, in which case the result is discarded as stale.
func (m *Manager) completeRefresh(gen uint64, tasks []task.Task, lerr error) error {
	m.mu.Lock()
	if gen <= m.applied {
		m.mu.Unlock()
		return nil
	}
	m.applied = gen

	if lerr != nil {
		m.projection = nil
		subs, snapshot := m.snapshotLocked()
		m.mu.Unlock()
		notify(subs, snapshot)
		return fmt.Errorf("refresh: %w", lerr)
	}

	m.projection = tasks
	subs, snapshot := m.snapshotLocked()
	m.mu.Unlock()
	notify(subs, snapshot)
	return nil
}

// storeForMutation gates mutations on initialization and storage
// availability.
func (m *Manager) storeForMutation() (*store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, ErrNotInitialized
	}
	if m.st == nil {
		return nil, store.ErrUnavailable
	}
	return m.st, nil
}

// snapshotLocked copies the subscriber list and the current projection.
// Callers must hold m.mu.
func (m *Manager) snapshotLocked() ([]Subscriber, []task.Task) {
	subs := make([]Subscriber, len(m.subs))
	copy(subs, m.subs)

	snapshot := make([]task.Task, len(m.projection))
	copy(snapshot, m.projection)
	return subs, snapshot
}

// notify runs subscribers outside the manager lock.
func notify(subs []Subscriber, snapshot []task.Task) {
	for _, fn := range subs {
		fn(snapshot)
	}
}
