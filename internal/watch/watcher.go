// Package watch triggers projection refreshes when the database file is
// modified by another process.
//
// The watcher monitors the directory containing the database (fsnotify
// cannot follow a WAL checkpoint replacing the file when watching the file
// itself) and debounces bursts of write events into a single refresh.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds configuration for the watcher.
type Config struct {
	// DebounceInterval is how long to coalesce file events before
	// triggering a refresh. WAL commits produce several events per write.
	DebounceInterval time.Duration

	// Logger for watcher activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 100 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// RefreshFunc is invoked after a debounced batch of database changes.
type RefreshFunc func(ctx context.Context) error

// Watcher observes the database file for external modifications.
type Watcher struct {
	dbPath  string
	refresh RefreshFunc
	config  *Config

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   bool
	lastEvent time.Time

	wg sync.WaitGroup
}

// New creates a Watcher for the database at dbPath.
//
// refresh is called (debounced) whenever the database or its WAL changes
// on disk. Use Run to start watching.
func New(dbPath string, refresh RefreshFunc, config *Config) (*Watcher, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}
	if refresh == nil {
		return nil, fmt.Errorf("refresh cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		dbPath:  dbPath,
		refresh: refresh,
		config:  config,
		watcher: fw,
	}, nil
}

// Run watches until ctx is cancelled. It blocks.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.dbPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.config.Logger.Printf("Watching %s", w.dbPath)

	w.wg.Add(1)
	go w.debounceLoop(ctx)

	defer func() {
		_ = w.watcher.Close()
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isDatabaseEvent(event) {
				continue
			}
			w.queue()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// isDatabaseEvent reports whether the event concerns the database file or
// one of its SQLite side files.
func (w *Watcher) isDatabaseEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	base := filepath.Base(w.dbPath)
	name := filepath.Base(event.Name)
	return name == base || name == base+"-wal" || name == base+"-shm"
}

// queue marks a refresh as pending and stamps the last event time.
func (w *Watcher) queue() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.pending = true
	w.lastEvent = time.Now()
}

// debounceLoop fires the refresh once events have been quiet for the
// debounce interval.
func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.pendingMu.Lock()
			fire := w.pending && time.Since(w.lastEvent) >= w.config.DebounceInterval
			if fire {
				w.pending = false
			}
			w.pendingMu.Unlock()

			if !fire {
				continue
			}

			if err := w.refresh(ctx); err != nil {
				w.config.Logger.Printf("Refresh after file change failed: %v", err)
			}
		}
	}
}
