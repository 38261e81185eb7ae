// Package export reads and writes task list snapshots as JSONL or YAML.
//
// Exports are taken from the store, not the in-memory projection, so a
// file always reflects durable state. Imports go back through the store
// one record at a time; individual bad records are reported and skipped
// rather than aborting the run.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mlemos/taskdeck/internal/store"
	"github.com/mlemos/taskdeck/internal/task"
)

// Format selects the export file format.
type Format string

const (
	// FormatJSONL writes one JSON object per line.
	FormatJSONL Format = "jsonl"
	// FormatYAML writes a single YAML sequence.
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSONL, FormatYAML:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown format %q (want jsonl or yaml)", name)
	}
}

// Result contains statistics about an import run.
type Result struct {
	Imported int
	Skipped  int
	Errors   []string
}

// Write exports every task in the store to w in the given format.
func Write(ctx context.Context, st *store.Store, w io.Writer, format Format) error {
	tasks, err := st.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tasks for export: %w", err)
	}

	switch format {
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for i := range tasks {
			if err := enc.Encode(&tasks[i]); err != nil {
				return fmt.Errorf("failed to encode task %d: %w", tasks[i].ID, err)
			}
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(tasks); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteFile exports to a file, creating or truncating it.
func WriteFile(ctx context.Context, st *store.Store, path string, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := Write(ctx, st, f, format); err != nil {
		return err
	}
	return f.Close()
}

// Read parses an export stream into task records without touching a store.
func Read(r io.Reader, format Format) ([]task.Task, error) {
	switch format {
	case FormatJSONL:
		var tasks []task.Task
		dec := json.NewDecoder(r)
		line := 0
		for {
			var t task.Task
			if err := dec.Decode(&t); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("invalid JSON at record %d: %w", line+1, err)
			}
			line++
			tasks = append(tasks, t)
		}
		return tasks, nil

	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML: %w", err)
		}
		var tasks []task.Task
		if err := yaml.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return tasks, nil

	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Import reads an export stream and inserts the records into the store.
//
// Records with explicit ids keep them; records without get backend-assigned
// ids. Invalid or conflicting records are skipped and reported in the
// Result, and do not stop the import.
func Import(ctx context.Context, st *store.Store, r io.Reader, format Format) (*Result, error) {
	tasks, err := Read(r, format)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i := range tasks {
		if err := st.ImportTask(ctx, &tasks[i]); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFile imports from a file path.
func ImportFile(ctx context.Context, st *store.Store, path string, format Format) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return Import(ctx, st, f, format)
}
