// Package task defines the task record shared by the store, the view
// layer, and the export formats.
package task

import (
	"fmt"
	"strings"
)

// Task is a single to-do item as seen by everything above the storage
// boundary. The store persists Done as a 0/1 integer; that encoding never
// leaves the store package.
type Task struct {
	ID   int64  `json:"id" yaml:"id"`
	Text string `json:"task" yaml:"task"`
	Done bool   `json:"completed" yaml:"completed"`
}

// ValidationError reports task text that was rejected before reaching the
// backend.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: %s", e.Reason)
}

// NormalizeText trims surrounding whitespace from task text.
// All writes go through this before validation so stored text is never
// padded.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// ValidateText checks that text is usable as task content after
// normalization. Empty and whitespace-only strings are rejected.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Reason: "text must not be empty"}
	}
	return nil
}

// Validate checks the full record. Used on import paths where records
// arrive from outside the store.
func (t *Task) Validate() error {
	if t.ID < 0 {
		return &ValidationError{Reason: fmt.Sprintf("id must not be negative (got %d)", t.ID)}
	}
	return ValidateText(t.Text)
}
