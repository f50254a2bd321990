package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found in catalog")
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("catalog persistence failed")
	// ErrConsistency matches every *ConsistencyError.
	ErrConsistency = errors.New("catalog views disagree")

	ErrInvalidRequest = errors.New("invalid request")
	ErrKeyCollision   = errors.New("parameter key collision")
	ErrInvalidLabel   = errors.New("invalid label")
)

// NotFoundError reports a lookup that matched no entry.
type NotFoundError struct {
	Label    string
	Key      string
	Filename string
}

func (e *NotFoundError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("file %s is not cataloged", e.Filename)
	}
	return fmt.Sprintf("no entry for label %q with parameters [%s]", e.Label, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps the last failure of a save or an exhausted load.
type PersistenceError struct {
	Op       string
	Path     string
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s %s failed after %d attempts: %v", e.Op, e.Path, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// ConsistencyError signals that the entry table and its index diverged.
// It indicates a bug, not bad input.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return "catalog consistency violated: " + e.Detail
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }
