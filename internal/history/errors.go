package history

import (
	"errors"
	"fmt"
)

// ErrNotInitialized marks a query against a database file that has never
// been created. Distinct from an initialized store with zero rows.
var ErrNotInitialized = errors.New("history database not found; run the monitor first")

// StorageError wraps any sqlite failure so callers can contain it at the
// boundary instead of crashing the loop.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
