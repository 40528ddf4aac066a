package storage

import (
	"context"
	"fmt"
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/findings"
)

// Store persists completed audit runs.
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveRun persists a run. Saving an existing run ID is an error.
	SaveRun(ctx context.Context, run *findings.Run) error

	// GetRun returns the run with the given ID, or NotFoundError.
	GetRun(ctx context.Context, id string) (*findings.Run, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*findings.Run, error)

	// DeleteOlderThan removes runs that finished before cutoff and
	// returns the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}

// NotFoundError indicates the requested run does not exist.
type NotFoundError struct {
	// ID is the run identifier that was not found.
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("run %q not found", e.ID)
}

// DuplicateError indicates a run with the same ID was already saved.
type DuplicateError struct {
	// ID is the duplicate run identifier.
	ID string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("run %q already exists", e.ID)
}
