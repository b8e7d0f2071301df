// Package history provides optional persistence of terminal execution
// results. The engine itself keeps no record of a run after it terminates;
// attaching a history store preserves the summary for later inspection.
package history

import (
	"errors"
	"time"
)

// Record is one persisted execution summary.
type Record struct {
	// ID is a store-generated identifier, assigned on Save if empty.
	ID string
	// ExecutionID is the engine-generated execution id, unique per process
	// lifetime.
	ExecutionID string
	// Status is the terminal execution status.
	Status      string
	StartedAt   time.Time
	FinishedAt  time.Time
	// Result is the serialized ExecutionResult.
	Result []byte
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates no record exists for the execution id.
	ErrNotFound = errors.New("execution record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")
)

// Store persists execution records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record, overwriting any record with the same
	// execution id.
	Save(rec Record) error

	// Load retrieves the record for an execution id.
	// Returns ErrNotFound if none exists.
	Load(executionID string) (Record, error)

	// List returns records ordered newest first. A limit <= 0 returns all.
	List(limit int) ([]Record, error)

	// Delete removes the record for an execution id.
	// Returns nil if no record exists.
	Delete(executionID string) error

	// Close releases any resources (connections, files).
	Close() error
}
