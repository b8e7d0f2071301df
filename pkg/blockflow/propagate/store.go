// Package propagate stores block outputs for consumption by downstream
// blocks. The engine reads a block's upstream data before executing it and
// publishes the block's output after it succeeds; a failed block publishes
// nothing.
package propagate

import "errors"

// Entry is one published block output.
type Entry struct {
	BlockID string `json:"block_id"`
	// Number is the block's display number, the key downstream prompts
	// reference.
	Number string `json:"number"`
	Kind   string `json:"kind"`
	Output string `json:"output"`
}

// ErrUnknownBlock is returned when a store is asked about a block outside
// the graph it was scoped to.
var ErrUnknownBlock = errors.New("block not in propagation scope")

// Store holds the published outputs of one run.
// Implementations must be safe for concurrent use.
type Store interface {
	// Propagate publishes a block's latest output. Publishing the same
	// block again overwrites; the call is idempotent for identical input.
	Propagate(entry Entry) error

	// Upstream returns display number -> output for every upstream block
	// of blockID that has published, reflecting all prior successful
	// publishes in this run.
	Upstream(blockID string) (map[string]string, error)

	// Get returns the published entry for a block, if any.
	Get(blockID string) (Entry, bool)
}
