package blockflow

import "time"

// Status is the lifecycle state of an execution.
type Status string

// Execution statuses. Completed, failed, and cancelled are terminal.
const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// BlockStatus is the terminal disposition of one block within a run.
type BlockStatus string

// Block dispositions. Every planned block receives exactly one: completed,
// failed, or (when the run is cancelled before the block starts) skipped.
const (
	BlockCompleted BlockStatus = "completed"
	BlockFailed    BlockStatus = "failed"
	BlockSkipped   BlockStatus = "skipped"
)

// Progress tracks how far an execution has advanced.
type Progress struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	// Current is the display number of the block being executed, empty
	// between blocks and after the run terminates.
	Current string `json:"current,omitempty"`
}

// BlockResult records the outcome of one block.
type BlockResult struct {
	BlockID       string        `json:"block_id"`
	BlockNumber   string        `json:"block_number"`
	Status        BlockStatus   `json:"status"`
	Output        string        `json:"output,omitempty"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	// RetryCount is the number of retries performed, i.e. attempts beyond
	// the first.
	RetryCount int `json:"retry_count"`
}

// ExecutionError records one block failure with a timestamp.
type ExecutionError struct {
	BlockID     string    `json:"block_id"`
	BlockNumber string    `json:"block_number"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// ExecutionStatistics aggregates per-block outcomes at finalization.
// Durations cover attempted blocks only; skipped blocks contribute nothing.
type ExecutionStatistics struct {
	TotalBlocks     int           `json:"total_blocks"`
	Completed       int           `json:"completed"`
	Failed          int           `json:"failed"`
	Skipped         int           `json:"skipped"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
}

// ExecutionResult is the immutable summary returned to the caller when a
// run terminates. Results are ordered by the execution plan.
type ExecutionResult struct {
	ExecutionID string              `json:"execution_id"`
	Status      Status              `json:"status"`
	Results     []BlockResult       `json:"results"`
	Statistics  ExecutionStatistics `json:"statistics"`
	Errors      []ExecutionError    `json:"errors,omitempty"`
}

// StatusSnapshot is a point-in-time view of a live execution.
type StatusSnapshot struct {
	ExecutionID string    `json:"execution_id"`
	Status      Status    `json:"status"`
	Progress    Progress  `json:"progress"`
	StartTime   time.Time `json:"start_time"`
	// EstimatedCompletion is a linear extrapolation from completed blocks,
	// present once at least one block has completed and work remains.
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

// computeStatistics derives aggregate statistics from recorded results.
func computeStatistics(results []BlockResult) ExecutionStatistics {
	stats := ExecutionStatistics{TotalBlocks: len(results)}
	attempted := 0
	for _, r := range results {
		switch r.Status {
		case BlockCompleted:
			stats.Completed++
		case BlockFailed:
			stats.Failed++
		case BlockSkipped:
			stats.Skipped++
			continue
		}
		attempted++
		stats.TotalDuration += r.ExecutionTime
	}
	if attempted > 0 {
		stats.AverageDuration = stats.TotalDuration / time.Duration(attempted)
	}
	return stats
}
