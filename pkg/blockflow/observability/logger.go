// Package observability provides structured logging, metrics, and
// distributed tracing for blockflow.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds execution context to a logger.
// Returns a new logger with execution_id and block_number fields.
func EnrichLogger(logger *slog.Logger, executionID, blockNumber string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("execution_id", executionID),
		slog.String("block_number", blockNumber),
	)
}

// LogExecutionStart logs the start of a workflow execution.
func LogExecutionStart(logger *slog.Logger, executionID string, totalBlocks int) {
	if logger == nil {
		return
	}
	logger.Info("workflow execution starting",
		slog.String("execution_id", executionID),
		slog.Int("total_blocks", totalBlocks),
	)
}

// LogExecutionComplete logs a terminated workflow execution.
func LogExecutionComplete(logger *slog.Logger, executionID, status string, durationMs float64, completed, failed, skipped int) {
	if logger == nil {
		return
	}
	logger.Info("workflow execution finished",
		slog.String("execution_id", executionID),
		slog.String("status", status),
		slog.Float64("duration_ms", durationMs),
		slog.Int("completed", completed),
		slog.Int("failed", failed),
		slog.Int("skipped", skipped),
	)
}

// LogBlockStart logs block execution start.
func LogBlockStart(logger *slog.Logger, blockNumber, kind string) {
	if logger == nil {
		return
	}
	logger.Debug("block starting",
		slog.String("block_number", blockNumber),
		slog.String("kind", kind),
	)
}

// LogBlockComplete logs successful block completion.
func LogBlockComplete(logger *slog.Logger, blockNumber string, durationMs float64, retries int) {
	if logger == nil {
		return
	}
	logger.Debug("block completed",
		slog.String("block_number", blockNumber),
		slog.Float64("duration_ms", durationMs),
		slog.Int("retries", retries),
	)
}

// LogBlockError logs block execution failure.
func LogBlockError(logger *slog.Logger, blockNumber string, err error) {
	if logger == nil {
		return
	}
	logger.Error("block failed",
		slog.String("block_number", blockNumber),
		slog.String("error", err.Error()),
	)
}

// LogStatusChange logs a control-driven status transition.
func LogStatusChange(logger *slog.Logger, executionID, from, to string) {
	if logger == nil {
		return
	}
	logger.Info("execution status changed",
		slog.String("execution_id", executionID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogHistoryError logs a failed history write (non-fatal).
func LogHistoryError(logger *slog.Logger, executionID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("history write failed",
		slog.String("execution_id", executionID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
