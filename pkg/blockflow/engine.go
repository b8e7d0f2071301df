package blockflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumenlab/blockflow/pkg/blockflow/dispatch"
	"github.com/lumenlab/blockflow/pkg/blockflow/history"
	"github.com/lumenlab/blockflow/pkg/blockflow/observability"
	"github.com/lumenlab/blockflow/pkg/blockflow/registry"
	"github.com/lumenlab/blockflow/pkg/blockflow/variables"
)

// Engine executes workflow graphs. An Engine is safe for concurrent use;
// each ExecuteWorkflow call runs independently and is tracked in the
// engine's execution registry until it terminates.
type Engine struct {
	dispatcher dispatch.Dispatcher
	resolver   variables.Resolver
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	tracing    bool
	history    history.Store

	executions *registry.Registry[string, *execution]
	execSeq    atomic.Uint64
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. Nil disables logging.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithResolver replaces the default variable resolver.
func WithResolver(r variables.Resolver) EngineOption {
	return func(e *Engine) { e.resolver = r }
}

// WithMetrics sets the metrics recorder. Defaults to no-op.
func WithMetrics(m observability.MetricsRecorder) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithTracing enables OpenTelemetry spans around workflows and blocks.
// Spans are emitted through the global tracer provider.
func WithTracing(enabled bool) EngineOption {
	return func(e *Engine) {
		e.tracing = enabled
		if enabled {
			e.spans = observability.NewSpanManager()
		} else {
			e.spans = observability.NoopSpanManager{}
		}
	}
}

// WithHistoryStore attaches a store that receives the terminal result of
// every run. Write failures are logged, never fatal.
func WithHistoryStore(s history.Store) EngineOption {
	return func(e *Engine) { e.history = s }
}

// NewEngine creates an engine around a dispatcher.
// Panics if dispatcher is nil; everything else has a working default.
func NewEngine(dispatcher dispatch.Dispatcher, opts ...EngineOption) *Engine {
	if dispatcher == nil {
		panic("blockflow: dispatcher cannot be nil")
	}
	e := &Engine{
		dispatcher: dispatcher,
		resolver:   variables.NewExpander(),
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
		executions: registry.New[string, *execution](),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// nextExecutionID mints a process-unique execution id.
func (e *Engine) nextExecutionID() string {
	return fmt.Sprintf("exec_%d_%d", time.Now().UnixMilli(), e.execSeq.Add(1))
}

// Executions returns the ids of all live (non-terminated) executions,
// sorted for determinism.
func (e *Engine) Executions() []string {
	ids := e.executions.Keys()
	sort.Strings(ids)
	return ids
}

// execution is the mutable state of one in-flight run. All fields below mu
// are guarded by it.
type execution struct {
	id        string
	startTime time.Time

	mu     sync.Mutex
	status Status
	// resumed is non-nil only while paused; closing it releases waiters.
	resumed  chan struct{}
	progress Progress
	results  []BlockResult
	errors   []ExecutionError

	// notifyMu serializes OnProgress callbacks.
	notifyMu   sync.Mutex
	onProgress func(Progress)
}

func newExecution(id string, total int, onProgress func(Progress)) *execution {
	return &execution{
		id:         id,
		startTime:  time.Now(),
		status:     StatusRunning,
		progress:   Progress{Total: total},
		onProgress: onProgress,
	}
}

// pause transitions running to paused. Returns false if the execution is
// not running.
func (x *execution) pause() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.status != StatusRunning {
		return false
	}
	x.status = StatusPaused
	x.resumed = make(chan struct{})
	return true
}

// resume transitions paused to running. Returns false if the execution is
// not paused.
func (x *execution) resume() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.status != StatusPaused {
		return false
	}
	x.status = StatusRunning
	close(x.resumed)
	x.resumed = nil
	return true
}

// cancel marks the execution cancelled. A paused execution is released so
// the run loop can observe the cancellation. Returns the prior status and
// false if the execution already terminated.
func (x *execution) cancel() (Status, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.status.Terminal() {
		return x.status, false
	}
	prior := x.status
	if x.status == StatusPaused && x.resumed != nil {
		close(x.resumed)
		x.resumed = nil
	}
	x.status = StatusCancelled
	return prior, true
}

// cancelled reports whether the execution has been cancelled.
func (x *execution) cancelled() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.status == StatusCancelled
}

// awaitRunnable blocks while the execution is paused. It returns
// StatusRunning when the run loop may proceed, or StatusCancelled when
// the run must stop. Context cancellation counts as cancellation.
func (x *execution) awaitRunnable(ctx context.Context) Status {
	for {
		x.mu.Lock()
		switch x.status {
		case StatusRunning:
			x.mu.Unlock()
			if ctx.Err() != nil {
				x.cancel()
				return StatusCancelled
			}
			return StatusRunning
		case StatusCancelled:
			x.mu.Unlock()
			return StatusCancelled
		}
		wait := x.resumed
		x.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			x.cancel()
			return StatusCancelled
		}
	}
}

// setCurrent records the display number of the block now executing.
func (x *execution) setCurrent(number string) {
	x.mu.Lock()
	x.progress.Current = number
	x.mu.Unlock()
}

// record appends a block result, updates progress counters, and fires the
// progress callback outside the state lock.
func (x *execution) record(result BlockResult, execErr *ExecutionError) {
	x.mu.Lock()
	x.results = append(x.results, result)
	switch result.Status {
	case BlockCompleted:
		x.progress.Completed++
	case BlockFailed:
		x.progress.Failed++
	}
	if execErr != nil {
		x.errors = append(x.errors, *execErr)
	}
	x.progress.Current = ""
	snapshot := x.progress
	x.mu.Unlock()

	if x.onProgress != nil {
		x.notifyMu.Lock()
		x.onProgress(snapshot)
		x.notifyMu.Unlock()
	}
}

// snapshot returns a point-in-time status view with an ETA extrapolated
// from completed work.
func (x *execution) snapshot() StatusSnapshot {
	x.mu.Lock()
	defer x.mu.Unlock()

	snap := StatusSnapshot{
		ExecutionID: x.id,
		Status:      x.status,
		Progress:    x.progress,
		StartTime:   x.startTime,
	}

	done := x.progress.Completed + x.progress.Failed
	remaining := x.progress.Total - done
	if x.status == StatusRunning && done > 0 && remaining > 0 {
		elapsed := time.Since(x.startTime)
		eta := time.Now().Add(elapsed / time.Duration(done) * time.Duration(remaining))
		snap.EstimatedCompletion = &eta
	}
	return snap
}

// PauseExecution pauses a running execution. Blocks already dispatched run
// to completion; no new block starts until resume.
//
// Control operations are idempotent: pausing an unknown id or an execution
// that is not running is a silent no-op.
func (e *Engine) PauseExecution(executionID string) {
	x, ok := e.executions.Get(executionID)
	if !ok {
		return
	}
	if x.pause() {
		observability.LogStatusChange(e.logger, executionID, string(StatusRunning), string(StatusPaused))
	}
}

// ResumeExecution resumes a paused execution. Resuming an unknown id or an
// execution that is not paused is a silent no-op.
func (e *Engine) ResumeExecution(executionID string) {
	x, ok := e.executions.Get(executionID)
	if !ok {
		return
	}
	if x.resume() {
		observability.LogStatusChange(e.logger, executionID, string(StatusPaused), string(StatusRunning))
	}
}

// CancelExecution cancels a running or paused execution. Blocks already
// dispatched run to completion; everything not yet started is skipped.
// Cancelling an unknown id or a terminated execution is a silent no-op.
func (e *Engine) CancelExecution(executionID string) {
	x, ok := e.executions.Get(executionID)
	if !ok {
		return
	}
	if prior, ok := x.cancel(); ok {
		observability.LogStatusChange(e.logger, executionID, string(prior), string(StatusCancelled))
	}
}

// ExecutionStatus returns a point-in-time view of a live execution.
// Terminated executions are removed from the registry when ExecuteWorkflow
// returns; their summary is the returned ExecutionResult (and the history
// store, if one is attached).
func (e *Engine) ExecutionStatus(executionID string) (StatusSnapshot, error) {
	x, ok := e.executions.Get(executionID)
	if !ok {
		return StatusSnapshot{}, fmt.Errorf("execution %s not found", executionID)
	}
	return x.snapshot(), nil
}
