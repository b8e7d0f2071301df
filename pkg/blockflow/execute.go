package blockflow

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/lumenlab/blockflow/pkg/blockflow/dispatch"
	"github.com/lumenlab/blockflow/pkg/blockflow/history"
	"github.com/lumenlab/blockflow/pkg/blockflow/observability"
	"github.com/lumenlab/blockflow/pkg/blockflow/propagate"
)

// ExecuteWorkflow validates the graph, computes an execution plan, and
// runs every block to a terminal disposition. It blocks until the run
// terminates and returns the immutable summary.
//
// Failures do not stop the run: a failed block is recorded and execution
// continues with the remaining blocks, whose prompts simply see no value
// for the failed block's variable. Cancellation skips everything not yet
// started. ExecuteWorkflow returns a non-nil error only when the run never
// starts (nil graph, invalid options, failed validation); block failures
// are reported through the result instead.
func (e *Engine) ExecuteWorkflow(ctx context.Context, g *Graph, opts ...ExecuteOption) (*ExecutionResult, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	options := defaultExecutionOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.validate(); err != nil {
		return nil, err
	}

	// Batch-input names are valid references even with no upstream block.
	var extra []string
	for name := range options.BatchInputs {
		extra = append(extra, name)
	}
	validation := validateGraph(g, e.resolver, extra)
	if !validation.Valid {
		return nil, &GraphError{Errors: validation.Errors}
	}

	topo := newTopology(g)
	plan, err := executionOrder(g, topo)
	if err != nil {
		return nil, err
	}

	store := options.propagator
	if store == nil {
		store = propagate.NewMemoryStore(topo.upstreamIDs())
	}

	executionID := e.nextExecutionID()
	x := newExecution(executionID, len(plan), options.OnProgress)
	e.executions.Register(executionID, x)
	defer e.executions.Delete(executionID)

	observability.LogExecutionStart(e.logger, executionID, len(plan))
	elapsed := observability.TimedOperation()

	var workflowSpan = func() func(error) {
		if !e.tracing {
			return func(error) {}
		}
		spanCtx, span := e.spans.StartWorkflowSpan(ctx, executionID)
		ctx = spanCtx
		return func(err error) { e.spans.EndSpanWithError(span, err) }
	}()

	if options.MaxConcurrency > 1 {
		e.runConcurrent(ctx, x, topo, plan, store, &options)
	} else {
		e.runSequential(ctx, x, topo, plan, store, &options)
	}

	result := e.finalize(x, plan, topo)

	duration := time.Since(x.startTime)
	e.metrics.RecordWorkflowRun(ctx, string(result.Status), duration, len(plan))
	workflowSpan(nil)
	observability.LogExecutionComplete(e.logger, executionID, string(result.Status), elapsed(),
		result.Statistics.Completed, result.Statistics.Failed, result.Statistics.Skipped)

	e.saveHistory(x, result)
	return result, nil
}

// runSequential executes the plan one block at a time, honoring pause and
// cancel between blocks.
func (e *Engine) runSequential(ctx context.Context, x *execution, topo *topology, plan []string, store propagate.Store, options *ExecutionOptions) {
	for _, blockID := range plan {
		if x.awaitRunnable(ctx) == StatusCancelled {
			return
		}
		result, execErr := e.executeBlock(ctx, x, topo.blocks[blockID], store, options)
		x.record(result, execErr)
	}
}

// executeBlock resolves the block's prompt against its upstream outputs,
// dispatches it with retries, and publishes its output on success. The
// returned ExecutionError is nil when the block completed.
func (e *Engine) executeBlock(ctx context.Context, x *execution, b *Block, store propagate.Store, options *ExecutionOptions) (BlockResult, *ExecutionError) {
	x.setCurrent(b.Number)
	observability.LogBlockStart(e.logger, b.Number, string(b.Kind))
	elapsed := observability.TimedOperation()
	start := time.Now()

	var endSpan = func(error) {}
	if e.tracing {
		spanCtx, span := e.spans.StartBlockSpan(ctx, b.Number, string(b.Kind))
		ctx = spanCtx
		endSpan = func(err error) { e.spans.EndSpanWithError(span, err) }
	}

	vars, err := store.Upstream(b.ID)
	if err != nil {
		// Unknown block means the store was scoped to a different graph.
		vars = nil
	}
	if len(options.BatchInputs) > 0 {
		merged := make(map[string]string, len(options.BatchInputs)+len(vars))
		for k, v := range options.BatchInputs {
			merged[k] = v
		}
		for k, v := range vars {
			merged[k] = v
		}
		vars = merged
	}
	prompt := e.resolver.Resolve(b.Prompt, vars)

	output, attempts, dispatchErr := e.dispatchWithRetry(ctx, b, prompt, options)
	duration := time.Since(start)
	e.metrics.RecordBlockExecution(ctx, b.Number, string(b.Kind), duration, dispatchErr)
	endSpan(dispatchErr)

	result := BlockResult{
		BlockID:       b.ID,
		BlockNumber:   b.Number,
		ExecutionTime: duration,
		RetryCount:    attempts - 1,
	}

	if dispatchErr != nil {
		result.Status = BlockFailed
		result.Error = dispatchErr.Error()
		observability.LogBlockError(e.logger, b.Number, dispatchErr)
		return result, &ExecutionError{
			BlockID:     b.ID,
			BlockNumber: b.Number,
			Message:     dispatchErr.Error(),
			Timestamp:   time.Now(),
		}
	}

	result.Status = BlockCompleted
	result.Output = output
	// Publish only on success: downstream prompts never see a failed
	// block's partial output.
	if err := store.Propagate(propagate.Entry{
		BlockID: b.ID,
		Number:  b.Number,
		Kind:    string(b.Kind),
		Output:  output,
	}); err != nil {
		observability.LogBlockError(e.logger, b.Number, err)
	}
	observability.LogBlockComplete(e.logger, b.Number, elapsed(), result.RetryCount)
	return result, nil
}

// dispatchWithRetry runs the dispatcher up to MaxRetries+1 times with
// exponential backoff and jitter. Each attempt is bounded by
// DispatchTimeout when one is set. Returns the output, the number of
// attempts made, and the final error (nil on success).
func (e *Engine) dispatchWithRetry(ctx context.Context, b *Block, prompt string, options *ExecutionOptions) (string, int, error) {
	req := dispatch.Request{
		BlockID:     b.ID,
		BlockNumber: b.Number,
		Kind:        string(b.Kind),
		Prompt:      prompt,
	}

	maxAttempts := options.MaxRetries + 1
	delay := options.RetryDelay
	const maxDelay = 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if options.DispatchTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, options.DispatchTimeout)
		}
		output, err := e.dispatcher.Generate(attemptCtx, req)
		cancel()

		if err == nil {
			return output, attempt, nil
		}
		lastErr = err

		if attempt == maxAttempts || ctx.Err() != nil {
			return "", attempt, &DispatchError{
				BlockID:     b.ID,
				BlockNumber: b.Number,
				Attempts:    attempt,
				Err:         lastErr,
			}
		}

		e.metrics.RecordRetry(ctx, b.Number)

		// Exponential backoff with up to 25% jitter.
		sleep := delay + time.Duration(rand.Int64N(int64(delay)/4+1))
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return "", attempt, &DispatchError{
				BlockID:     b.ID,
				BlockNumber: b.Number,
				Attempts:    attempt,
				Err:         lastErr,
			}
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	// Unreachable; the loop always returns.
	return "", maxAttempts, lastErr
}

// finalize freezes the execution's terminal state and builds the summary.
// Blocks never attempted (cancellation) receive synthesized skipped
// results so that every planned block appears exactly once, in plan order.
func (e *Engine) finalize(x *execution, plan []string, topo *topology) *ExecutionResult {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.status == StatusCancelled {
		attempted := make(map[string]bool, len(x.results))
		for _, r := range x.results {
			attempted[r.BlockID] = true
		}
		for _, blockID := range plan {
			if attempted[blockID] {
				continue
			}
			x.results = append(x.results, BlockResult{
				BlockID:     blockID,
				BlockNumber: topo.blocks[blockID].Number,
				Status:      BlockSkipped,
			})
		}
	}

	switch {
	case x.status == StatusCancelled:
		// Stays cancelled.
	case x.progress.Failed > 0:
		x.status = StatusFailed
	default:
		x.status = StatusCompleted
	}
	x.progress.Current = ""

	// Results are reported in plan order regardless of completion order.
	position := make(map[string]int, len(plan))
	for i, blockID := range plan {
		position[blockID] = i
	}
	results := make([]BlockResult, len(x.results))
	copy(results, x.results)
	sort.SliceStable(results, func(i, j int) bool {
		return position[results[i].BlockID] < position[results[j].BlockID]
	})
	errs := make([]ExecutionError, len(x.errors))
	copy(errs, x.errors)

	return &ExecutionResult{
		ExecutionID: x.id,
		Status:      x.status,
		Results:     results,
		Statistics:  computeStatistics(results),
		Errors:      errs,
	}
}

// saveHistory persists the terminal summary when a history store is
// attached. Failures are logged, never fatal.
func (e *Engine) saveHistory(x *execution, result *ExecutionResult) {
	if e.history == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		observability.LogHistoryError(e.logger, x.id, err)
		return
	}
	rec := history.Record{
		ExecutionID: x.id,
		Status:      string(result.Status),
		StartedAt:   x.startTime,
		FinishedAt:  time.Now(),
		Result:      payload,
	}
	if err := e.history.Save(rec); err != nil {
		observability.LogHistoryError(e.logger, x.id, err)
	}
}
