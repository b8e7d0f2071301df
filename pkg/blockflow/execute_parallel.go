package blockflow

import (
	"context"
	"sync"

	"github.com/lumenlab/blockflow/pkg/blockflow/propagate"
)

// runConcurrent executes the plan wave by wave. Blocks within a wave have
// no dependency path between them; they run concurrently up to
// MaxConcurrency in flight. The wave boundary guarantees every block sees
// all of its upstream outputs before its prompt is resolved.
//
// Pause is observed between waves and before each dispatch slot; cancel is
// additionally checked before every launch, so at most the blocks already
// in flight finish after CancelExecution.
func (e *Engine) runConcurrent(ctx context.Context, x *execution, topo *topology, plan []string, store propagate.Store, options *ExecutionOptions) {
	type outcome struct {
		result  BlockResult
		execErr *ExecutionError
		done    bool
	}

	sem := make(chan struct{}, options.MaxConcurrency)

	for _, wave := range dependencyWaves(topo, plan) {
		if x.awaitRunnable(ctx) == StatusCancelled {
			return
		}

		outcomes := make([]outcome, len(wave))
		var wg sync.WaitGroup

		for i, blockID := range wave {
			if x.awaitRunnable(ctx) == StatusCancelled {
				break
			}
			sem <- struct{}{}
			if x.cancelled() {
				<-sem
				break
			}

			wg.Add(1)
			go func(i int, b *Block) {
				defer wg.Done()
				defer func() { <-sem }()
				result, execErr := e.executeBlock(ctx, x, b, store, options)
				outcomes[i] = outcome{result: result, execErr: execErr, done: true}
			}(i, topo.blocks[blockID])
		}

		wg.Wait()

		// Record in wave order so progress and results stay deterministic.
		for _, o := range outcomes {
			if o.done {
				x.record(o.result, o.execErr)
			}
		}

		if x.cancelled() {
			return
		}
	}
}
