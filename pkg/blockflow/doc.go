/*
Package blockflow executes workflow graphs of generation blocks.

# Overview

blockflow is a Go library for running canvas-style workflows: a directed
acyclic graph of blocks (text, image, or video generation steps) joined by
connections that carry each block's output into downstream prompts via
{NUMBER} variable references.

The engine validates graph structure before running, schedules blocks in
dependency order, and drives every planned block to a terminal disposition
(completed, failed, or skipped) even when some blocks fail mid-run.

Features:
  - Structural validation: cycles, dangling connections, and unresolvable
    variable references are all reported together
  - Deterministic topological scheduling with optional bounded concurrency
  - Pause, resume, and cancel controls on live executions
  - Per-attempt dispatch timeouts and retries with exponential backoff
  - Progress snapshots with completion estimates
  - Optional execution history persisted to SQLite

# Basic Usage

Build a graph, create an engine around a dispatcher, and execute:

	dispatcher := dispatch.Func(func(ctx context.Context, req dispatch.Request) (string, error) {
	    return callModel(ctx, req.Kind, req.Prompt)
	})

	engine := blockflow.NewEngine(dispatcher)

	graph := &blockflow.Graph{
	    Blocks: []blockflow.Block{
	        {ID: "b1", Number: "A01", Kind: blockflow.KindText, Prompt: "Write a tagline"},
	        {ID: "b2", Number: "A02", Kind: blockflow.KindImage, Prompt: "Poster for: {A01}"},
	    },
	    Connections: []blockflow.Connection{
	        {ID: "c1", From: "b1", To: "b2"},
	    },
	}

	result, err := engine.ExecuteWorkflow(context.Background(), graph)
	if err != nil {
	    log.Fatal(err)
	}
	for _, r := range result.Results {
	    fmt.Println(r.BlockNumber, r.Status)
	}

# Execution Controls

A running execution can be paused, resumed, or cancelled by id. Blocks
already dispatched always run to completion; controls take effect at the
next dispatch boundary:

	ids := engine.Executions()
	engine.PauseExecution(ids[0])
	engine.ResumeExecution(ids[0])
	engine.CancelExecution(ids[0])

	snap, _ := engine.ExecutionStatus(ids[0])
	fmt.Println(snap.Status, snap.Progress.Completed, "of", snap.Progress.Total)

# Failure Semantics

A failed block never stops the run. Its result records the error, the run
continues, and downstream prompts see no value for the failed block's
variable. The run's terminal status is failed if any block failed,
cancelled if it was cancelled, and completed otherwise.
*/
package blockflow
