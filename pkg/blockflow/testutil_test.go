package blockflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/lumenlab/blockflow/pkg/blockflow/dispatch"
)

// Graph builders used across tests

// linearGraph builds A01 -> A02 -> ... -> A0n.
func linearGraph(n int) *Graph {
	g := &Graph{}
	for i := 1; i <= n; i++ {
		g.Blocks = append(g.Blocks, Block{
			ID:     fmt.Sprintf("b%d", i),
			Number: fmt.Sprintf("A%02d", i),
			Kind:   KindText,
			Prompt: fmt.Sprintf("step %d", i),
		})
		if i > 1 {
			g.Connections = append(g.Connections, Connection{
				ID:   fmt.Sprintf("c%d", i-1),
				From: fmt.Sprintf("b%d", i-1),
				To:   fmt.Sprintf("b%d", i),
			})
		}
	}
	return g
}

// fanOutGraph builds the diamond A01 -> {A02, A03} -> A04, where A04's
// prompt references both branches.
func fanOutGraph() *Graph {
	return &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText, Prompt: "seed"},
			{ID: "b2", Number: "A02", Kind: KindText, Prompt: "left of {A01}"},
			{ID: "b3", Number: "A03", Kind: KindText, Prompt: "right of {A01}"},
			{ID: "b4", Number: "A04", Kind: KindText, Prompt: "join {A02} and {A03}"},
		},
		Connections: []Connection{
			{ID: "c1", From: "b1", To: "b2"},
			{ID: "c2", From: "b1", To: "b3"},
			{ID: "c3", From: "b2", To: "b4"},
			{ID: "c4", From: "b3", To: "b4"},
		},
	}
}

// cyclicGraph builds b1 -> b2 -> b3 -> b1.
func cyclicGraph() *Graph {
	return &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText},
			{ID: "b2", Number: "A02", Kind: KindText},
			{ID: "b3", Number: "A03", Kind: KindText},
		},
		Connections: []Connection{
			{ID: "c1", From: "b1", To: "b2"},
			{ID: "c2", From: "b2", To: "b3"},
			{ID: "c3", From: "b3", To: "b1"},
		},
	}
}

// Dispatcher test doubles

// echoDispatcher returns "<number>:<prompt>" and records every request it
// receives, in order.
type echoDispatcher struct {
	mu       sync.Mutex
	requests []dispatch.Request
}

func (d *echoDispatcher) Generate(_ context.Context, req dispatch.Request) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	return req.BlockNumber + ":" + req.Prompt, nil
}

// seen returns the recorded block numbers in dispatch order.
func (d *echoDispatcher) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	numbers := make([]string, len(d.requests))
	for i, req := range d.requests {
		numbers[i] = req.BlockNumber
	}
	return numbers
}

// promptFor returns the resolved prompt the dispatcher saw for a block.
func (d *echoDispatcher) promptFor(number string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, req := range d.requests {
		if req.BlockNumber == number {
			return req.Prompt, true
		}
	}
	return "", false
}

// scriptedDispatcher fails blocks by number, optionally only for the first
// N attempts.
type scriptedDispatcher struct {
	mu sync.Mutex
	// failures maps block number to how many attempts should fail;
	// a negative count fails forever.
	failures map[string]int
	attempts map[string]int
}

func newScriptedDispatcher(failures map[string]int) *scriptedDispatcher {
	return &scriptedDispatcher{
		failures: failures,
		attempts: make(map[string]int),
	}
}

func (d *scriptedDispatcher) Generate(_ context.Context, req dispatch.Request) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts[req.BlockNumber]++
	remaining := d.failures[req.BlockNumber]
	if remaining < 0 || d.attempts[req.BlockNumber] <= remaining {
		return "", fmt.Errorf("generation failed for %s", req.BlockNumber)
	}
	return "out:" + req.BlockNumber, nil
}

func (d *scriptedDispatcher) attemptCount(number string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts[number]
}

// blockingDispatcher blocks each Generate call until released, so tests
// can exercise pause, cancel, and status on a live execution.
type blockingDispatcher struct {
	started chan string   // receives the block number as each call begins
	release chan struct{} // each receive lets one call finish
}

func newBlockingDispatcher() *blockingDispatcher {
	return &blockingDispatcher{
		started: make(chan string, 64),
		release: make(chan struct{}, 64),
	}
}

func (d *blockingDispatcher) Generate(ctx context.Context, req dispatch.Request) (string, error) {
	d.started <- req.BlockNumber
	select {
	case <-d.release:
		return "out:" + req.BlockNumber, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// releaseN lets n pending or future Generate calls finish.
func (d *blockingDispatcher) releaseN(n int) {
	for i := 0; i < n; i++ {
		d.release <- struct{}{}
	}
}

// resultByNumber indexes an execution result by block number.
func resultByNumber(result *ExecutionResult) map[string]BlockResult {
	byNumber := make(map[string]BlockResult, len(result.Results))
	for _, r := range result.Results {
		byNumber[r.BlockNumber] = r
	}
	return byNumber
}

// numbersInOrder returns the block numbers of the results, in order.
func numbersInOrder(result *ExecutionResult) []string {
	numbers := make([]string, len(result.Results))
	for i, r := range result.Results {
		numbers[i] = r.BlockNumber
	}
	return numbers
}

// indexOf returns the position of s in list, or -1.
func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
