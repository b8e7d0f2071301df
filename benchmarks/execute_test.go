package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/lumenlab/blockflow/pkg/blockflow"
	"github.com/lumenlab/blockflow/pkg/blockflow/dispatch"
)

// noopDispatcher returns immediately to measure engine overhead.
var noopDispatcher = dispatch.Func(func(ctx context.Context, req dispatch.Request) (string, error) {
	return "out", nil
})

// chainGraph builds a linear chain of n blocks.
func chainGraph(n int) *blockflow.Graph {
	g := &blockflow.Graph{}
	for i := 1; i <= n; i++ {
		g.Blocks = append(g.Blocks, blockflow.Block{
			ID:     fmt.Sprintf("b%d", i),
			Number: fmt.Sprintf("A%02d", i),
			Kind:   blockflow.KindText,
			Prompt: "step",
		})
		if i > 1 {
			g.Connections = append(g.Connections, blockflow.Connection{
				ID:   fmt.Sprintf("c%d", i-1),
				From: fmt.Sprintf("b%d", i-1),
				To:   fmt.Sprintf("b%d", i),
			})
		}
	}
	return g
}

// wideGraph builds one source fanning out to n independent blocks.
func wideGraph(n int) *blockflow.Graph {
	g := &blockflow.Graph{
		Blocks: []blockflow.Block{
			{ID: "src", Number: "A00", Kind: blockflow.KindText, Prompt: "seed"},
		},
	}
	for i := 1; i <= n; i++ {
		g.Blocks = append(g.Blocks, blockflow.Block{
			ID:     fmt.Sprintf("b%d", i),
			Number: fmt.Sprintf("A%02d", i),
			Kind:   blockflow.KindText,
			Prompt: "use {A00}",
		})
		g.Connections = append(g.Connections, blockflow.Connection{
			ID:   fmt.Sprintf("c%d", i),
			From: "src",
			To:   fmt.Sprintf("b%d", i),
		})
	}
	return g
}

// BenchmarkExecuteWorkflow_Chain10 measures sequential execution of a
// 10-block chain.
func BenchmarkExecuteWorkflow_Chain10(b *testing.B) {
	engine := blockflow.NewEngine(noopDispatcher)
	g := chainGraph(10)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ExecuteWorkflow(ctx, g); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExecuteWorkflow_Chain100 measures a 100-block chain.
func BenchmarkExecuteWorkflow_Chain100(b *testing.B) {
	engine := blockflow.NewEngine(noopDispatcher)
	g := chainGraph(100)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ExecuteWorkflow(ctx, g); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExecuteWorkflow_Wide50_Sequential measures 50 independent
// blocks run one at a time.
func BenchmarkExecuteWorkflow_Wide50_Sequential(b *testing.B) {
	engine := blockflow.NewEngine(noopDispatcher)
	g := wideGraph(50)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ExecuteWorkflow(ctx, g); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExecuteWorkflow_Wide50_Concurrent measures the same graph with
// 8 blocks in flight.
func BenchmarkExecuteWorkflow_Wide50_Concurrent(b *testing.B) {
	engine := blockflow.NewEngine(noopDispatcher)
	g := wideGraph(50)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ExecuteWorkflow(ctx, g, blockflow.WithMaxConcurrency(8)); err != nil {
			b.Fatal(err)
		}
	}
}
