package blockflow

import "fmt"

// ExecutionOrder computes a topological ordering of the graph's blocks
// using Kahn's algorithm with a FIFO ready queue. The order is
// deterministic for a fixed input: ties among equally-ready blocks are
// broken by their position in g.Blocks.
//
// The ordering is structural: a block appears after all of its connection
// predecessors, regardless of whether those predecessors will succeed at
// runtime.
//
// Connections with missing endpoints are ignored here; validation reports
// them. If the remaining relation contains a cycle, ExecutionOrder returns
// ErrInconsistentGraph.
func ExecutionOrder(g *Graph) ([]string, error) {
	return executionOrder(g, newTopology(g))
}

func executionOrder(g *Graph, topo *topology) ([]string, error) {
	indegree := make(map[string]int, len(topo.blocks))
	for id := range topo.blocks {
		indegree[id] = len(topo.predecessors[id])
	}

	// Seed in declaration order for determinism.
	var queue []string
	for i := range g.Blocks {
		if indegree[g.Blocks[i].ID] == 0 {
			queue = append(queue, g.Blocks[i].ID)
		}
	}

	order := make([]string, 0, len(topo.blocks))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, next := range topo.successors[current] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(topo.blocks) {
		return nil, fmt.Errorf("%w: ordered %d of %d blocks", ErrInconsistentGraph, len(order), len(topo.blocks))
	}
	return order, nil
}

// dependencyWaves groups the plan into waves: blocks in the same wave have
// no dependency path between them and may execute concurrently. Wave k
// holds the blocks whose longest predecessor chain has length k. Plan
// order is preserved within each wave.
func dependencyWaves(topo *topology, plan []string) [][]string {
	depth := make(map[string]int, len(plan))
	maxDepth := 0
	for _, id := range plan {
		d := 0
		for _, pred := range topo.predecessors[id] {
			if depth[pred]+1 > d {
				d = depth[pred] + 1
			}
		}
		depth[id] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	waves := make([][]string, maxDepth+1)
	for _, id := range plan {
		waves[depth[id]] = append(waves[depth[id]], id)
	}
	return waves
}
