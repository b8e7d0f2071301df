package blockflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExecutionOrder_Linear tests ordering of a chain.
func TestExecutionOrder_Linear(t *testing.T) {
	order, err := ExecutionOrder(linearGraph(4))

	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, order)
}

// TestExecutionOrder_FanOut tests that the diamond orders source first,
// join last.
func TestExecutionOrder_FanOut(t *testing.T) {
	order, err := ExecutionOrder(fanOutGraph())

	require.NoError(t, err)
	require.Len(t, order, 4)
	assert.Equal(t, "b1", order[0])
	assert.Equal(t, "b4", order[3])
}

// TestExecutionOrder_TopologicalSoundness tests that every block appears
// after all of its predecessors.
func TestExecutionOrder_TopologicalSoundness(t *testing.T) {
	g := fanOutGraph()
	order, err := ExecutionOrder(g)
	require.NoError(t, err)

	for _, c := range g.Connections {
		assert.Less(t, indexOf(order, c.From), indexOf(order, c.To),
			"connection %s must order %s before %s", c.ID, c.From, c.To)
	}
}

// TestExecutionOrder_Deterministic tests tie-breaking by declaration order.
func TestExecutionOrder_Deterministic(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b3", Number: "A03", Kind: KindText},
			{ID: "b1", Number: "A01", Kind: KindText},
			{ID: "b2", Number: "A02", Kind: KindText},
		},
	}

	for i := 0; i < 10; i++ {
		order, err := ExecutionOrder(g)
		require.NoError(t, err)
		assert.Equal(t, []string{"b3", "b1", "b2"}, order)
	}
}

// TestExecutionOrder_DisconnectedComponents tests that isolated subgraphs
// are all scheduled.
func TestExecutionOrder_DisconnectedComponents(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText},
			{ID: "b2", Number: "A02", Kind: KindText},
			{ID: "b3", Number: "B01", Kind: KindImage},
		},
		Connections: []Connection{
			{ID: "c1", From: "b1", To: "b2"},
		},
	}

	order, err := ExecutionOrder(g)

	require.NoError(t, err)
	assert.Len(t, order, 3)
	assert.Less(t, indexOf(order, "b1"), indexOf(order, "b2"))
}

// TestExecutionOrder_Cycle tests that a cyclic graph cannot be ordered.
func TestExecutionOrder_Cycle(t *testing.T) {
	_, err := ExecutionOrder(cyclicGraph())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentGraph)
}

// TestExecutionOrder_Empty tests the empty graph.
func TestExecutionOrder_Empty(t *testing.T) {
	order, err := ExecutionOrder(&Graph{})

	require.NoError(t, err)
	assert.Empty(t, order)
}

// TestDependencyWaves tests wave grouping by longest predecessor chain.
func TestDependencyWaves(t *testing.T) {
	g := fanOutGraph()
	topo := newTopology(g)
	plan, err := executionOrder(g, topo)
	require.NoError(t, err)

	waves := dependencyWaves(topo, plan)

	require.Len(t, waves, 3)
	assert.Equal(t, []string{"b1"}, waves[0])
	assert.ElementsMatch(t, []string{"b2", "b3"}, waves[1])
	assert.Equal(t, []string{"b4"}, waves[2])
}

// TestDependencyWaves_Independent tests that unconnected blocks share one
// wave.
func TestDependencyWaves_Independent(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText},
			{ID: "b2", Number: "A02", Kind: KindText},
			{ID: "b3", Number: "A03", Kind: KindText},
		},
	}
	topo := newTopology(g)
	plan, err := executionOrder(g, topo)
	require.NoError(t, err)

	waves := dependencyWaves(topo, plan)

	require.Len(t, waves, 1)
	assert.Equal(t, []string{"b1", "b2", "b3"}, waves[0])
}
