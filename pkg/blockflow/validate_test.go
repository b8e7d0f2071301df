package blockflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlab/blockflow/pkg/blockflow/variables"
)

// TestValidate_ValidGraph tests that a well-formed DAG passes.
func TestValidate_ValidGraph(t *testing.T) {
	result := ValidateGraph(fanOutGraph(), variables.NewExpander())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

// TestValidate_EmptyGraph tests that an empty graph is valid.
func TestValidate_EmptyGraph(t *testing.T) {
	result := ValidateGraph(&Graph{}, variables.NewExpander())

	assert.True(t, result.Valid)
}

// TestValidate_Cycle tests cycle detection.
func TestValidate_Cycle(t *testing.T) {
	result := ValidateGraph(cyclicGraph(), variables.NewExpander())

	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, CodeCircularDependency, result.Errors[0].Code)
}

// TestValidate_SelfLoop tests that a block connected to itself is a cycle.
func TestValidate_SelfLoop(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText},
		},
		Connections: []Connection{
			{ID: "c1", From: "b1", To: "b1"},
		},
	}

	result := ValidateGraph(g, variables.NewExpander())

	require.False(t, result.Valid)
	assert.Equal(t, CodeCircularDependency, result.Errors[0].Code)
	assert.Equal(t, "b1", result.Errors[0].BlockID)
}

// TestValidate_DanglingConnection tests missing endpoint detection.
func TestValidate_DanglingConnection(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText},
		},
		Connections: []Connection{
			{ID: "c1", From: "b1", To: "ghost"},
		},
	}

	result := ValidateGraph(g, variables.NewExpander())

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeMissingBlock, result.Errors[0].Code)
	assert.Equal(t, "c1", result.Errors[0].ConnectionID)
	assert.Equal(t, "ghost", result.Errors[0].BlockID)
}

// TestValidate_DanglingBothEndpoints tests that each missing endpoint is
// reported separately.
func TestValidate_DanglingBothEndpoints(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText},
		},
		Connections: []Connection{
			{ID: "c1", From: "ghost1", To: "ghost2"},
		},
	}

	result := ValidateGraph(g, variables.NewExpander())

	require.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)
}

// TestValidate_UnresolvedReference tests that a prompt referencing a
// non-upstream block is rejected.
func TestValidate_UnresolvedReference(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText, Prompt: "seed"},
			{ID: "b2", Number: "A02", Kind: KindText, Prompt: "uses {A99}"},
		},
		Connections: []Connection{
			{ID: "c1", From: "b1", To: "b2"},
		},
	}

	result := ValidateGraph(g, variables.NewExpander())

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeUnresolvedReference, result.Errors[0].Code)
	assert.Equal(t, "b2", result.Errors[0].BlockID)
	assert.Equal(t, "A99", result.Errors[0].Reference)
}

// TestValidate_SiblingReferenceRejected tests that referencing a sibling
// (reachable via fan-out but not upstream) is rejected.
func TestValidate_SiblingReferenceRejected(t *testing.T) {
	g := &Graph{
		Blocks: []Block{
			{ID: "b1", Number: "A01", Kind: KindText, Prompt: "seed"},
			{ID: "b2", Number: "A02", Kind: KindText, Prompt: "left"},
			{ID: "b3", Number: "A03", Kind: KindText, Prompt: "uses {A02}"},
		},
		Connections: []Connection{
			{ID: "c1", From: "b1", To: "b2"},
			{ID: "c2", From: "b1", To: "b3"},
		},
	}

	result := ValidateGraph(g, variables.NewExpander())

	require.False(t, result.Valid)
	assert.Equal(t, CodeUnresolvedReference, result.Errors[0].Code)
}

// TestValidate_TransitiveReferenceAllowed tests that references may reach
// beyond direct predecessors.
func TestValidate_TransitiveReferenceAllowed(t *testing.T) {
	g := linearGraph(3)
	g.Blocks[2].Prompt = "uses {A01} and {A02}"

	result := ValidateGraph(g, variables.NewExpander())

	assert.True(t, result.Valid)
}

// TestValidate_UnionsAllFindings tests that validation reports every
// problem instead of stopping at the first.
func TestValidate_UnionsAllFindings(t *testing.T) {
	g := cyclicGraph()
	g.Blocks[0].Prompt = "uses {A99}"
	g.Connections = append(g.Connections, Connection{ID: "c4", From: "b1", To: "ghost"})

	result := ValidateGraph(g, variables.NewExpander())

	require.False(t, result.Valid)

	codes := make(map[ValidationCode]bool)
	for _, e := range result.Errors {
		codes[e.Code] = true
	}
	assert.True(t, codes[CodeCircularDependency])
	assert.True(t, codes[CodeMissingBlock])
	assert.True(t, codes[CodeUnresolvedReference])
}

// TestEngineValidate tests the engine-bound wrapper.
func TestEngineValidate(t *testing.T) {
	engine := NewEngine(&echoDispatcher{})

	assert.True(t, engine.Validate(linearGraph(2)).Valid)
	assert.False(t, engine.Validate(cyclicGraph()).Valid)
}

// TestValidationError_Error tests the error string format.
func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Code: CodeMissingBlock, Message: "connection c1 references missing source block x"}
	assert.Contains(t, err.Error(), "missing_block")
	assert.Contains(t, err.Error(), "c1")
}
