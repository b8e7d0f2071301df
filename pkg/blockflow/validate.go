package blockflow

import (
	"fmt"

	"github.com/lumenlab/blockflow/pkg/blockflow/variables"
)

// ValidationResult is the outcome of validating a graph.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the graph against the engine's variable resolver.
// See ValidateGraph.
func (e *Engine) Validate(g *Graph) ValidationResult {
	return ValidateGraph(g, e.resolver)
}

// ValidateGraph runs three independent checks and unions their findings:
//
//  1. Cycle detection over the block adjacency induced by connections.
//  2. Dangling references: both endpoints of every connection must name an
//     existing block.
//  3. Variable reachability: every reference in a block's prompt must name
//     a block in that block's upstream set.
//
// The checks do not short-circuit; all problems are reported together.
// A graph with any reported error must not be scheduled.
func ValidateGraph(g *Graph, resolver variables.Resolver) ValidationResult {
	return validateGraph(g, resolver, nil)
}

// validateGraph additionally treats extra names (batch inputs) as
// available references in every prompt.
func validateGraph(g *Graph, resolver variables.Resolver, extra []string) ValidationResult {
	topo := newTopology(g)

	var errs []ValidationError
	errs = append(errs, detectCycles(g, topo)...)
	errs = append(errs, detectDanglingConnections(g, topo)...)
	errs = append(errs, detectUnresolvedReferences(g, topo, resolver, extra)...)

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// detectCycles runs a depth-first search with an on-stack set. Any edge
// back to a block still on the stack is reported as a circular dependency.
// O(V+E).
func detectCycles(g *Graph, topo *topology) []ValidationError {
	const (
		unvisited = iota
		onStack
		done
	)

	state := make(map[string]int, len(topo.blocks))
	var errs []ValidationError

	var visit func(id string)
	visit = func(id string) {
		state[id] = onStack
		for _, next := range topo.successors[id] {
			switch state[next] {
			case onStack:
				errs = append(errs, ValidationError{
					Code:    CodeCircularDependency,
					BlockID: next,
					Message: fmt.Sprintf("block %s is part of a connection cycle", topo.blocks[next].Number),
				})
			case unvisited:
				visit(next)
			}
		}
		state[id] = done
	}

	for i := range g.Blocks {
		if state[g.Blocks[i].ID] == unvisited {
			visit(g.Blocks[i].ID)
		}
	}
	return errs
}

// detectDanglingConnections reports connections whose endpoints do not
// resolve to a block in the graph.
func detectDanglingConnections(g *Graph, topo *topology) []ValidationError {
	var errs []ValidationError
	for _, c := range g.Connections {
		if _, ok := topo.blocks[c.From]; !ok {
			errs = append(errs, ValidationError{
				Code:         CodeMissingBlock,
				ConnectionID: c.ID,
				BlockID:      c.From,
				Message:      fmt.Sprintf("connection %s references missing source block %s", c.ID, c.From),
			})
		}
		if _, ok := topo.blocks[c.To]; !ok {
			errs = append(errs, ValidationError{
				Code:         CodeMissingBlock,
				ConnectionID: c.ID,
				BlockID:      c.To,
				Message:      fmt.Sprintf("connection %s references missing target block %s", c.ID, c.To),
			})
		}
	}
	return errs
}

// detectUnresolvedReferences asks the variable resolver to check every
// block's prompt against the display numbers of its upstream blocks.
func detectUnresolvedReferences(g *Graph, topo *topology, resolver variables.Resolver, extra []string) []ValidationError {
	var errs []ValidationError
	for i := range g.Blocks {
		b := &g.Blocks[i]
		if b.Prompt == "" {
			continue
		}
		available := append(topo.upstreamNumbers(b.ID), extra...)
		for _, ref := range resolver.Validate(b.Prompt, available) {
			errs = append(errs, ValidationError{
				Code:      CodeUnresolvedReference,
				BlockID:   b.ID,
				Reference: ref.Name,
				Message:   fmt.Sprintf("block %s references {%s}, which is not an upstream block", b.Number, ref.Name),
			})
		}
	}
	return errs
}
