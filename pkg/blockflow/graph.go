package blockflow

// Kind identifies the type of content a block generates.
type Kind string

// Block kinds.
const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Block is one generation step on the canvas. ID is the opaque unique
// identifier; Number is the human-visible label (e.g. "A01") used as the
// variable-reference key in downstream prompts.
//
// Blocks are owned by the caller and never mutated by the engine.
type Block struct {
	ID     string `json:"id" validate:"required"`
	Number string `json:"number" validate:"required"`
	Kind   Kind   `json:"kind" validate:"required,oneof=text image video"`
	Prompt string `json:"prompt"`
}

// Connection is a directed edge meaning "To may consume From's output".
// Fan-in and fan-out are both allowed.
type Connection struct {
	ID   string `json:"id" validate:"required"`
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// Graph is the static description of a workflow: blocks plus the
// connections between them. The engine treats a Graph as read-only for
// the duration of a run.
//
// A Graph must pass Validate before it can be scheduled: the connection
// relation must be acyclic and every connection endpoint must name an
// existing block.
type Graph struct {
	Blocks      []Block      `json:"blocks"`
	Connections []Connection `json:"connections"`
}

// BlockByID returns the block with the given id, if present.
func (g *Graph) BlockByID(id string) (*Block, bool) {
	for i := range g.Blocks {
		if g.Blocks[i].ID == id {
			return &g.Blocks[i], true
		}
	}
	return nil, false
}

// topology is the precomputed adjacency view of a Graph. Connections whose
// endpoints do not resolve to a block are excluded; validation reports them
// separately as missing_block errors.
type topology struct {
	blocks       map[string]*Block
	successors   map[string][]string
	predecessors map[string][]string
}

func newTopology(g *Graph) *topology {
	t := &topology{
		blocks:       make(map[string]*Block, len(g.Blocks)),
		successors:   make(map[string][]string),
		predecessors: make(map[string][]string),
	}
	for i := range g.Blocks {
		t.blocks[g.Blocks[i].ID] = &g.Blocks[i]
	}
	for _, c := range g.Connections {
		if _, ok := t.blocks[c.From]; !ok {
			continue
		}
		if _, ok := t.blocks[c.To]; !ok {
			continue
		}
		t.successors[c.From] = append(t.successors[c.From], c.To)
		t.predecessors[c.To] = append(t.predecessors[c.To], c.From)
	}
	return t
}

// upstream returns the set of block ids reachable from id by following
// connections backward, not including id itself.
func (t *topology) upstream(id string) map[string]bool {
	reached := make(map[string]bool)
	queue := append([]string(nil), t.predecessors[id]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if reached[current] {
			continue
		}
		reached[current] = true
		queue = append(queue, t.predecessors[current]...)
	}
	return reached
}

// upstreamNumbers returns the display numbers of all upstream blocks of id.
func (t *topology) upstreamNumbers(id string) []string {
	up := t.upstream(id)
	numbers := make([]string, 0, len(up))
	for blockID := range up {
		numbers = append(numbers, t.blocks[blockID].Number)
	}
	return numbers
}

// upstreamIDs returns, for every block, the ids of its upstream blocks.
// Used to scope the data propagator to each block's dependency cone.
func (t *topology) upstreamIDs() map[string][]string {
	result := make(map[string][]string, len(t.blocks))
	for id := range t.blocks {
		up := t.upstream(id)
		ids := make([]string, 0, len(up))
		for blockID := range up {
			ids = append(ids, blockID)
		}
		result[id] = ids
	}
	return result
}
