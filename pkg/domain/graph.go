package domain

import "encoding/json"

// Graph is the editable content of a flow: nodes in insertion order and edges.
type Graph struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`

	// Envelope carries an opaque sealed copy of the graph when stored encrypted.
	// Nodes and Edges are empty in that case.
	Envelope string `json:"envelope,omitempty"`
}

// NewGraph returns an empty graph with non-nil collections,
// so it serializes as {"nodes": [], "edges": []}.
func NewGraph() *Graph {
	return &Graph{
		Nodes: []FlowNode{},
		Edges: []FlowEdge{},
	}
}

// IsEmpty reports whether the graph has neither nodes nor edges.
func (g *Graph) IsEmpty() bool {
	return g == nil || (len(g.Nodes) == 0 && len(g.Edges) == 0 && g.Envelope == "")
}

// Node looks up a node by ID.
func (g *Graph) Node(id string) (FlowNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return NewGraph()
	}
	out := &Graph{
		Nodes:    make([]FlowNode, len(g.Nodes)),
		Edges:    make([]FlowEdge, len(g.Edges)),
		Envelope: g.Envelope,
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, g.Edges)
	return out
}

// UnmarshalJSON keeps collections non-nil when the payload omits them.
func (g *Graph) UnmarshalJSON(b []byte) error {
	type plain Graph
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Nodes == nil {
		p.Nodes = []FlowNode{}
	}
	if p.Edges == nil {
		p.Edges = []FlowEdge{}
	}
	*g = Graph(p)
	return nil
}

