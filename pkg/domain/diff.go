package domain

// GraphDiff represents the changes between two graph snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type GraphDiff struct {
	// FlowID is always present to identify the target.
	FlowID string `json:"flow_id"`

	// Replaced is set when the whole graph was swapped (load or reset).
	// Clients should discard their copy and use Nodes and Edges as-is.
	Replaced bool `json:"replaced,omitempty"`

	// Nodes holds nodes appended since the old snapshot, or every node when Replaced.
	Nodes []FlowNode `json:"nodes,omitempty"`

	// Edges holds edges appended since the old snapshot, or every edge when Replaced.
	Edges []FlowEdge `json:"edges,omitempty"`

	// Moved maps node IDs to their new position.
	Moved map[string]Position `json:"moved,omitempty"`
}

// Diff calculates the difference between oldGraph and newGraph.
// If oldGraph is nil, it returns a diff representing the entire newGraph (initial load).
// Graphs only grow at the tail, so any prefix mismatch is reported as a replacement.
func Diff(flowID string, oldGraph, newGraph *Graph) *GraphDiff {
	if newGraph == nil {
		return nil
	}

	diff := &GraphDiff{FlowID: flowID}

	if oldGraph == nil || !sharesPrefix(oldGraph, newGraph) {
		diff.Replaced = true
		diff.Nodes = newGraph.Nodes
		diff.Edges = newGraph.Edges
		return diff
	}

	if len(newGraph.Nodes) > len(oldGraph.Nodes) {
		diff.Nodes = newGraph.Nodes[len(oldGraph.Nodes):]
	}
	if len(newGraph.Edges) > len(oldGraph.Edges) {
		diff.Edges = newGraph.Edges[len(oldGraph.Edges):]
	}

	for i, n := range oldGraph.Nodes {
		if moved := newGraph.Nodes[i]; moved.Position != n.Position {
			if diff.Moved == nil {
				diff.Moved = make(map[string]Position)
			}
			diff.Moved[moved.ID] = moved.Position
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func sharesPrefix(old, new *Graph) bool {
	if len(new.Nodes) < len(old.Nodes) || len(new.Edges) < len(old.Edges) {
		return false
	}
	for i, n := range old.Nodes {
		if new.Nodes[i].ID != n.ID {
			return false
		}
	}
	for i, e := range old.Edges {
		if new.Edges[i].ID != e.ID {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *GraphDiff) IsEmpty() bool {
	return !d.Replaced &&
		len(d.Nodes) == 0 &&
		len(d.Edges) == 0 &&
		len(d.Moved) == 0
}
