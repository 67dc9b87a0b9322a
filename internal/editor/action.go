package editor

import "github.com/aretw0/flowdeck/pkg/domain"

// Action is a discrete editing operation applied by Reduce.
type Action interface {
	actionName() string
}

// AddNode appends a node built from the details at the default position.
type AddNode struct {
	Details domain.NodeDetails
}

// Connect appends one edge for the connection.
// EdgeID is optional; Reduce generates one when empty.
type Connect struct {
	Connection domain.Connection
	EdgeID     string
}

// Replace swaps the whole graph. A nil Graph means the load yielded no data.
type Replace struct {
	Graph *domain.Graph
}

// MoveNode updates the position of an existing node at drag end.
type MoveNode struct {
	ID       string
	Position domain.Position
}

// Reset empties the graph. The id counter is kept.
type Reset struct{}

func (AddNode) actionName() string  { return "add_node" }
func (Connect) actionName() string  { return "connect" }
func (Replace) actionName() string  { return "replace" }
func (MoveNode) actionName() string { return "move_node" }
func (Reset) actionName() string    { return "reset" }

// Name returns a short label for logs.
func Name(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.actionName()
}
