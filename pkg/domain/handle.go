package domain

import "fmt"

// HandleKind tells whether a handle accepts or emits edges.
type HandleKind string

const (
	HandleInput  HandleKind = "target"
	HandleOutput HandleKind = "source"
)

// InputHandleID is the ID of the single input handle of every non-START node.
const InputHandleID = "in"

// NextHandleID is the default output of START and TEXT nodes.
const NextHandleID = "next"

// Handle is a named connection point on a node.
type Handle struct {
	ID    string     `json:"id"`
	Kind  HandleKind `json:"kind"`
	Label string     `json:"label,omitempty"`
}

// ButtonHandleID names the output handle of the i-th reply button.
func ButtonHandleID(i int) string {
	return fmt.Sprintf("button-%d", i)
}

// ListHandleID names the output handle of a row inside a list section.
func ListHandleID(section, row int) string {
	return fmt.Sprintf("section-%d-button-%d", section, row)
}

// InputHandles returns the input handles of a node: none for START, one otherwise.
func InputHandles(n FlowNode) []Handle {
	if n.Type == NodeTypeStart {
		return nil
	}
	return []Handle{{ID: InputHandleID, Kind: HandleInput}}
}

// OutputHandles returns one output handle per button of BUTTON, LIST and media nodes.
// START and TEXT expose a single "next" output.
func OutputHandles(n FlowNode) []Handle {
	switch d := n.Data.(type) {
	case *MediaData:
		return buttonHandles(d.Buttons)
	case *ButtonData:
		return buttonHandles(d.Buttons)
	case *ListData:
		var out []Handle
		for s, section := range d.Sections {
			for r, label := range section.Buttons {
				out = append(out, Handle{ID: ListHandleID(s, r), Kind: HandleOutput, Label: label})
			}
		}
		return out
	}

	if n.Type == NodeTypeStart || n.Type == NodeTypeText {
		return []Handle{{ID: NextHandleID, Kind: HandleOutput}}
	}
	return nil
}

func buttonHandles(buttons []string) []Handle {
	if len(buttons) == 0 {
		return nil
	}
	out := make([]Handle, len(buttons))
	for i, label := range buttons {
		out[i] = Handle{ID: ButtonHandleID(i), Kind: HandleOutput, Label: label}
	}
	return out
}
