package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeType is the discriminator tag of a FlowNode.
type NodeType string

// NodeType constants define the renderable message kinds of a chatbot flow.
const (
	// NodeTypeStart is the unique entry point of a flow. It carries no payload.
	NodeTypeStart NodeType = "START"
	// NodeTypeText sends a plain text message.
	NodeTypeText NodeType = "TEXT"
	// NodeTypeImage sends an image attachment with optional caption and reply buttons.
	NodeTypeImage NodeType = "IMAGE"
	// NodeTypeAudio sends an audio attachment.
	NodeTypeAudio NodeType = "AUDIO"
	// NodeTypeVideo sends a video attachment.
	NodeTypeVideo NodeType = "VIDEO"
	// NodeTypeDocument sends a document attachment.
	NodeTypeDocument NodeType = "DOCUMENT"
	// NodeTypeButton sends an interactive message with reply buttons.
	NodeTypeButton NodeType = "BUTTON"
	// NodeTypeList sends an interactive list message grouped in sections.
	NodeTypeList NodeType = "LIST"
)

// NodeTypes lists every supported kind in palette order.
var NodeTypes = []NodeType{
	NodeTypeStart,
	NodeTypeText,
	NodeTypeImage,
	NodeTypeAudio,
	NodeTypeVideo,
	NodeTypeDocument,
	NodeTypeButton,
	NodeTypeList,
}

// ParseNodeType resolves a tag case-insensitively.
func ParseNodeType(s string) (NodeType, error) {
	candidate := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range NodeTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
}

// IsMedia reports whether the kind carries a media attachment.
func (t NodeType) IsMedia() bool {
	switch t {
	case NodeTypeImage, NodeTypeAudio, NodeTypeVideo, NodeTypeDocument:
		return true
	}
	return false
}

// Position holds canvas coordinates.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DefaultPosition is where every freshly added node lands until it is dragged.
var DefaultPosition = Position{X: 50, Y: 50}

// FlowNode is a single message step of a chatbot flow.
type FlowNode struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`

	// Data is the kind-specific payload. Its concrete type always matches Type.
	Data NodeData `json:"data,omitempty"`
}

// NodeDetails is the input of the node factory: a kind plus its raw payload.
type NodeDetails struct {
	Type NodeType `json:"type"`
	Data NodeData `json:"data,omitempty"`
}

// Clone returns a deep copy of the node.
func (n FlowNode) Clone() FlowNode {
	out := n
	if n.Data != nil {
		out.Data = n.Data.clone()
	}
	return out
}

type wireNode struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON decodes the payload according to the node type.
func (n *FlowNode) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	t, err := ParseNodeType(string(w.Type))
	if err != nil {
		return err
	}

	data, err := decodeRawData(t, w.Data)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.ID, err)
	}

	n.ID = w.ID
	n.Type = t
	n.Position = w.Position
	n.Data = data
	return nil
}

// UnmarshalJSON decodes the payload according to the details type.
func (d *NodeDetails) UnmarshalJSON(b []byte) error {
	var w struct {
		Type NodeType        `json:"type"`
		Data json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	t, err := ParseNodeType(string(w.Type))
	if err != nil {
		return err
	}

	data, err := decodeRawData(t, w.Data)
	if err != nil {
		return err
	}

	d.Type = t
	d.Data = data
	return nil
}

func decodeRawData(t NodeType, raw json.RawMessage) (NodeData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return DecodeData(t, nil)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("invalid data payload: %w", err)
	}
	return DecodeData(t, m)
}
