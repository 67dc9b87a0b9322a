package domain

import "strings"

// EdgeStyle is the cosmetic stroke of an edge.
type EdgeStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// DefaultEdgeStyle is applied to every edge created by the connection protocol.
var DefaultEdgeStyle = EdgeStyle{Stroke: "#25D366", StrokeWidth: 2}

// FlowEdge is a directed link from an output handle of Source to the input handle of Target.
type FlowEdge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Animated     bool      `json:"animated"`
	Style        EdgeStyle `json:"style"`
}

// Connection is what the canvas reports when the user drags between two handles.
type Connection struct {
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Valid reports whether both endpoints are named.
// No other check is made: any handle may connect to any node.
func (c Connection) Valid() bool {
	return strings.TrimSpace(c.Source) != "" && strings.TrimSpace(c.Target) != ""
}
