package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeAdded   EventType = "node_added"
	EventNodeMoved   EventType = "node_moved"
	EventEdgeAdded   EventType = "edge_added"
	EventGraphLoaded EventType = "graph_loaded"
	EventGraphSaved  EventType = "graph_saved"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id"`
}

// NodeEvent is emitted when a node is inserted or moved.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
}

// EdgeEvent is emitted when the connection protocol records an edge.
type EdgeEvent struct {
	EventBase
	Edge FlowEdge `json:"edge"`
}

// GraphEvent is emitted when a whole graph is loaded or saved.
type GraphEvent struct {
	EventBase
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
	// Found is false when a load yielded no data.
	Found bool `json:"found"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnNodeAdded   func(context.Context, *NodeEvent)
	OnNodeMoved   func(context.Context, *NodeEvent)
	OnEdgeAdded   func(context.Context, *EdgeEvent)
	OnGraphLoaded func(context.Context, *GraphEvent)
	OnGraphSaved  func(context.Context, *GraphEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeAdded:   chain(h.OnNodeAdded, other.OnNodeAdded),
		OnNodeMoved:   chain(h.OnNodeMoved, other.OnNodeMoved),
		OnEdgeAdded:   chain(h.OnEdgeAdded, other.OnEdgeAdded),
		OnGraphLoaded: chain(h.OnGraphLoaded, other.OnGraphLoaded),
		OnGraphSaved:  chain(h.OnGraphSaved, other.OnGraphSaved),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
