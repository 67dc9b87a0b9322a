package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one log line per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeAdded: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_added", "flow_id", e.FlowID, "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeMoved: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_moved", "flow_id", e.FlowID, "node_id", e.NodeID)
		},
		OnEdgeAdded: func(ctx context.Context, e *domain.EdgeEvent) {
			logger.InfoContext(ctx, "edge_added",
				"flow_id", e.FlowID,
				"edge_id", e.Edge.ID,
				"source", e.Edge.Source,
				"target", e.Edge.Target,
			)
		},
		OnGraphLoaded: func(ctx context.Context, e *domain.GraphEvent) {
			logger.InfoContext(ctx, "graph_loaded", "flow_id", e.FlowID, "found", e.Found, "nodes", e.Nodes, "edges", e.Edges)
		},
		OnGraphSaved: func(ctx context.Context, e *domain.GraphEvent) {
			logger.InfoContext(ctx, "graph_saved", "flow_id", e.FlowID, "nodes", e.Nodes, "edges", e.Edges)
		},
	}
}
