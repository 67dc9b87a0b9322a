package observability

import (
	"context"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the editor collectors.
type Metrics struct {
	NodesAdded         *prometheus.CounterVec
	NodesMoved         prometheus.Counter
	EdgesAdded         prometheus.Counter
	GraphLoads         *prometheus.CounterVec
	GraphSaves         prometheus.Counter
	ConversationEvents *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodesAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowdeck_nodes_added_total",
				Help: "Total number of nodes added to flows",
			},
			[]string{"type"},
		),
		NodesMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowdeck_nodes_moved_total",
			Help: "Total number of node drag ends",
		}),
		EdgesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowdeck_edges_added_total",
			Help: "Total number of edges recorded by the connection protocol",
		}),
		GraphLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowdeck_graph_loads_total",
				Help: "Total number of flow loads",
			},
			[]string{"result"},
		),
		GraphSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowdeck_graph_saves_total",
			Help: "Total number of flow saves",
		}),
		ConversationEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowdeck_conversation_events_total",
				Help: "Total number of conversation events applied",
			},
			[]string{"type"},
		),
	}
	reg.MustRegister(m.NodesAdded, m.NodesMoved, m.EdgesAdded, m.GraphLoads, m.GraphSaves, m.ConversationEvents)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeAdded: func(_ context.Context, e *domain.NodeEvent) {
			m.NodesAdded.WithLabelValues(string(e.NodeType)).Inc()
		},
		OnNodeMoved: func(context.Context, *domain.NodeEvent) {
			m.NodesMoved.Inc()
		},
		OnEdgeAdded: func(context.Context, *domain.EdgeEvent) {
			m.EdgesAdded.Inc()
		},
		OnGraphLoaded: func(_ context.Context, e *domain.GraphEvent) {
			result := "found"
			if !e.Found {
				result = "empty"
			}
			m.GraphLoads.WithLabelValues(result).Inc()
		},
		OnGraphSaved: func(context.Context, *domain.GraphEvent) {
			m.GraphSaves.Inc()
		},
	}
}

// ObserveMessage counts a conversation event. It fits conversation.WithObserver.
func (m *Metrics) ObserveMessage(_ context.Context, ev domain.MessageEvent) {
	m.ConversationEvents.WithLabelValues(string(ev.Type)).Inc()
}
