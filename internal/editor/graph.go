package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/domain"
)

// Result is what a successful Dispatch produced.
type Result struct {
	// Graph is a deep copy of the graph after the action.
	Graph *domain.Graph
	// Diff is nil when the action changed nothing.
	Diff *domain.GraphDiff
	// Node is set by AddNode and MoveNode.
	Node *domain.FlowNode
	// Edge is set by Connect.
	Edge *domain.FlowEdge
}

// Graph owns the editing state of a single flow.
// Actions are applied one at a time in arrival order.
type Graph struct {
	flowID string

	mu    sync.Mutex
	state State

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Graph.
type Option func(*Graph)

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Graph) {
		g.hooks = g.hooks.Merge(hooks)
	}
}

// WithLogger configures a logger for the Graph.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		g.now = now
	}
}

// New creates an empty editor for the given flow.
func New(flowID string, opts ...Option) *Graph {
	g := &Graph{
		flowID: flowID,
		state:  NewState(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FlowID returns the flow this editor owns.
func (g *Graph) FlowID() string {
	return g.flowID
}

// Snapshot returns a deep copy of the current graph.
func (g *Graph) Snapshot() *domain.Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Graph.Clone()
}

// Seq returns the last node id handed out.
func (g *Graph) Seq() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Seq
}

// Dispatch applies an action. On error the state is left unchanged.
func (g *Graph) Dispatch(ctx context.Context, a Action) (*Result, error) {
	if c, ok := a.(Connect); ok && c.EdgeID == "" {
		c.EdgeID = NewEdgeID()
		a = c
	}

	res, seq, err := g.apply(a)
	if err != nil {
		g.logger.Debug("action rejected", "flow_id", g.flowID, "action", Name(a), "err", err)
		return nil, err
	}

	g.logger.Debug("action applied", "flow_id", g.flowID, "action", Name(a), "seq", seq)
	g.notify(ctx, a, res)
	return res, nil
}

func (g *Graph) apply(a Action) (*Result, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.state
	next, err := Reduce(prev, a)
	if err != nil {
		return nil, 0, err
	}
	g.state = next

	base := prev.Graph
	if _, ok := a.(Replace); ok {
		base = nil
	}
	return &Result{
		Graph: next.Graph.Clone(),
		Diff:  domain.Diff(g.flowID, base, next.Graph),
	}, next.Seq, nil
}

func (g *Graph) notify(ctx context.Context, a Action, res *Result) {
	base := func(t domain.EventType) domain.EventBase {
		return domain.EventBase{Timestamp: g.now(), Type: t, FlowID: g.flowID}
	}

	switch act := a.(type) {
	case AddNode:
		n := res.Graph.Nodes[len(res.Graph.Nodes)-1]
		res.Node = &n
		if g.hooks.OnNodeAdded != nil {
			g.hooks.OnNodeAdded(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeAdded), NodeID: n.ID, NodeType: n.Type})
		}
	case MoveNode:
		if n, ok := res.Graph.Node(act.ID); ok {
			res.Node = &n
			if g.hooks.OnNodeMoved != nil {
				g.hooks.OnNodeMoved(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeMoved), NodeID: n.ID, NodeType: n.Type})
			}
		}
	case Connect:
		e := res.Graph.Edges[len(res.Graph.Edges)-1]
		res.Edge = &e
		if g.hooks.OnEdgeAdded != nil {
			g.hooks.OnEdgeAdded(ctx, &domain.EdgeEvent{EventBase: base(domain.EventEdgeAdded), Edge: e})
		}
	case Replace:
		if g.hooks.OnGraphLoaded != nil {
			g.hooks.OnGraphLoaded(ctx, &domain.GraphEvent{
				EventBase: base(domain.EventGraphLoaded),
				Nodes:     len(res.Graph.Nodes),
				Edges:     len(res.Graph.Edges),
				Found:     act.Graph != nil,
			})
		}
	}
}

// AddNode appends a node and returns it.
func (g *Graph) AddNode(ctx context.Context, details domain.NodeDetails) (domain.FlowNode, error) {
	res, err := g.Dispatch(ctx, AddNode{Details: details})
	if err != nil {
		return domain.FlowNode{}, err
	}
	return *res.Node, nil
}

// Connect records an edge for the connection and returns it.
func (g *Graph) Connect(ctx context.Context, conn domain.Connection) (domain.FlowEdge, error) {
	res, err := g.Dispatch(ctx, Connect{Connection: conn})
	if err != nil {
		return domain.FlowEdge{}, err
	}
	return *res.Edge, nil
}

// Replace swaps the whole graph. A nil graph leaves the editor empty.
func (g *Graph) Replace(ctx context.Context, graph *domain.Graph) (*Result, error) {
	return g.Dispatch(ctx, Replace{Graph: graph})
}

// MoveNode updates the position of a node.
func (g *Graph) MoveNode(ctx context.Context, id string, pos domain.Position) (domain.FlowNode, error) {
	res, err := g.Dispatch(ctx, MoveNode{ID: id, Position: pos})
	if err != nil {
		return domain.FlowNode{}, err
	}
	return *res.Node, nil
}

// Reset empties the graph without rewinding the id counter.
func (g *Graph) Reset(ctx context.Context) (*Result, error) {
	return g.Dispatch(ctx, Reset{})
}
