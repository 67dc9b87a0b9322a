package editor

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/google/uuid"
)

// State is the owned editing state of one flow.
type State struct {
	Graph *domain.Graph
	// Seq is the last node id handed out. It never decreases.
	Seq int
}

// NewState returns an empty state.
func NewState() State {
	return State{Graph: domain.NewGraph()}
}

// NewEdgeID returns a fresh edge identifier.
func NewEdgeID() string {
	return "edge-" + uuid.New().String()
}

// Reduce applies an action and returns the next state.
// The input state is never mutated; slices are copied on write.
func Reduce(s State, a Action) (State, error) {
	if s.Graph == nil {
		s.Graph = domain.NewGraph()
	}

	switch act := a.(type) {
	case AddNode:
		return reduceAddNode(s, act)
	case Connect:
		return reduceConnect(s, act)
	case Replace:
		return reduceReplace(s, act), nil
	case MoveNode:
		return reduceMoveNode(s, act)
	case Reset:
		return State{Graph: domain.NewGraph(), Seq: s.Seq}, nil
	}
	return s, fmt.Errorf("unknown action %T", a)
}

func reduceAddNode(s State, a AddNode) (State, error) {
	data := a.Details.Data
	if data == nil && a.Details.Type != domain.NodeTypeStart {
		zero, err := domain.DecodeData(a.Details.Type, nil)
		if err != nil {
			return s, err
		}
		data = zero
	}
	if err := domain.CheckData(a.Details.Type, data); err != nil {
		return s, err
	}

	seq := s.Seq + 1
	node := domain.FlowNode{
		ID:       strconv.Itoa(seq),
		Type:     a.Details.Type,
		Position: domain.DefaultPosition,
		Data:     data,
	}
	node = node.Clone()

	return State{
		Graph: &domain.Graph{
			Nodes: append(slices.Clip(s.Graph.Nodes), node),
			Edges: s.Graph.Edges,
		},
		Seq: seq,
	}, nil
}

func reduceConnect(s State, a Connect) (State, error) {
	if !a.Connection.Valid() {
		return s, fmt.Errorf("%w: source=%q target=%q", domain.ErrInvalidConnection, a.Connection.Source, a.Connection.Target)
	}

	id := a.EdgeID
	if id == "" {
		id = NewEdgeID()
	}
	edge := domain.FlowEdge{
		ID:           id,
		Source:       a.Connection.Source,
		Target:       a.Connection.Target,
		SourceHandle: a.Connection.SourceHandle,
		TargetHandle: a.Connection.TargetHandle,
		Animated:     true,
		Style:        domain.DefaultEdgeStyle,
	}

	return State{
		Graph: &domain.Graph{
			Nodes: s.Graph.Nodes,
			Edges: append(slices.Clip(s.Graph.Edges), edge),
		},
		Seq: s.Seq,
	}, nil
}

func reduceReplace(s State, a Replace) State {
	g := a.Graph.Clone()
	seq := max(s.Seq, len(g.Nodes))
	for _, n := range g.Nodes {
		if v, err := strconv.Atoi(n.ID); err == nil && v > seq {
			seq = v
		}
	}
	return State{Graph: g, Seq: seq}
}

func reduceMoveNode(s State, a MoveNode) (State, error) {
	idx := slices.IndexFunc(s.Graph.Nodes, func(n domain.FlowNode) bool { return n.ID == a.ID })
	if idx < 0 {
		return s, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, a.ID)
	}

	nodes := slices.Clone(s.Graph.Nodes)
	nodes[idx].Position = a.Position
	return State{
		Graph: &domain.Graph{Nodes: nodes, Edges: s.Graph.Edges},
		Seq:   s.Seq,
	}, nil
}
