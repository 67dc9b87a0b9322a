package editor

import (
	"testing"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_AddNode(t *testing.T) {
	s := NewState()

	next, err := Reduce(s, AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: "Hello"}}})
	require.NoError(t, err)

	require.Len(t, next.Graph.Nodes, 1)
	want := domain.FlowNode{ID: "1", Type: domain.NodeTypeText, Position: domain.Position{X: 50, Y: 50}, Data: &domain.TextData{Label: "Hello"}}
	if diff := cmp.Diff(want, next.Graph.Nodes[0]); diff != "" {
		t.Errorf("node mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, next.Seq)
	assert.Empty(t, s.Graph.Nodes, "input state must not change")
}

func TestReduce_AddNode_UniqueIDs(t *testing.T) {
	s := NewState()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		var err error
		s, err = Reduce(s, AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeButton}})
		require.NoError(t, err)
		n := s.Graph.Nodes[len(s.Graph.Nodes)-1]
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
		assert.Equal(t, domain.DefaultPosition, n.Position)
	}
	assert.Len(t, s.Graph.Nodes, 20)
}

func TestReduce_AddNode_ZeroPayload(t *testing.T) {
	next, err := Reduce(NewState(), AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeList}})
	require.NoError(t, err)
	assert.Equal(t, &domain.ListData{}, next.Graph.Nodes[0].Data)

	next, err = Reduce(NewState(), AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeStart}})
	require.NoError(t, err)
	assert.Nil(t, next.Graph.Nodes[0].Data)
}

func TestReduce_AddNode_Rejects(t *testing.T) {
	s := NewState()

	_, err := Reduce(s, AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.ButtonData{}}})
	assert.ErrorIs(t, err, domain.ErrPayloadMismatch)

	_, err = Reduce(s, AddNode{Details: domain.NodeDetails{Type: "POLL"}})
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
}

func TestReduce_AddNode_DoesNotAliasInput(t *testing.T) {
	data := &domain.ButtonData{Text: "t", Buttons: []string{"a"}}
	next, err := Reduce(NewState(), AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeButton, Data: data}})
	require.NoError(t, err)

	data.Buttons[0] = "changed"
	assert.Equal(t, []string{"a"}, next.Graph.Nodes[0].Data.(*domain.ButtonData).Buttons)
}

func TestReduce_Connect(t *testing.T) {
	s := NewState()
	conn := domain.Connection{Source: "1", SourceHandle: "next", Target: "2", TargetHandle: "in"}

	s1, err := Reduce(s, Connect{Connection: conn})
	require.NoError(t, err)
	require.Len(t, s1.Graph.Edges, 1)

	e := s1.Graph.Edges[0]
	assert.True(t, e.Animated)
	assert.Equal(t, domain.DefaultEdgeStyle, e.Style)
	assert.Equal(t, "1", e.Source)
	assert.Equal(t, "2", e.Target)
	assert.Equal(t, "next", e.SourceHandle)
	assert.Equal(t, "in", e.TargetHandle)
	assert.Contains(t, e.ID, "edge-")

	s2, err := Reduce(s1, Connect{Connection: conn})
	require.NoError(t, err)
	require.Len(t, s2.Graph.Edges, 2, "duplicate connections are not deduplicated")
	assert.NotEqual(t, s2.Graph.Edges[0].ID, s2.Graph.Edges[1].ID)
	assert.Len(t, s1.Graph.Edges, 1)
}

func TestReduce_Connect_Invalid(t *testing.T) {
	_, err := Reduce(NewState(), Connect{Connection: domain.Connection{Source: "1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidConnection)
}

func TestReduce_Replace(t *testing.T) {
	loaded := &domain.Graph{
		Nodes: []domain.FlowNode{
			{ID: "1", Type: domain.NodeTypeStart, Position: domain.Position{X: 0, Y: 0}},
			{ID: "7", Type: domain.NodeTypeText, Position: domain.Position{X: 10, Y: 20}, Data: &domain.TextData{Label: "x"}},
		},
		Edges: []domain.FlowEdge{{ID: "e1", Source: "1", Target: "7", Animated: true}},
	}

	s, err := Reduce(NewState(), AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeStart}})
	require.NoError(t, err)

	next, err := Reduce(s, Replace{Graph: loaded})
	require.NoError(t, err)
	assert.Equal(t, loaded.Nodes, next.Graph.Nodes)
	assert.Equal(t, loaded.Edges, next.Graph.Edges)
	assert.Equal(t, 7, next.Seq, "counter skips past numeric ids of loaded nodes")

	added, err := Reduce(next, AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: "y"}}})
	require.NoError(t, err)
	assert.Equal(t, "8", added.Graph.Nodes[2].ID)
}

func TestReduce_Replace_NonNumericIDs(t *testing.T) {
	loaded := &domain.Graph{
		Nodes: []domain.FlowNode{
			{ID: "a", Type: domain.NodeTypeStart},
			{ID: "b", Type: domain.NodeTypeText, Data: &domain.TextData{}},
		},
	}
	next, err := Reduce(State{Graph: domain.NewGraph(), Seq: 1}, Replace{Graph: loaded})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Seq)
	assert.NotNil(t, next.Graph.Edges)
}

func TestReduce_Replace_NoData(t *testing.T) {
	s, err := Reduce(NewState(), AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeStart}})
	require.NoError(t, err)

	next, err := Reduce(s, Replace{Graph: nil})
	require.NoError(t, err)
	assert.Equal(t, []domain.FlowNode{}, next.Graph.Nodes)
	assert.Equal(t, []domain.FlowEdge{}, next.Graph.Edges)
	assert.Equal(t, 1, next.Seq, "counter never moves backwards")
}

func TestReduce_MoveNode(t *testing.T) {
	s, err := Reduce(NewState(), AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeStart}})
	require.NoError(t, err)

	moved, err := Reduce(s, MoveNode{ID: "1", Position: domain.Position{X: 300, Y: 120}})
	require.NoError(t, err)
	assert.Equal(t, domain.Position{X: 300, Y: 120}, moved.Graph.Nodes[0].Position)
	assert.Equal(t, domain.DefaultPosition, s.Graph.Nodes[0].Position)

	_, err = Reduce(s, MoveNode{ID: "42"})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestReduce_Reset(t *testing.T) {
	s, err := Reduce(NewState(), AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeStart}})
	require.NoError(t, err)

	empty, err := Reduce(s, Reset{})
	require.NoError(t, err)
	assert.True(t, empty.Graph.IsEmpty())

	again, err := Reduce(empty, AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeStart}})
	require.NoError(t, err)
	assert.Equal(t, "2", again.Graph.Nodes[0].ID)
}

func TestReduce_UnknownAction(t *testing.T) {
	_, err := Reduce(NewState(), nil)
	assert.Error(t, err)
}
