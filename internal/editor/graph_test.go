package editor_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/flowdeck/internal/editor"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_FirstTextNode(t *testing.T) {
	g := editor.New("F1")

	n, err := g.AddNode(context.Background(), domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: "Hello"}})
	require.NoError(t, err)

	assert.Equal(t, "1", n.ID)
	assert.Equal(t, domain.NodeTypeText, n.Type)
	assert.Equal(t, &domain.TextData{Label: "Hello"}, n.Data)
	assert.Equal(t, domain.DefaultPosition, n.Position)
}

func TestGraph_NilPayloadRejected(t *testing.T) {
	ctx := context.Background()
	g := editor.New("F1")

	_, err := g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeText, Data: (*domain.TextData)(nil)})
	assert.ErrorIs(t, err, domain.ErrPayloadMismatch)
	assert.Equal(t, 0, g.Seq())

	n, err := g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: "Hello"}})
	require.NoError(t, err)
	assert.Equal(t, "1", n.ID)
}

func TestGraph_ImageNodeWithButton(t *testing.T) {
	g := editor.New("F1")

	n, err := g.AddNode(context.Background(), domain.NodeDetails{
		Type: domain.NodeTypeImage,
		Data: &domain.MediaData{AttachmentID: "m123", Caption: "Welcome", Buttons: []string{"Shop now"}},
	})
	require.NoError(t, err)

	assert.Equal(t, &domain.MediaData{AttachmentID: "m123", Caption: "Welcome", Buttons: []string{"Shop now"}}, n.Data)
	assert.Len(t, domain.OutputHandles(n), 1)
	assert.Len(t, domain.InputHandles(n), 1)
}

func TestGraph_LoadReplaces(t *testing.T) {
	ctx := context.Background()
	g := editor.New("F1")
	_, err := g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeStart})
	require.NoError(t, err)

	fetched := &domain.Graph{
		Nodes: []domain.FlowNode{{ID: "10", Type: domain.NodeTypeText, Data: &domain.TextData{Label: "loaded"}}},
		Edges: []domain.FlowEdge{{ID: "e", Source: "10", Target: "10"}},
	}
	res, err := g.Replace(ctx, fetched)
	require.NoError(t, err)

	assert.Equal(t, fetched.Nodes, res.Graph.Nodes)
	assert.Equal(t, fetched.Edges, res.Graph.Edges)
	require.NotNil(t, res.Diff)
	assert.True(t, res.Diff.Replaced)

	res, err = g.Replace(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.FlowNode{}, res.Graph.Nodes)
	assert.Equal(t, []domain.FlowEdge{}, res.Graph.Edges)
}

func TestGraph_SnapshotIsolated(t *testing.T) {
	ctx := context.Background()
	g := editor.New("F1")
	_, err := g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeButton, Data: &domain.ButtonData{Text: "t", Buttons: []string{"a"}}})
	require.NoError(t, err)

	snap := g.Snapshot()
	snap.Nodes[0].Data.(*domain.ButtonData).Buttons[0] = "mutated"
	snap.Nodes = append(snap.Nodes, domain.FlowNode{ID: "x"})

	fresh := g.Snapshot()
	assert.Len(t, fresh.Nodes, 1)
	assert.Equal(t, "a", fresh.Nodes[0].Data.(*domain.ButtonData).Buttons[0])
}

func TestGraph_Hooks(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var (
		added  []string
		moved  []string
		edges  int
		loaded []*domain.GraphEvent
	)
	g := editor.New("F1",
		editor.WithClock(func() time.Time { return fixed }),
		editor.WithLifecycleHooks(domain.LifecycleHooks{
			OnNodeAdded: func(_ context.Context, e *domain.NodeEvent) {
				assert.Equal(t, fixed, e.Timestamp)
				assert.Equal(t, "F1", e.FlowID)
				added = append(added, e.NodeID)
			},
			OnNodeMoved: func(_ context.Context, e *domain.NodeEvent) { moved = append(moved, e.NodeID) },
			OnEdgeAdded: func(_ context.Context, e *domain.EdgeEvent) { edges++ },
			OnGraphLoaded: func(_ context.Context, e *domain.GraphEvent) {
				loaded = append(loaded, e)
			},
		}),
	)

	_, err := g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeStart})
	require.NoError(t, err)
	_, err = g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: "hi"}})
	require.NoError(t, err)
	_, err = g.Connect(ctx, domain.Connection{Source: "1", SourceHandle: "next", Target: "2", TargetHandle: "in"})
	require.NoError(t, err)
	_, err = g.MoveNode(ctx, "2", domain.Position{X: 1, Y: 1})
	require.NoError(t, err)
	_, err = g.Replace(ctx, nil)
	require.NoError(t, err)

	_, err = g.Connect(ctx, domain.Connection{Target: "2"})
	require.ErrorIs(t, err, domain.ErrInvalidConnection)

	assert.Equal(t, []string{"1", "2"}, added)
	assert.Equal(t, []string{"2"}, moved)
	assert.Equal(t, 1, edges)
	require.Len(t, loaded, 1)
	assert.False(t, loaded[0].Found)
}

func TestGraph_ConnectTwiceAppendsTwo(t *testing.T) {
	ctx := context.Background()
	g := editor.New("F1")
	conn := domain.Connection{Source: "1", Target: "2"}

	e1, err := g.Connect(ctx, conn)
	require.NoError(t, err)
	e2, err := g.Connect(ctx, conn)
	require.NoError(t, err)

	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Len(t, g.Snapshot().Edges, 2)
}

func TestGraph_DiffPerAction(t *testing.T) {
	ctx := context.Background()
	g := editor.New("F1")

	res, err := g.Dispatch(ctx, editor.AddNode{Details: domain.NodeDetails{Type: domain.NodeTypeStart}})
	require.NoError(t, err)
	require.NotNil(t, res.Diff)
	assert.False(t, res.Diff.Replaced)
	assert.Len(t, res.Diff.Nodes, 1)

	res, err = g.Dispatch(ctx, editor.MoveNode{ID: "1", Position: domain.Position{X: 9, Y: 9}})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Position{"1": {X: 9, Y: 9}}, res.Diff.Moved)
}

func TestGraph_ConcurrentAddsKeepIDsUnique(t *testing.T) {
	ctx := context.Background()
	g := editor.New("F1")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: strconv.Itoa(i)}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap := g.Snapshot()
	require.Len(t, snap.Nodes, workers)
	seen := make(map[string]bool, workers)
	for _, n := range snap.Nodes {
		seen[n.ID] = true
	}
	assert.Len(t, seen, workers)
	assert.Equal(t, workers, g.Seq())
}
