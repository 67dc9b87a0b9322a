package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractGraph exercises every payload shape so stores prove they keep data typed.
func contractGraph() *domain.Graph {
	return &domain.Graph{
		Nodes: []domain.FlowNode{
			{ID: "1", Type: domain.NodeTypeStart, Position: domain.DefaultPosition},
			{ID: "2", Type: domain.NodeTypeText, Position: domain.Position{X: 120, Y: 40}, Data: &domain.TextData{Label: "Hello"}},
			{ID: "3", Type: domain.NodeTypeImage, Position: domain.DefaultPosition, Data: &domain.MediaData{
				AttachmentID: "m123", Caption: "Welcome", Buttons: []string{"Shop now"},
			}},
			{ID: "4", Type: domain.NodeTypeList, Position: domain.DefaultPosition, Data: &domain.ListData{
				Header: "Menu", Body: "Pick one", Footer: "bye",
				Sections: []domain.ListSection{{Title: "Drinks", Buttons: []string{"Tea", "Coffee"}}},
			}},
		},
		Edges: []domain.FlowEdge{
			{ID: "edge-a", Source: "1", SourceHandle: domain.NextHandleID, Target: "2", TargetHandle: domain.InputHandleID, Animated: true, Style: domain.DefaultEdgeStyle},
			{ID: "edge-b", Source: "3", SourceHandle: "button-0", Target: "4", TargetHandle: domain.InputHandleID, Animated: true, Style: domain.DefaultEdgeStyle},
		},
	}
}

// RunFlowStoreContract runs a suite of tests to verify that a FlowStore implementation
// adheres to the defined interface contract.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	t.Helper()
	ctx := context.Background()
	flowID := "contract-test-flow-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		graph := contractGraph()

		err := store.Save(ctx, flowID, graph)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, graph, loaded)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, flowID, contractGraph()))

		smaller := domain.NewGraph()
		smaller.Nodes = append(smaller.Nodes, domain.FlowNode{ID: "9", Type: domain.NodeTypeStart, Position: domain.DefaultPosition})
		require.NoError(t, store.Save(ctx, flowID, smaller))

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		assert.Equal(t, smaller, loaded)
	})

	t.Run("Empty Graph", func(t *testing.T) {
		id := flowID + "-empty"
		require.NoError(t, store.Save(ctx, id, domain.NewGraph()))
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, loaded.Nodes)
		assert.NotNil(t, loaded.Edges)
		assert.True(t, loaded.IsEmpty())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, flowID, contractGraph())
		require.NoError(t, err)

		err = store.Delete(ctx, flowID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := flowID + "-1"
		id2 := flowID + "-2"
		_ = store.Save(ctx, id1, contractGraph())
		_ = store.Save(ctx, id2, domain.NewGraph())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		flows, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, flows, id1)
		assert.Contains(t, flows, id2)
	})
}
