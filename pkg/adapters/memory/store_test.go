package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/flowdeck/pkg/adapters/memory"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunFlowStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	g := domain.NewGraph()
	g.Nodes = append(g.Nodes, domain.FlowNode{ID: "1", Type: domain.NodeTypeText, Data: &domain.TextData{Label: "a"}})
	require.NoError(t, store.Save(ctx, "f", g))

	g.Nodes[0].Data.(*domain.TextData).Label = "mutated"

	loaded, err := store.Load(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Nodes[0].Data.(*domain.TextData).Label)
}
