package ports

import (
	"context"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// FlowStore defines the interface for persisting flow graphs.
type FlowStore interface {
	// Save persists the graph for a given flow ID, replacing any previous version.
	Save(ctx context.Context, flowID string, graph *domain.Graph) error

	// Load retrieves the graph for a given flow ID.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, flowID string) (*domain.Graph, error)

	// Delete removes the graph for a given flow ID.
	Delete(ctx context.Context, flowID string) error

	// List returns the IDs of every stored flow.
	List(ctx context.Context) ([]string, error)
}
