package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// Store implements ports.FlowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Graph
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Graph),
	}
}

// Save persists a deep copy of the graph in memory.
func (s *Store) Save(ctx context.Context, flowID string, graph *domain.Graph) error {
	copied := graph.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[flowID] = copied
	return nil
}

// Load retrieves a copy of the graph so callers can't mutate the stored one.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.data[flowID]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return graph.Clone(), nil
}

// Delete removes the graph.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, flowID)
	return nil
}

// List returns stored flow IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flows := make([]string, 0, len(s.data))
	for id := range s.data {
		flows = append(flows, id)
	}
	sort.Strings(flows)
	return flows, nil
}
