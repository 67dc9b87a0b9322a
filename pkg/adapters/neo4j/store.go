package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

// Label is the node label of stored flows.
const Label = "Flow"

// Store implements ports.FlowStore with one (:Flow) node per flow.
// The graph is kept as a JSON string property next to summary counters.
type Store struct {
	runner DBRunner
	now    func() time.Time
}

// NewStore creates a store over runner.
func NewStore(runner DBRunner) *Store {
	return &Store{runner: runner, now: time.Now}
}

// Save merges the flow node by id and overwrites its properties.
func (s *Store) Save(ctx context.Context, flowID string, graph *domain.Graph) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	query, params, err := gocypher.NewQueryBuilder().
		Merge(gocypher.N("n", Label).WithProperties(map[string]interface{}{"id": flowID})).
		Set(map[string]interface{}{
			"n.graph":      string(data),
			"n.nodes":      int64(len(graph.Nodes)),
			"n.edges":      int64(len(graph.Edges)),
			"n.updated_at": s.now().UTC().Format(time.RFC3339),
		}).
		Return("n").
		Build()
	if err != nil {
		return err
	}
	if _, err := s.runner.Run(ctx, query, params); err != nil {
		return fmt.Errorf("failed to save flow %s: %w", flowID, err)
	}
	return nil
}

// Load reads the graph property of the flow node.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.Graph, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", Label).WithProperties(map[string]interface{}{"id": flowID})).
		Return("n").
		Build()
	if err != nil {
		return nil, err
	}

	res, err := s.runner.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow %s: %w", flowID, err)
	}
	if len(res.Records) == 0 {
		return nil, domain.ErrFlowNotFound
	}
	if len(res.Records) > 1 {
		return nil, fmt.Errorf("expected 1 record but found %d", len(res.Records))
	}

	value, ok := res.Records[0].Get("n")
	if !ok {
		return nil, fmt.Errorf("could not find return value 'n' in query result")
	}
	node, ok := value.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("return value 'n' is not a node")
	}
	raw, ok := node.Props["graph"].(string)
	if !ok {
		return nil, fmt.Errorf("flow %s has no graph property", flowID)
	}

	var g domain.Graph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &g, nil
}

// Delete detaches and deletes the flow node.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", Label).WithProperties(map[string]interface{}{"id": flowID})).
		DetachDelete("n").
		Build()
	if err != nil {
		return err
	}
	_, err = s.runner.Run(ctx, query, params)
	return err
}

const listQuery = "MATCH (n:" + Label + ") RETURN n.id AS id ORDER BY id"

// List returns every flow id, ordered.
func (s *Store) List(ctx context.Context) ([]string, error) {
	res, err := s.runner.Run(ctx, listQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	ids := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		v, ok := rec.Get("id")
		if !ok {
			continue
		}
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
