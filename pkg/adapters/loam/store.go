package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

// ErrInvalidFlowID is returned for IDs that cannot name a document.
var ErrInvalidFlowID = errors.New("invalid flow id")

// FlowDocument is the frontmatter of a stored flow. The graph itself is the
// document body, as indented JSON.
type FlowDocument struct {
	Flow    string `json:"flow" mapstructure:"flow"`
	Nodes   int    `json:"nodes" mapstructure:"nodes"`
	Edges   int    `json:"edges" mapstructure:"edges"`
	SavedAt string `json:"saved_at" mapstructure:"saved_at"`
}

// Store implements ports.FlowStore over a Loam repository. With versioning
// enabled every Save is a git commit in the repository directory.
type Store struct {
	repo  core.Repository
	typed *loam.TypedRepository[FlowDocument]
	now   func() time.Time
}

// Option configures Open.
type Option func(*options)

type options struct {
	versioning bool
	now        func() time.Time
}

// WithVersioning turns git commits on or off. Default is off.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithClock sets the time source for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Open initializes the repository at path.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithVersioning(o.versioning),
		loam.WithForceTemp(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(repo, WithClock(o.now)), nil
}

// New wraps an initialized repository. Only WithClock applies.
func New(repo core.Repository, opts ...Option) *Store {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		repo:  repo,
		typed: loam.NewTypedRepository[FlowDocument](repo),
		now:   o.now,
	}
}

func checkID(flowID string) error {
	if flowID == "" || flowID != filepath.Base(flowID) || strings.HasPrefix(flowID, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidFlowID, flowID)
	}
	return nil
}

// Save implements ports.FlowStore.
func (s *Store) Save(ctx context.Context, flowID string, graph *domain.Graph) error {
	if err := checkID(flowID); err != nil {
		return err
	}
	body, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	err = s.typed.Save(ctx, &loam.DocumentModel[FlowDocument]{
		ID:      flowID,
		Content: string(body),
		Data: FlowDocument{
			Flow:    flowID,
			Nodes:   len(graph.Nodes),
			Edges:   len(graph.Edges),
			SavedAt: s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", flowID, err)
	}
	return nil
}

// Load implements ports.FlowStore.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.Graph, error) {
	if err := checkID(flowID); err != nil {
		return nil, err
	}
	doc, err := s.typed.Get(ctx, flowID)
	if err != nil {
		return nil, s.missing(ctx, flowID, err)
	}

	graph := domain.NewGraph()
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return graph, nil
	}
	if err := json.Unmarshal([]byte(content), graph); err != nil {
		return nil, fmt.Errorf("failed to decode flow %s: %w", flowID, err)
	}
	return graph, nil
}

// Delete implements ports.FlowStore. Deleting a missing flow is not an error.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	if err := checkID(flowID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, flowID); err != nil {
		if err := s.missing(ctx, flowID, err); !errors.Is(err, domain.ErrFlowNotFound) {
			return err
		}
	}
	return nil
}

// List implements ports.FlowStore.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := doc.Data.Flow
		if id == "" {
			id = trimExtension(doc.ID)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// missing reports ErrFlowNotFound when flowID is absent from the repository,
// and cause otherwise.
func (s *Store) missing(ctx context.Context, flowID string, cause error) error {
	ids, err := s.List(ctx)
	if err != nil {
		return errors.Join(cause, err)
	}
	i := sort.SearchStrings(ids, flowID)
	if i < len(ids) && ids[i] == flowID {
		return fmt.Errorf("loam failed for %s: %w", flowID, cause)
	}
	return domain.ErrFlowNotFound
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
