package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// PreviewFunc renders the body preview of a node payload.
type PreviewFunc func(n domain.FlowNode) string

// Template is the visual template of a node kind.
type Template struct {
	Type domain.NodeType `json:"type"`
	// Label is the header text naming the kind.
	Label string `json:"label"`
	// Color is the header background as a hex string.
	Color   string      `json:"color"`
	Preview PreviewFunc `json:"-"`
}

// View is a node as rendered by its template.
type View struct {
	ID       string          `json:"id"`
	Type     domain.NodeType `json:"type"`
	Label    string          `json:"label"`
	Color    string          `json:"color"`
	Preview  string          `json:"preview"`
	Position domain.Position `json:"position"`
	Inputs   []domain.Handle `json:"inputs"`
	Outputs  []domain.Handle `json:"outputs"`
}

// Registry maps node kinds to their templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[domain.NodeType]Template
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[domain.NodeType]Template),
	}
}

// Default returns a registry with the templates of every built-in kind.
func Default() *Registry {
	r := NewRegistry()
	for _, t := range builtins {
		r.Register(t)
	}
	return r
}

// Register adds a template to the registry.
// If a template for the same kind exists, it is overwritten.
func (r *Registry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Type] = t
}

// Lookup returns the template of a kind.
func (r *Registry) Lookup(t domain.NodeType) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[t]
	return tpl, ok
}

// Templates lists the registered templates in palette order.
func (r *Registry) Templates() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Template, 0, len(r.templates))
	for _, t := range domain.NodeTypes {
		if tpl, ok := r.templates[t]; ok {
			out = append(out, tpl)
		}
	}
	return out
}

// Render dispatches a node to its template.
// Returns an error wrapping domain.ErrUnknownNodeType when no template is registered.
func (r *Registry) Render(n domain.FlowNode) (View, error) {
	tpl, ok := r.Lookup(n.Type)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", domain.ErrUnknownNodeType, n.Type)
	}

	v := View{
		ID:       n.ID,
		Type:     n.Type,
		Label:    tpl.Label,
		Color:    tpl.Color,
		Position: n.Position,
		Inputs:   domain.InputHandles(n),
		Outputs:  domain.OutputHandles(n),
	}
	if tpl.Preview != nil {
		v.Preview = tpl.Preview(n)
	}
	return v, nil
}

// RenderGraph renders every node of a graph in insertion order.
func (r *Registry) RenderGraph(g *domain.Graph) ([]View, error) {
	views := make([]View, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		v, err := r.Render(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		views = append(views, v)
	}
	return views, nil
}

const previewLimit = 80

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit-1]) + "…"
}
