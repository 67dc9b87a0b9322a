package palette

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/aretw0/flowdeck/pkg/registry"
)

// Choice is one entry of the side panel.
type Choice struct {
	Type  domain.NodeType `json:"type"`
	Label string          `json:"label"`
	Color string          `json:"color"`
}

// Palette offers the message kinds and opens their dialogs.
type Palette struct {
	callbacks Callbacks
	media     ports.MediaLibrary
	registry  *registry.Registry
	logger    *slog.Logger
}

// Option configures a Palette.
type Option func(*Palette)

// WithMediaLibrary wires the attachment selector of media dialogs.
func WithMediaLibrary(lib ports.MediaLibrary) Option {
	return func(p *Palette) {
		p.media = lib
	}
}

// WithRegistry overrides the templates used for choice labels.
func WithRegistry(r *registry.Registry) Option {
	return func(p *Palette) {
		p.registry = r
	}
}

// WithLogger configures a logger for the Palette.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Palette) {
		p.logger = logger
	}
}

// New creates a palette whose dialogs confirm into the given callbacks.
func New(cb Callbacks, opts ...Option) *Palette {
	p := &Palette{
		callbacks: cb,
		registry:  registry.Default(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Choices lists the eight kinds in palette order.
func (p *Palette) Choices() []Choice {
	tpls := p.registry.Templates()
	out := make([]Choice, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, Choice{Type: t.Type, Label: t.Label, Color: t.Color})
	}
	return out
}

// Select handles a click on a palette entry.
// START is added immediately and returned as a node; every other kind returns its open dialog.
func (p *Palette) Select(ctx context.Context, kind domain.NodeType) (*Dialog, *domain.FlowNode, error) {
	if kind == domain.NodeTypeStart {
		if p.callbacks.OnStartAdded == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoCallback, kind)
		}
		node, err := p.callbacks.OnStartAdded(ctx)
		if err != nil {
			return nil, nil, err
		}
		p.logger.Debug("start node added", "node_id", node.ID)
		return nil, &node, nil
	}

	form, err := p.newForm(kind)
	if err != nil {
		return nil, nil, err
	}
	d := newDialog(form, p.callbacks)
	if err := d.Open(); err != nil {
		return nil, nil, err
	}
	p.logger.Debug("dialog opened", "kind", kind)
	return d, nil, nil
}

// Submit drives a whole dialog round for a payload: open, fill, confirm, close.
// The payload goes through the same sanitizing, caps and readiness rules as interactive input.
func (p *Palette) Submit(ctx context.Context, details domain.NodeDetails) (domain.FlowNode, error) {
	d, node, err := p.Select(ctx, details.Type)
	if err != nil {
		return domain.FlowNode{}, err
	}
	if node != nil {
		return *node, nil
	}

	if err := d.Fill(ctx, details.Data); err != nil {
		_ = d.Cancel()
		return domain.FlowNode{}, err
	}
	created, err := d.Confirm(ctx)
	if err != nil {
		_ = d.Cancel()
		return domain.FlowNode{}, err
	}
	if err := d.Close(); err != nil {
		return domain.FlowNode{}, err
	}
	return created, nil
}

func (p *Palette) newForm(kind domain.NodeType) (Form, error) {
	switch {
	case kind == domain.NodeTypeText:
		return &TextForm{}, nil
	case kind == domain.NodeTypeButton:
		return &ButtonForm{}, nil
	case kind == domain.NodeTypeList:
		return &ListForm{}, nil
	case kind.IsMedia():
		var sel *AttachmentSelector
		if p.media != nil {
			sel = NewAttachmentSelector(p.media, kind)
		}
		return NewMediaForm(kind, sel), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNodeType, kind)
}
