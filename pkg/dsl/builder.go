package dsl

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aretw0/flowdeck/internal/editor"
	"github.com/aretw0/flowdeck/pkg/domain"
)

type link struct {
	source *NodeBuilder
	handle string
	target *NodeBuilder
}

// Builder manages the graph construction.
type Builder struct {
	nodes []*NodeBuilder
	links []link
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) add(t domain.NodeType, data domain.NodeData) *NodeBuilder {
	nb := &NodeBuilder{builder: b, index: len(b.nodes), details: domain.NodeDetails{Type: t, Data: data}}
	b.nodes = append(b.nodes, nb)
	return nb
}

func (b *Builder) link(source *NodeBuilder, handle string, target *NodeBuilder) {
	b.links = append(b.links, link{source: source, handle: handle, target: target})
}

// Start adds the entry node.
func (b *Builder) Start() *NodeBuilder {
	return b.add(domain.NodeTypeStart, nil)
}

// Text adds a TEXT node.
func (b *Builder) Text(label string) *NodeBuilder {
	return b.add(domain.NodeTypeText, &domain.TextData{Label: label})
}

// Buttons adds a BUTTON node with its reply buttons.
func (b *Builder) Buttons(text string, labels ...string) *NodeBuilder {
	return b.add(domain.NodeTypeButton, &domain.ButtonData{Text: text, Buttons: labels})
}

// Image adds an IMAGE node for the attachment.
func (b *Builder) Image(attachmentID string) *NodeBuilder {
	return b.Media(domain.NodeTypeImage, attachmentID)
}

// Media adds a media node of kind t for the attachment.
func (b *Builder) Media(t domain.NodeType, attachmentID string) *NodeBuilder {
	return b.add(t, &domain.MediaData{AttachmentID: attachmentID})
}

// List adds a LIST node. Rows are added with Section.
func (b *Builder) List(body string) *NodeBuilder {
	return b.add(domain.NodeTypeList, &domain.ListData{Body: body})
}

// Build replays the nodes and links through the editor reducer.
// Nodes are numbered in the order they were added, starting at "1".
func (b *Builder) Build() (*domain.Graph, error) {
	ctx := context.Background()
	g := editor.New("dsl")

	for _, nb := range b.nodes {
		n, err := g.AddNode(ctx, nb.details)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", nb.index+1, nb.details.Type, err)
		}
		if nb.pos != nil {
			if _, err := g.MoveNode(ctx, n.ID, *nb.pos); err != nil {
				return nil, err
			}
		}
	}

	for _, l := range b.links {
		conn := domain.Connection{
			Source:       id(l.source),
			SourceHandle: l.handle,
			Target:       id(l.target),
			TargetHandle: domain.InputHandleID,
		}
		if err := b.checkHandle(l.source, l.handle); err != nil {
			return nil, err
		}
		if _, err := g.Connect(ctx, conn); err != nil {
			return nil, fmt.Errorf("link %s -> %s: %w", conn.Source, conn.Target, err)
		}
	}
	return g.Snapshot(), nil
}

// checkHandle rejects links from handles the node does not expose.
func (b *Builder) checkHandle(nb *NodeBuilder, handle string) error {
	n := domain.FlowNode{ID: id(nb), Type: nb.details.Type, Data: nb.details.Data}
	for _, h := range domain.OutputHandles(n) {
		if h.ID == handle {
			return nil
		}
	}
	return fmt.Errorf("%w: node %s has no output %q", domain.ErrInvalidConnection, n.ID, handle)
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

func id(nb *NodeBuilder) string {
	return strconv.Itoa(nb.index + 1)
}
