package dsl

import "github.com/aretw0/flowdeck/pkg/domain"

// NodeBuilder configures one node of the graph.
type NodeBuilder struct {
	builder *Builder
	index   int
	details domain.NodeDetails
	pos     *domain.Position
}

// Outlet is an output handle of a node.
type Outlet struct {
	node   *NodeBuilder
	handle string
}

// At places the node on the canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.pos = &domain.Position{X: x, Y: y}
	return n
}

// Caption sets the caption of a media node.
func (n *NodeBuilder) Caption(caption string) *NodeBuilder {
	if d, ok := n.details.Data.(*domain.MediaData); ok {
		d.Caption = caption
	}
	return n
}

// Reply appends reply buttons to a media or BUTTON node.
func (n *NodeBuilder) Reply(labels ...string) *NodeBuilder {
	switch d := n.details.Data.(type) {
	case *domain.MediaData:
		d.Buttons = append(d.Buttons, labels...)
	case *domain.ButtonData:
		d.Buttons = append(d.Buttons, labels...)
	}
	return n
}

// Header sets the header of a LIST node.
func (n *NodeBuilder) Header(header string) *NodeBuilder {
	if d, ok := n.details.Data.(*domain.ListData); ok {
		d.Header = header
	}
	return n
}

// Footer sets the footer of a LIST node.
func (n *NodeBuilder) Footer(footer string) *NodeBuilder {
	if d, ok := n.details.Data.(*domain.ListData); ok {
		d.Footer = footer
	}
	return n
}

// Section appends a section of rows to a LIST node.
func (n *NodeBuilder) Section(title string, rows ...string) *NodeBuilder {
	if d, ok := n.details.Data.(*domain.ListData); ok {
		d.Sections = append(d.Sections, domain.ListSection{Title: title, Buttons: rows})
	}
	return n
}

// Go connects the default output of the node to target.
// For START and TEXT nodes that is the "next" handle; otherwise the first button.
func (n *NodeBuilder) Go(target *NodeBuilder) *NodeBuilder {
	handle := domain.NextHandleID
	switch n.details.Type {
	case domain.NodeTypeStart, domain.NodeTypeText:
	case domain.NodeTypeList:
		handle = domain.ListHandleID(0, 0)
	default:
		handle = domain.ButtonHandleID(0)
	}
	n.builder.link(n, handle, target)
	return n
}

// Button selects the output handle of the i-th reply button.
func (n *NodeBuilder) Button(i int) Outlet {
	return Outlet{node: n, handle: domain.ButtonHandleID(i)}
}

// Row selects the output handle of a list row.
func (n *NodeBuilder) Row(section, row int) Outlet {
	return Outlet{node: n, handle: domain.ListHandleID(section, row)}
}

// Go connects the outlet to target.
func (o Outlet) Go(target *NodeBuilder) Outlet {
	o.node.builder.link(o.node, o.handle, target)
	return o
}

// Details returns the node details as they will be dispatched.
func (n *NodeBuilder) Details() domain.NodeDetails {
	return n.details
}
