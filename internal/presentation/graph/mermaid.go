package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/registry"
)

// Overlay highlights nodes on the diagram, e.g. lint findings.
type Overlay struct {
	Highlight []string
}

// GenerateMermaid produces a Mermaid flowchart from a graph.
// Shapes follow the node kind:
// - START: ((Circle))
// - BUTTON: {{Hexagon}}
// - LIST: [[Subroutine]]
// - media: [/Parallelogram/]
// - TEXT: [Rectangle]
// Edges leaving a button or list row are labeled with the button text.
// Node colors come from the registry templates.
func GenerateMermaid(g *domain.Graph, reg *registry.Registry, overlay *Overlay) string {
	if reg == nil {
		reg = registry.Default()
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	labels := make(map[string]map[string]string, len(g.Nodes))
	var styles []string
	for _, n := range g.Nodes {
		safeID := sanitizeMermaidID(n.ID)

		opener, closer := "[", "]"
		switch n.Type {
		case domain.NodeTypeStart:
			opener, closer = "((", "))"
		case domain.NodeTypeButton:
			opener, closer = "{{", "}}"
		case domain.NodeTypeList:
			opener, closer = "[[", "]]"
		case domain.NodeTypeImage, domain.NodeTypeAudio, domain.NodeTypeVideo, domain.NodeTypeDocument:
			opener, closer = "[/", "/]"
		}

		text := n.ID
		if v, err := reg.Render(n); err == nil {
			text = fmt.Sprintf("%s: %s", n.ID, v.Label)
			if v.Preview != "" {
				text += "<br/>" + escape(v.Preview)
			}
			if v.Color != "" {
				styles = append(styles, fmt.Sprintf("    style %s stroke:%s,stroke-width:2px;\n", safeID, v.Color))
			}
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, text, closer))

		hl := make(map[string]string)
		for _, h := range domain.OutputHandles(n) {
			if h.Label != "" {
				hl[h.ID] = h.Label
			}
		}
		labels[n.ID] = hl
	}

	for _, e := range g.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		if label, ok := labels[e.Source][e.SourceHandle]; ok {
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", from, escape(label), to))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
	}

	for _, s := range styles {
		sb.WriteString(s)
	}

	if overlay != nil && len(overlay.Highlight) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Highlight {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s highlight;\n", safeID))
			}
		}
	}

	return sb.String()
}

// escape keeps user text from breaking out of a quoted Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	s := r.Replace(id)
	// Editor ids are numeric; prefix them so they read as node names.
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "n" + s
	}
	return s
}
