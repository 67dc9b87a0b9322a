package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
)

// Mask replaces every PII match in stored text.
const Mask = "***"

// DefaultPIIPatterns match e-mail addresses and international phone numbers.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
	`\+?\d[\d\s-]{7,}\d`,
}

type piiMiddleware struct {
	next     ports.FlowStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks text in node payloads matching the patterns.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.FlowStore) ports.FlowStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, flowID string, graph *domain.Graph) error {
	// Deep clone so the editor's in-memory graph keeps the original text.
	cloned := graph.Clone()
	for i := range cloned.Nodes {
		m.maskNode(&cloned.Nodes[i])
	}
	return m.next.Save(ctx, flowID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, flowID string) (*domain.Graph, error) {
	return m.next.Load(ctx, flowID)
}

func (m *piiMiddleware) Delete(ctx context.Context, flowID string) error {
	return m.next.Delete(ctx, flowID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func (m *piiMiddleware) maskNode(n *domain.FlowNode) {
	switch d := n.Data.(type) {
	case *domain.TextData:
		d.Label = m.mask(d.Label)
	case *domain.MediaData:
		d.Caption = m.mask(d.Caption)
		m.maskAll(d.Buttons)
	case *domain.ButtonData:
		d.Text = m.mask(d.Text)
		m.maskAll(d.Buttons)
	case *domain.ListData:
		d.Header = m.mask(d.Header)
		d.Body = m.mask(d.Body)
		d.Footer = m.mask(d.Footer)
		for i := range d.Sections {
			d.Sections[i].Title = m.mask(d.Sections[i].Title)
			m.maskAll(d.Sections[i].Buttons)
		}
	}
}

func (m *piiMiddleware) maskAll(values []string) {
	for i, v := range values {
		values[i] = m.mask(v)
	}
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
