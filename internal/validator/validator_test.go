package validator

import (
	"testing"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(r *Report) []string {
	out := []string{}
	for _, is := range r.Issues {
		out = append(out, is.Code)
	}
	return out
}

func TestLint_ValidFlow(t *testing.T) {
	b := dsl.New()
	start := b.Start()
	menu := b.Buttons("Choose", "A", "B")
	start.Go(menu)
	menu.Button(0).Go(b.Text("You chose A"))
	menu.Button(1).Go(b.Text("You chose B"))

	r := Lint(b.MustBuild())
	require.NoError(t, r.Err())
	// The two TEXT nodes have an unconnected "next" output.
	assert.Equal(t, []string{CodeUnusedHandle, CodeUnusedHandle}, codes(r))
	assert.Equal(t, 2, r.Count(SeverityInfo))
}

func TestLint_EmptyAndNil(t *testing.T) {
	assert.Empty(t, Lint(domain.NewGraph()).Issues)
	assert.Empty(t, Lint(nil).Issues)
}

func TestLint_Problems(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.FlowNode{
			{ID: "1", Type: domain.NodeTypeStart},
			{ID: "2", Type: domain.NodeTypeText, Data: &domain.TextData{Label: "hi"}},
			{ID: "3", Type: domain.NodeTypeButton, Data: &domain.ButtonData{Text: "q", Buttons: []string{"yes"}}},
			{ID: "3", Type: domain.NodeTypeText, Data: &domain.TextData{Label: "dup"}},
			{ID: "4", Type: domain.NodeTypeText, Data: &domain.ButtonData{Text: "wrong"}},
		},
		Edges: []domain.FlowEdge{
			{ID: "e1", Source: "1", SourceHandle: "next", Target: "2"},
			{ID: "e2", Source: "2", SourceHandle: "next", Target: "ghost"},
			{ID: "e3", Source: "2", SourceHandle: "button-7", Target: "1"},
		},
	}

	r := Lint(g)
	assert.ErrorIs(t, r.Err(), ErrInvalidFlow)
	assert.Contains(t, r.Err().Error(), `missing node "ghost"`)

	c := codes(r)
	assert.Contains(t, c, CodeDuplicateNode)
	assert.Contains(t, c, CodeInvalidPayload)
	assert.Contains(t, c, CodeDanglingEdge)
	assert.Contains(t, c, CodeEdgeIntoStart)
	assert.Contains(t, c, CodeUnknownHandle)
	assert.Contains(t, c, CodeUnreachable)

	var unreachable []string
	for _, is := range r.Issues {
		if is.Code == CodeUnreachable {
			unreachable = append(unreachable, is.NodeID)
		}
	}
	assert.Equal(t, []string{"3", "3", "4"}, unreachable)
}

func TestLint_StartCount(t *testing.T) {
	noStart := &domain.Graph{Nodes: []domain.FlowNode{{ID: "1", Type: domain.NodeTypeText, Data: &domain.TextData{Label: "x"}}}}
	assert.Contains(t, codes(Lint(noStart)), CodeNoStart)
	assert.NotContains(t, codes(Lint(noStart)), CodeUnreachable)

	two := &domain.Graph{Nodes: []domain.FlowNode{{ID: "1", Type: domain.NodeTypeStart}, {ID: "2", Type: domain.NodeTypeStart}}}
	assert.Contains(t, codes(Lint(two)), CodeMultipleStart)
}
