package registry_test

import (
	"testing"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CoversEveryKind(t *testing.T) {
	r := registry.Default()
	tpls := r.Templates()
	require.Len(t, tpls, len(domain.NodeTypes))

	labels := map[string]bool{}
	for i, tpl := range tpls {
		assert.Equal(t, domain.NodeTypes[i], tpl.Type)
		assert.NotEmpty(t, tpl.Color)
		assert.False(t, labels[tpl.Label], "labels must be distinct")
		labels[tpl.Label] = true
	}
}

func TestRender_Handles(t *testing.T) {
	r := registry.Default()

	tests := []struct {
		name    string
		node    domain.FlowNode
		inputs  int
		outputs int
	}{
		{"start", domain.FlowNode{ID: "1", Type: domain.NodeTypeStart}, 0, 1},
		{"text", domain.FlowNode{ID: "2", Type: domain.NodeTypeText, Data: &domain.TextData{Label: "hi"}}, 1, 1},
		{"button x3", domain.FlowNode{ID: "3", Type: domain.NodeTypeButton, Data: &domain.ButtonData{Buttons: []string{"a", "b", "c"}}}, 1, 3},
		{"video no buttons", domain.FlowNode{ID: "4", Type: domain.NodeTypeVideo, Data: &domain.MediaData{AttachmentID: "v"}}, 1, 0},
		{"document x2", domain.FlowNode{ID: "5", Type: domain.NodeTypeDocument, Data: &domain.MediaData{Buttons: []string{"a", "b"}}}, 1, 2},
		{"list", domain.FlowNode{ID: "6", Type: domain.NodeTypeList, Data: &domain.ListData{Sections: []domain.ListSection{{Buttons: []string{"a", "b"}}, {Buttons: []string{"c"}}}}}, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := r.Render(tt.node)
			require.NoError(t, err)
			assert.Len(t, v.Inputs, tt.inputs)
			assert.Len(t, v.Outputs, tt.outputs)

			ids := map[string]bool{}
			for _, h := range v.Outputs {
				ids[h.ID] = true
			}
			assert.Len(t, ids, tt.outputs, "output handles must be distinct")
		})
	}
}

func TestRender_Preview(t *testing.T) {
	r := registry.Default()

	v, err := r.Render(domain.FlowNode{ID: "1", Type: domain.NodeTypeImage, Data: &domain.MediaData{AttachmentID: "m123", Caption: "Welcome", Buttons: []string{"Shop now"}}})
	require.NoError(t, err)
	assert.Equal(t, "Image Message", v.Label)
	assert.Equal(t, "[m123] Welcome [Shop now]", v.Preview)

	v, err = r.Render(domain.FlowNode{ID: "2", Type: domain.NodeTypeList, Data: &domain.ListData{Header: "Menu", Sections: []domain.ListSection{{Buttons: []string{"a"}}}}})
	require.NoError(t, err)
	assert.Equal(t, "Menu - (1 sections, 1 rows)", v.Preview)
}

func TestRender_Truncates(t *testing.T) {
	r := registry.Default()
	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	v, err := r.Render(domain.FlowNode{ID: "1", Type: domain.NodeTypeText, Data: &domain.TextData{Label: long}})
	require.NoError(t, err)
	assert.Equal(t, 80, len([]rune(v.Preview)))
}

func TestRender_Unknown(t *testing.T) {
	_, err := registry.NewRegistry().Render(domain.FlowNode{ID: "1", Type: domain.NodeTypeText})
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
}

func TestRegister_Overrides(t *testing.T) {
	r := registry.Default()
	r.Register(registry.Template{Type: domain.NodeTypeText, Label: "Say", Color: "#000"})

	v, err := r.RenderGraph(&domain.Graph{Nodes: []domain.FlowNode{{ID: "1", Type: domain.NodeTypeText, Data: &domain.TextData{Label: "x"}}}})
	require.NoError(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, "Say", v[0].Label)
	assert.Empty(t, v[0].Preview)
}
