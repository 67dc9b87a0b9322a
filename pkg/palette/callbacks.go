package palette

import (
	"context"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// AddNodeFunc appends a node to the graph being edited.
type AddNodeFunc func(ctx context.Context, details domain.NodeDetails) (domain.FlowNode, error)

// MediaAddedFunc receives the fields collected by a media dialog.
type MediaAddedFunc func(ctx context.Context, attachmentID, caption string, buttons []string) (domain.FlowNode, error)

// Callbacks receive the raw fields collected by each dialog on confirmation.
type Callbacks struct {
	OnStartAdded           func(ctx context.Context) (domain.FlowNode, error)
	OnTextMessageAdded     func(ctx context.Context, label string) (domain.FlowNode, error)
	OnButtonMessageAdded   func(ctx context.Context, text string, buttons []string) (domain.FlowNode, error)
	OnImageMessageAdded    MediaAddedFunc
	OnAudioMessageAdded    MediaAddedFunc
	OnVideoMessageAdded    MediaAddedFunc
	OnDocumentMessageAdded MediaAddedFunc
	OnListMessageAdded     func(ctx context.Context, header, body, footer string, sections []domain.ListSection) (domain.FlowNode, error)
}

// Factory builds the callbacks that wrap raw fields into {type, data} and add the node.
func Factory(add AddNodeFunc) Callbacks {
	media := func(t domain.NodeType) MediaAddedFunc {
		return func(ctx context.Context, attachmentID, caption string, buttons []string) (domain.FlowNode, error) {
			return add(ctx, domain.NodeDetails{Type: t, Data: &domain.MediaData{
				AttachmentID: attachmentID,
				Caption:      caption,
				Buttons:      buttons,
			}})
		}
	}

	return Callbacks{
		OnStartAdded: func(ctx context.Context) (domain.FlowNode, error) {
			return add(ctx, domain.NodeDetails{Type: domain.NodeTypeStart})
		},
		OnTextMessageAdded: func(ctx context.Context, label string) (domain.FlowNode, error) {
			return add(ctx, domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: label}})
		},
		OnButtonMessageAdded: func(ctx context.Context, text string, buttons []string) (domain.FlowNode, error) {
			return add(ctx, domain.NodeDetails{Type: domain.NodeTypeButton, Data: &domain.ButtonData{Text: text, Buttons: buttons}})
		},
		OnImageMessageAdded:    media(domain.NodeTypeImage),
		OnAudioMessageAdded:    media(domain.NodeTypeAudio),
		OnVideoMessageAdded:    media(domain.NodeTypeVideo),
		OnDocumentMessageAdded: media(domain.NodeTypeDocument),
		OnListMessageAdded: func(ctx context.Context, header, body, footer string, sections []domain.ListSection) (domain.FlowNode, error) {
			return add(ctx, domain.NodeDetails{Type: domain.NodeTypeList, Data: &domain.ListData{
				Header:   header,
				Body:     body,
				Footer:   footer,
				Sections: sections,
			}})
		},
	}
}

func (c Callbacks) media(t domain.NodeType) MediaAddedFunc {
	switch t {
	case domain.NodeTypeImage:
		return c.OnImageMessageAdded
	case domain.NodeTypeAudio:
		return c.OnAudioMessageAdded
	case domain.NodeTypeVideo:
		return c.OnVideoMessageAdded
	case domain.NodeTypeDocument:
		return c.OnDocumentMessageAdded
	}
	return nil
}
