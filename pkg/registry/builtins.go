package registry

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowdeck/pkg/domain"
)

var builtins = []Template{
	{Type: domain.NodeTypeStart, Label: "Start", Color: "#25D366", Preview: func(domain.FlowNode) string { return "Flow entry point" }},
	{Type: domain.NodeTypeText, Label: "Text Message", Color: "#34B7F1", Preview: previewText},
	{Type: domain.NodeTypeImage, Label: "Image Message", Color: "#F59E0B", Preview: previewMedia},
	{Type: domain.NodeTypeAudio, Label: "Audio Message", Color: "#8B5CF6", Preview: previewMedia},
	{Type: domain.NodeTypeVideo, Label: "Video Message", Color: "#EF4444", Preview: previewMedia},
	{Type: domain.NodeTypeDocument, Label: "Document Message", Color: "#6B7280", Preview: previewMedia},
	{Type: domain.NodeTypeButton, Label: "Button Message", Color: "#128C7E", Preview: previewButton},
	{Type: domain.NodeTypeList, Label: "List Message", Color: "#075E54", Preview: previewList},
}

func previewText(n domain.FlowNode) string {
	if d, ok := n.Data.(*domain.TextData); ok {
		return truncate(d.Label)
	}
	return ""
}

func previewMedia(n domain.FlowNode) string {
	d, ok := n.Data.(*domain.MediaData)
	if !ok {
		return ""
	}
	ref := d.AttachmentID
	if ref == "" {
		ref = "no attachment"
	}
	out := fmt.Sprintf("[%s] %s", ref, d.Caption)
	return truncate(withButtons(out, d.Buttons))
}

func previewButton(n domain.FlowNode) string {
	if d, ok := n.Data.(*domain.ButtonData); ok {
		return truncate(withButtons(d.Text, d.Buttons))
	}
	return ""
}

func previewList(n domain.FlowNode) string {
	d, ok := n.Data.(*domain.ListData)
	if !ok {
		return ""
	}
	rows := 0
	for _, s := range d.Sections {
		rows += len(s.Buttons)
	}
	parts := []string{}
	if d.Header != "" {
		parts = append(parts, d.Header)
	}
	if d.Body != "" {
		parts = append(parts, d.Body)
	}
	parts = append(parts, fmt.Sprintf("(%d sections, %d rows)", len(d.Sections), rows))
	return truncate(strings.Join(parts, " - "))
}

func withButtons(s string, buttons []string) string {
	if len(buttons) == 0 {
		return s
	}
	return s + " [" + strings.Join(buttons, " | ") + "]"
}
