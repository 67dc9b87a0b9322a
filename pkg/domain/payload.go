package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// NodeData is the kind-specific payload of a FlowNode.
// The set of implementations is closed: TextData, MediaData, ButtonData and ListData.
// START nodes carry a nil payload.
type NodeData interface {
	clone() NodeData
}

// TextData is the payload of a TEXT node.
type TextData struct {
	Label string `json:"label"`
}

// MediaData is the payload of IMAGE, AUDIO, VIDEO and DOCUMENT nodes.
type MediaData struct {
	// AttachmentID references a previously uploaded media item.
	AttachmentID string   `json:"id"`
	Caption      string   `json:"caption"`
	Buttons      []string `json:"buttons"`
}

// ButtonData is the payload of a BUTTON node.
type ButtonData struct {
	Text    string   `json:"text"`
	Buttons []string `json:"buttons"`
}

// ListSection groups the rows of a LIST node.
type ListSection struct {
	Title   string   `json:"title"`
	Buttons []string `json:"buttons"`
}

// ListData is the payload of a LIST node.
type ListData struct {
	Header   string        `json:"header"`
	Body     string        `json:"body"`
	Footer   string        `json:"footer"`
	Sections []ListSection `json:"sections"`
}

func (d *TextData) clone() NodeData {
	if d == nil {
		return d
	}
	c := *d
	return &c
}

func (d *MediaData) clone() NodeData {
	if d == nil {
		return d
	}
	c := *d
	c.Buttons = cloneStrings(d.Buttons)
	return &c
}

func (d *ButtonData) clone() NodeData {
	if d == nil {
		return d
	}
	c := *d
	c.Buttons = cloneStrings(d.Buttons)
	return &c
}

func (d *ListData) clone() NodeData {
	if d == nil {
		return d
	}
	c := *d
	if d.Sections != nil {
		c.Sections = make([]ListSection, len(d.Sections))
		for i, s := range d.Sections {
			c.Sections[i] = ListSection{Title: s.Title, Buttons: cloneStrings(s.Buttons)}
		}
	}
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// DecodeData converts a loosely typed payload (REST body, MCP arguments, backend JSON)
// into the typed payload matching t. Field names follow the JSON wire names.
// A nil map yields the zero payload of the kind.
func DecodeData(t NodeType, raw map[string]any) (NodeData, error) {
	var target NodeData
	switch t {
	case NodeTypeStart:
		return nil, nil
	case NodeTypeText:
		target = &TextData{}
	case NodeTypeImage, NodeTypeAudio, NodeTypeVideo, NodeTypeDocument:
		target = &MediaData{}
	case NodeTypeButton:
		target = &ButtonData{}
	case NodeTypeList:
		target = &ListData{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}

	if raw == nil {
		return target, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", t, err)
	}
	return target, nil
}

// CheckData reports whether data is an acceptable payload for t.
func CheckData(t NodeType, data NodeData) error {
	ok := false
	switch t {
	case NodeTypeStart:
		ok = data == nil
	case NodeTypeText:
		d, is := data.(*TextData)
		ok = is && d != nil
	case NodeTypeImage, NodeTypeAudio, NodeTypeVideo, NodeTypeDocument:
		d, is := data.(*MediaData)
		ok = is && d != nil
	case NodeTypeButton:
		d, is := data.(*ButtonData)
		ok = is && d != nil
	case NodeTypeList:
		d, is := data.(*ListData)
		ok = is && d != nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
	if !ok {
		return fmt.Errorf("%w: %T does not match %s", ErrPayloadMismatch, data, t)
	}
	return nil
}
