package palette

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/flowdeck/pkg/domain"
)

const (
	// MaxReplyButtons is the WhatsApp cap of reply buttons per message.
	MaxReplyButtons = 3
	// MaxListRows is the WhatsApp cap of rows across all sections of a list.
	MaxListRows = 10
	// MaxButtonLabel is the rune limit of a reply button title.
	MaxButtonLabel = 20
	// MaxRowLabel is the rune limit of a list row title.
	MaxRowLabel = 24
)

// Form collects the fields of one dialog.
type Form interface {
	Kind() domain.NodeType
	// Ready reports whether the dialog may be confirmed.
	Ready() bool

	fill(ctx context.Context, data domain.NodeData) error
	submit(ctx context.Context, cb Callbacks) (domain.FlowNode, error)
	reset()
}

// TextForm collects a TEXT message.
type TextForm struct {
	Label string
}

func (f *TextForm) Kind() domain.NodeType { return domain.NodeTypeText }

// Ready requires a non-blank label.
func (f *TextForm) Ready() bool { return !blank(f.Label) }

// SetLabel sets the message text.
func (f *TextForm) SetLabel(s string) error {
	clean, err := Sanitize(s)
	if err != nil {
		return err
	}
	f.Label = clean
	return nil
}

func (f *TextForm) fill(_ context.Context, data domain.NodeData) error {
	d, ok := data.(*domain.TextData)
	if !ok || d == nil {
		return payloadError(f.Kind(), data)
	}
	return f.SetLabel(d.Label)
}

func (f *TextForm) submit(ctx context.Context, cb Callbacks) (domain.FlowNode, error) {
	if cb.OnTextMessageAdded == nil {
		return domain.FlowNode{}, fmt.Errorf("%w: %s", ErrNoCallback, f.Kind())
	}
	return cb.OnTextMessageAdded(ctx, f.Label)
}

func (f *TextForm) reset() { *f = TextForm{} }

// buttonSet is the reply button list shared by BUTTON and media forms.
type buttonSet []string

func (b *buttonSet) add(label string) error {
	if len(*b) >= MaxReplyButtons {
		return fmt.Errorf("%w: at most %d reply buttons", ErrTooManyButtons, MaxReplyButtons)
	}
	clean, err := sanitizeLabel(label, MaxButtonLabel)
	if err != nil {
		return err
	}
	*b = append(*b, clean)
	return nil
}

func (b *buttonSet) remove(i int) {
	if i >= 0 && i < len(*b) {
		*b = slices.Delete(*b, i, i+1)
	}
}

func (b *buttonSet) load(labels []string) error {
	*b = nil
	for _, l := range labels {
		if err := b.add(l); err != nil {
			return err
		}
	}
	return nil
}

func (b buttonSet) values() []string {
	if len(b) == 0 {
		return []string{}
	}
	return slices.Clone([]string(b))
}

// ButtonForm collects a BUTTON message.
type ButtonForm struct {
	Text    string
	buttons buttonSet
}

func (f *ButtonForm) Kind() domain.NodeType { return domain.NodeTypeButton }

// Ready requires a non-blank text and at least one button.
func (f *ButtonForm) Ready() bool { return !blank(f.Text) && len(f.buttons) > 0 }

// SetText sets the message body.
func (f *ButtonForm) SetText(s string) error {
	clean, err := Sanitize(s)
	if err != nil {
		return err
	}
	f.Text = clean
	return nil
}

// AddButton appends a reply button.
func (f *ButtonForm) AddButton(label string) error { return f.buttons.add(label) }

// RemoveButton drops the i-th reply button. Out of range indexes are ignored.
func (f *ButtonForm) RemoveButton(i int) { f.buttons.remove(i) }

// Buttons returns the reply button labels.
func (f *ButtonForm) Buttons() []string { return f.buttons.values() }

func (f *ButtonForm) fill(_ context.Context, data domain.NodeData) error {
	d, ok := data.(*domain.ButtonData)
	if !ok || d == nil {
		return payloadError(f.Kind(), data)
	}
	if err := f.SetText(d.Text); err != nil {
		return err
	}
	return f.buttons.load(d.Buttons)
}

func (f *ButtonForm) submit(ctx context.Context, cb Callbacks) (domain.FlowNode, error) {
	if cb.OnButtonMessageAdded == nil {
		return domain.FlowNode{}, fmt.Errorf("%w: %s", ErrNoCallback, f.Kind())
	}
	return cb.OnButtonMessageAdded(ctx, f.Text, f.Buttons())
}

func (f *ButtonForm) reset() { *f = ButtonForm{} }

// MediaForm collects an IMAGE, AUDIO, VIDEO or DOCUMENT message.
type MediaForm struct {
	Caption string

	kind     domain.NodeType
	selector *AttachmentSelector
	// attachment is used when no selector is wired.
	attachment string
	buttons    buttonSet
}

// NewMediaForm creates a form for a media kind.
// A nil selector accepts any attachment id without checking the media library.
func NewMediaForm(kind domain.NodeType, selector *AttachmentSelector) *MediaForm {
	return &MediaForm{kind: kind, selector: selector}
}

func (f *MediaForm) Kind() domain.NodeType { return f.kind }

// Ready requires a selected attachment.
func (f *MediaForm) Ready() bool { return f.AttachmentID() != "" }

// Selector returns the nested attachment selector, or nil.
func (f *MediaForm) Selector() *AttachmentSelector { return f.selector }

// AttachmentID returns the selected media reference.
func (f *MediaForm) AttachmentID() string {
	if f.selector != nil {
		return f.selector.Selected()
	}
	return f.attachment
}

// SelectAttachment picks the media reference.
func (f *MediaForm) SelectAttachment(ctx context.Context, id string) error {
	if f.selector != nil {
		return f.selector.Select(ctx, id)
	}
	clean, err := Sanitize(id)
	if err != nil {
		return err
	}
	f.attachment = clean
	return nil
}

// SetCaption sets the caption shown under the media.
func (f *MediaForm) SetCaption(s string) error {
	clean, err := Sanitize(s)
	if err != nil {
		return err
	}
	f.Caption = clean
	return nil
}

// AddButton appends a reply button.
func (f *MediaForm) AddButton(label string) error { return f.buttons.add(label) }

// RemoveButton drops the i-th reply button.
func (f *MediaForm) RemoveButton(i int) { f.buttons.remove(i) }

// Buttons returns the reply button labels.
func (f *MediaForm) Buttons() []string { return f.buttons.values() }

func (f *MediaForm) fill(ctx context.Context, data domain.NodeData) error {
	d, ok := data.(*domain.MediaData)
	if !ok || d == nil {
		return payloadError(f.Kind(), data)
	}
	if d.AttachmentID != "" {
		if err := f.SelectAttachment(ctx, d.AttachmentID); err != nil {
			return err
		}
	}
	if err := f.SetCaption(d.Caption); err != nil {
		return err
	}
	return f.buttons.load(d.Buttons)
}

func (f *MediaForm) submit(ctx context.Context, cb Callbacks) (domain.FlowNode, error) {
	fn := cb.media(f.kind)
	if fn == nil {
		return domain.FlowNode{}, fmt.Errorf("%w: %s", ErrNoCallback, f.kind)
	}
	return fn(ctx, f.AttachmentID(), f.Caption, f.Buttons())
}

func (f *MediaForm) reset() {
	f.Caption = ""
	f.attachment = ""
	f.buttons = nil
	if f.selector != nil {
		f.selector.clear()
	}
}

// ListForm collects a LIST message.
type ListForm struct {
	Header string
	Body   string
	Footer string

	sections []domain.ListSection
}

func (f *ListForm) Kind() domain.NodeType { return domain.NodeTypeList }

// Ready requires a non-blank body and at least one row.
func (f *ListForm) Ready() bool { return !blank(f.Body) && f.rows() > 0 }

// SetHeader sets the list header.
func (f *ListForm) SetHeader(s string) error { return setField(&f.Header, s) }

// SetBody sets the list body.
func (f *ListForm) SetBody(s string) error { return setField(&f.Body, s) }

// SetFooter sets the list footer.
func (f *ListForm) SetFooter(s string) error { return setField(&f.Footer, s) }

// AddSection appends an empty section and returns its index.
func (f *ListForm) AddSection(title string) (int, error) {
	clean, err := Sanitize(title)
	if err != nil {
		return 0, err
	}
	f.sections = append(f.sections, domain.ListSection{Title: clean, Buttons: []string{}})
	return len(f.sections) - 1, nil
}

// AddRow appends a row to a section.
func (f *ListForm) AddRow(section int, label string) error {
	if section < 0 || section >= len(f.sections) {
		return fmt.Errorf("section %d out of range", section)
	}
	if f.rows() >= MaxListRows {
		return fmt.Errorf("%w: at most %d list rows", ErrTooManyButtons, MaxListRows)
	}
	clean, err := sanitizeLabel(label, MaxRowLabel)
	if err != nil {
		return err
	}
	f.sections[section].Buttons = append(f.sections[section].Buttons, clean)
	return nil
}

// Sections returns a copy of the sections.
func (f *ListForm) Sections() []domain.ListSection {
	out := make([]domain.ListSection, len(f.sections))
	for i, s := range f.sections {
		out[i] = domain.ListSection{Title: s.Title, Buttons: slices.Clone(s.Buttons)}
	}
	return out
}

func (f *ListForm) rows() int {
	n := 0
	for _, s := range f.sections {
		n += len(s.Buttons)
	}
	return n
}

func (f *ListForm) fill(_ context.Context, data domain.NodeData) error {
	d, ok := data.(*domain.ListData)
	if !ok || d == nil {
		return payloadError(f.Kind(), data)
	}
	for _, set := range []struct {
		fn  func(string) error
		val string
	}{{f.SetHeader, d.Header}, {f.SetBody, d.Body}, {f.SetFooter, d.Footer}} {
		if err := set.fn(set.val); err != nil {
			return err
		}
	}
	f.sections = nil
	for _, s := range d.Sections {
		idx, err := f.AddSection(s.Title)
		if err != nil {
			return err
		}
		for _, row := range s.Buttons {
			if err := f.AddRow(idx, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *ListForm) submit(ctx context.Context, cb Callbacks) (domain.FlowNode, error) {
	if cb.OnListMessageAdded == nil {
		return domain.FlowNode{}, fmt.Errorf("%w: %s", ErrNoCallback, f.Kind())
	}
	return cb.OnListMessageAdded(ctx, f.Header, f.Body, f.Footer, f.Sections())
}

func (f *ListForm) reset() { *f = ListForm{} }

func setField(dst *string, s string) error {
	clean, err := Sanitize(s)
	if err != nil {
		return err
	}
	*dst = clean
	return nil
}

func payloadError(t domain.NodeType, data domain.NodeData) error {
	return fmt.Errorf("%w: %T does not match %s", domain.ErrPayloadMismatch, data, t)
}
