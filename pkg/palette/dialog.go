package palette

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// DialogState is the lifecycle state of an input dialog.
type DialogState int

const (
	DialogClosed DialogState = iota
	DialogOpen
	DialogConfirmed
	DialogCancelled
)

func (s DialogState) String() string {
	switch s {
	case DialogClosed:
		return "closed"
	case DialogOpen:
		return "open"
	case DialogConfirmed:
		return "confirmed"
	case DialogCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("DialogState(%d)", int(s))
}

// Dialog is the kind-scoped input dialog.
//
//	closed -> open -> {confirmed, cancelled} -> closed
type Dialog struct {
	mu        sync.Mutex
	state     DialogState
	form      Form
	callbacks Callbacks
	node      *domain.FlowNode
}

func newDialog(form Form, cb Callbacks) *Dialog {
	return &Dialog{form: form, callbacks: cb}
}

// Kind returns the node kind the dialog creates.
func (d *Dialog) Kind() domain.NodeType {
	return d.form.Kind()
}

// State returns the current lifecycle state.
func (d *Dialog) State() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Form returns the form edited by the dialog.
// Callers type-assert to *TextForm, *ButtonForm, *MediaForm or *ListForm.
func (d *Dialog) Form() Form {
	return d.form
}

// Node returns the node created by the last confirmation, or nil.
func (d *Dialog) Node() *domain.FlowNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.node
}

// Open moves closed -> open.
func (d *Dialog) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DialogClosed {
		return d.illegal("open")
	}
	d.state = DialogOpen
	d.node = nil
	return nil
}

// Fill loads a payload into the form through the same setters the user drives.
func (d *Dialog) Fill(ctx context.Context, data domain.NodeData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DialogOpen {
		return d.illegal("fill")
	}
	if data == nil {
		return nil
	}
	return d.form.fill(ctx, data)
}

// Confirm moves open -> confirmed by invoking the kind callback with the collected fields.
// On failure the dialog stays open.
func (d *Dialog) Confirm(ctx context.Context) (domain.FlowNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DialogOpen {
		return domain.FlowNode{}, d.illegal("confirm")
	}
	if !d.form.Ready() {
		return domain.FlowNode{}, fmt.Errorf("%w: %s dialog", ErrNotReady, d.form.Kind())
	}

	node, err := d.form.submit(ctx, d.callbacks)
	if err != nil {
		return domain.FlowNode{}, err
	}
	d.state = DialogConfirmed
	d.node = &node
	return node, nil
}

// Cancel moves open -> cancelled.
func (d *Dialog) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DialogOpen {
		return d.illegal("cancel")
	}
	d.state = DialogCancelled
	return nil
}

// Close moves confirmed or cancelled -> closed and clears the form.
func (d *Dialog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DialogConfirmed && d.state != DialogCancelled {
		return d.illegal("close")
	}
	d.state = DialogClosed
	d.form.reset()
	return nil
}

func (d *Dialog) illegal(op string) error {
	return fmt.Errorf("%w: cannot %s a %s %s dialog", ErrIllegalTransition, op, d.state, d.form.Kind())
}
