package palette

import "errors"

var (
	// ErrIllegalTransition is returned when a dialog is driven out of order.
	ErrIllegalTransition = errors.New("illegal dialog transition")
	// ErrNotReady is returned when confirming a form that is missing required fields.
	ErrNotReady = errors.New("form is not ready")
	// ErrTooManyButtons is returned when a node would exceed the WhatsApp button or row cap.
	ErrTooManyButtons = errors.New("too many buttons")
	// ErrUnknownAttachment is returned when selecting a media id that was not listed.
	ErrUnknownAttachment = errors.New("unknown attachment")
	// ErrNoCallback is returned when the callback for a kind was not provided.
	ErrNoCallback = errors.New("no callback registered for kind")
	// ErrEmptyField is returned when a label is blank.
	ErrEmptyField = errors.New("field must not be blank")
	// ErrInputTooLarge is returned when a field exceeds its size limit.
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	// ErrInvalidUTF8 is returned when a field contains invalid UTF-8 sequences.
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)
