package palette

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxFieldSize is 4KB, the WhatsApp text body limit.
	DefaultMaxFieldSize = 4096
	// EnvMaxFieldSize is the environment variable to override the default.
	EnvMaxFieldSize = "FLOWDECK_MAX_FIELD_SIZE"
)

// Sanitize cleans a dialog field by enforcing size limits,
// validating UTF-8, and stripping control characters.
func Sanitize(input string) (string, error) {
	limit := maxFieldSize()
	if len(input) > limit {
		// Oversized input is rejected, never truncated.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// sanitizeLabel cleans a single-line label (button or row) and enforces a rune limit.
func sanitizeLabel(input string, limit int) (string, error) {
	s, err := Sanitize(input)
	if err != nil {
		return "", err
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", ErrEmptyField
	}
	if n := utf8.RuneCountInString(s); n > limit {
		return "", fmt.Errorf("%w: %q has %d characters, limit=%d", ErrInputTooLarge, s, n, limit)
	}
	return s, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxFieldSize() int {
	if val := os.Getenv(EnvMaxFieldSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxFieldSize
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
