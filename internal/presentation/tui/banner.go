package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowdeck banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// WhatsApp greens, dark to light.
	lines := []struct{ text, color string }{
		{"   __ _                  _           _    ", "#075E54"},
		{"  / _| | _____      ____| | ___  ___| | __", "#128C7E"},
		{" | |_| |/ _ \\ \\ /\\ / / _` |/ _ \\/ __| |/ /", "#25D366"},
		{" |  _| | (_) \\ V  V / (_| |  __/ (__|   < ", "#34B7F1"},
		{" |_| |_|\\___/ \\_/\\_/ \\__,_|\\___|\\___|_|\\_\\", "#DCF8C6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
