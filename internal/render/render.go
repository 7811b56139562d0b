// Package render prints lines for hosts without a full-screen UI.
// Separates presentation from the engine: it only reads flushed lines.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Writer wraps an io.Writer with formatting utilities. Safe for
// concurrent use.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a Writer that writes to the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Print writes formatted text.
func (w *Writer) Print(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}

// Println writes formatted text with newline.
func (w *Writer) Println(format string, args ...any) {
	w.Print(format+"\n", args...)
}

// Line writes a blank line.
func (w *Writer) Line() {
	w.Print("\n")
}

// Header writes a header line.
func (w *Writer) Header(title string, args ...any) {
	if len(args) > 0 {
		title = fmt.Sprintf(title, args...)
	}
	w.Print("%s\n\n", strings.ToUpper(title))
}

// Item writes an indented item line.
func (w *Writer) Item(format string, args ...any) {
	w.Print("  "+format+"\n", args...)
}

// BoolIcon returns icon for boolean.
func BoolIcon(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
