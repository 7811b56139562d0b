// Package strings holds the text helpers shared by the renderers: display
// width, truncation and word wrapping that respect ANSI escapes and
// grapheme clusters.
package strings

import (
	"strings"

	"github.com/rivo/uniseg"
)

const ellipsis = "..."

// TruncateRunes truncates s to n grapheme clusters, ellipsis included.
// A cluster is never split, so emoji sequences survive intact.
func TruncateRunes(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if uniseg.GraphemeClusterCount(s) <= n {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n-3 && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	b.WriteString(ellipsis)
	return b.String()
}

// Oneline collapses runs of whitespace, newlines included, into single
// spaces. Used for log fields and detail lines.
func Oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordWrap wraps text to a maximum display width, breaking on word
// boundaries. Existing newlines and ANSI escape codes are preserved.
func WordWrap(s string, width int) string {
	if width <= 0 {
		return s
	}

	var result strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		if line == "" {
			continue
		}
		if Width(line) <= width {
			result.WriteString(line)
			continue
		}
		result.WriteString(wrapLine(line, width))
	}
	return result.String()
}

// wrapLine wraps a single line to width. A word wider than width gets a
// line of its own.
func wrapLine(line string, width int) string {
	var result strings.Builder
	currentLen := 0
	lineStart := true

	for _, word := range strings.Fields(line) {
		wordLen := Width(word)

		if wordLen > width {
			if !lineStart {
				result.WriteString("\n")
			}
			result.WriteString(word)
			result.WriteString("\n")
			currentLen = 0
			lineStart = true
			continue
		}

		spaceNeeded := wordLen
		if !lineStart {
			spaceNeeded++
		}

		if currentLen+spaceNeeded > width {
			result.WriteString("\n")
			result.WriteString(word)
			currentLen = wordLen
			lineStart = false
			continue
		}
		if !lineStart {
			result.WriteString(" ")
			currentLen++
		}
		result.WriteString(word)
		currentLen += wordLen
		lineStart = false
	}

	return strings.TrimSuffix(result.String(), "\n")
}

// Width is the terminal display width of s, ignoring ANSI escape codes.
// Wide runes count as two cells.
func Width(s string) int {
	return uniseg.StringWidth(StripANSI(s))
}

// StripANSI removes CSI escape sequences from s.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
