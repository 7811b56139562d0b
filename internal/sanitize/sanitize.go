// Package sanitize normalizes and filters raw line content before it is
// queued for the typewriter. Lines that carry nothing worth showing are
// dropped rather than rendered as gaps.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joss/termfolio/internal/domain"
)

// filteredPrefixes are leading tokens whose lines are never shown.
var filteredPrefixes = []string{"tip:", "hint:", "debug:", "todo:", "//"}

// ruleGlyphs may appear in a decorative border row.
const ruleGlyphs = "+-=─━═┌┐└┘├┤┬┴┼╔╗╚╝"

// frameGlyphs wrap a row on the left and right.
const frameGlyphs = "|│║"

var (
	multiSpace   = regexp.MustCompile(` {2,}`)
	tripleColon  = regexp.MustCompile(`\s*:::\s*`)
	allowedHrefs = []string{"http://", "https://", "mailto:"}
)

// IsDecorativeBorder reports whether s is a horizontal rule or box edge,
// e.g. "+---+", "=====", "| --- |". At least one rule glyph is required.
func IsDecorativeBorder(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	rules := 0
	for _, r := range s {
		switch {
		case strings.ContainsRune(ruleGlyphs, r):
			rules++
		case strings.ContainsRune(frameGlyphs, r), r == ' ':
		default:
			return false
		}
	}
	return rules > 0
}

// IsBoxWrapped reports whether s is a single row framed by vertical bars,
// e.g. "| hello |".
func IsBoxWrapped(s string) bool {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) < 2 {
		return false
	}
	return strings.ContainsRune(frameGlyphs, runes[0]) &&
		strings.ContainsRune(frameGlyphs, runes[len(runes)-1])
}

// IsFilteredPrefix reports whether s starts with a token that is never shown.
func IsFilteredPrefix(s string) bool {
	lower := strings.ToLower(strings.TrimLeftFunc(s, unicode.IsSpace))
	for _, p := range filteredPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// unwrapBox strips one level of vertical-bar framing.
func unwrapBox(s string) string {
	runes := []rune(strings.TrimSpace(s))
	return strings.TrimSpace(string(runes[1 : len(runes)-1]))
}

// Text cleans one line of text. ok is false when the line must be dropped.
func Text(input string) (string, bool) {
	s := strings.TrimRightFunc(input, unicode.IsSpace)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	if IsDecorativeBorder(s) {
		return "", false
	}
	if IsBoxWrapped(s) {
		s = unwrapBox(s)
		if s == "" || IsDecorativeBorder(s) {
			return "", false
		}
	}
	if IsFilteredPrefix(s) {
		return "", false
	}
	s = tripleColon.ReplaceAllString(s, ": ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Href reports whether target is an allowed link: http(s), mailto,
// an in-page #anchor or a root-relative /path.
func Href(target string) bool {
	if target == "" {
		return false
	}
	lower := strings.ToLower(target)
	for _, p := range allowedHrefs {
		if strings.HasPrefix(lower, p) && len(lower) > len(p) {
			return true
		}
	}
	if strings.HasPrefix(target, "#") {
		return len(target) > 1
	}
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}

// Segments cleans each segment. Segments whose text is dropped are removed;
// disallowed link targets are cleared so the text stays as plain output.
func Segments(segs []domain.Segment) []domain.Segment {
	if len(segs) == 0 {
		return nil
	}
	out := make([]domain.Segment, 0, len(segs))
	for i, seg := range segs {
		text, ok := segmentText(seg.Text, i == 0, len(segs) == 1)
		if !ok {
			continue
		}
		if n := len(out); n > 0 && strings.HasSuffix(out[n-1].Text, " ") {
			text = strings.TrimPrefix(text, " ")
		}
		seg.Text = text
		if seg.Href != "" && !Href(seg.Href) {
			seg.Href = ""
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// segmentText applies the line rules to a segment. Segments of a longer
// line keep a single boundary space on each side so "a " + "b" still reads
// "a b". The first segment keeps its own indentation instead of a leading
// boundary space.
func segmentText(s string, first, only bool) (string, bool) {
	if only {
		return Text(s)
	}
	lead := !first && strings.HasPrefix(s, " ")
	trail := strings.HasSuffix(s, " ")
	if !first {
		s = strings.TrimLeft(s, " ")
	}
	text, ok := Text(s)
	if !ok {
		return "", false
	}
	if lead {
		text = " " + text
	}
	if trail {
		text += " "
	}
	return text, true
}

// Line cleans a line descriptor. ok is false when neither its text nor any
// of its segments survive.
func Line(spec domain.LineSpec) (domain.LineSpec, bool) {
	if len(spec.Segments) > 0 {
		segs := Segments(spec.Segments)
		if len(segs) > 0 {
			spec.Segments = segs
			spec.Text = strings.TrimSpace(domain.JoinSegments(segs))
			return spec, true
		}
		spec.Segments = nil
	}
	text, ok := Text(spec.Text)
	if !ok {
		return domain.LineSpec{}, false
	}
	spec.Text = text
	return spec, true
}
