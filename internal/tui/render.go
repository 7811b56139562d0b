package tui

import (
	"strings"

	"github.com/joss/termfolio/internal/domain"
	tfstrings "github.com/joss/termfolio/internal/strings"
	"github.com/joss/termfolio/internal/typewriter"
)

const cursorGlyph = "▌"

// renderSegments paints segments, falling back to the line kind when a
// segment has none.
func renderSegments(st Styles, kind domain.Kind, segs []domain.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		k := seg.Kind
		if k == "" {
			k = kind
		}
		if seg.Href != "" {
			b.WriteString(st.Link(k).Render(seg.Text))
			continue
		}
		b.WriteString(st.Kind(k).Render(seg.Text))
	}
	return b.String()
}

// renderLine paints one completed line.
func renderLine(st Styles, line domain.Line) string {
	if len(line.Segments) > 0 {
		return renderSegments(st, line.Kind, line.Segments)
	}
	return st.Kind(line.Kind).Render(line.Text)
}

// visibleSegments cuts segs down to the first n bytes of their joined text.
// VisibleText is always a prefix of FullText, so cutting by length keeps
// the segment styling of the revealed part.
func visibleSegments(segs []domain.Segment, n int) []domain.Segment {
	out := make([]domain.Segment, 0, len(segs))
	for _, seg := range segs {
		if n <= 0 {
			break
		}
		if len(seg.Text) > n {
			seg.Text = seg.Text[:n]
		}
		n -= len(seg.Text)
		out = append(out, seg)
	}
	return out
}

// renderTyping paints the animating line up to its visible text.
func renderTyping(st Styles, t *typewriter.TypingState, cursor bool) string {
	var body string
	if len(t.Segments) > 0 {
		body = renderSegments(st, t.Kind, visibleSegments(t.Segments, len(t.VisibleText)))
	} else {
		body = st.Kind(t.Kind).Render(t.VisibleText)
	}
	if cursor {
		body += st.Cursor.Render(cursorGlyph)
	}
	return body
}

// renderSnapshot paints completed output followed by the typing line,
// wrapped to width.
func renderSnapshot(st Styles, snap typewriter.Snapshot, width int, cursor bool) string {
	lines := make([]string, 0, len(snap.Completed)+1)
	for _, l := range snap.Completed {
		lines = append(lines, renderLine(st, l))
	}
	if snap.Typing != nil {
		lines = append(lines, renderTyping(st, snap.Typing, cursor))
	}
	return tfstrings.WordWrap(strings.Join(lines, "\n"), width)
}
