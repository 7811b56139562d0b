package render

import (
	"strings"

	"github.com/fatih/color"

	"github.com/joss/termfolio/internal/domain"
)

// Renderer formats flushed lines. pretty adds color and kind markers;
// plain output is the bare text, suitable for pipes.
type Renderer struct {
	pretty bool
	colors map[domain.Kind]*color.Color
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{
		pretty: pretty,
		colors: map[domain.Kind]*color.Color{
			domain.KindSystem: color.New(color.FgMagenta, color.Italic),
			domain.KindUser:   color.New(color.FgCyan, color.Bold),
			domain.KindOutput: color.New(color.Reset),
			domain.KindError:  color.New(color.FgRed),
			domain.KindMuted:  color.New(color.FgHiBlack),
			domain.KindAccent: color.New(color.FgBlue, color.Bold),
			domain.KindGain:   color.New(color.FgGreen),
			domain.KindLoss:   color.New(color.FgRed),
			domain.KindFlat:   color.New(color.FgHiBlack),
		},
	}
}

func (r *Renderer) paint(kind domain.Kind, text string) string {
	c, ok := r.colors[kind]
	if !ok {
		c = r.colors[domain.KindOutput]
	}
	return c.Sprint(text)
}

// Line formats one flushed line without a trailing newline.
func (r *Renderer) Line(l domain.Line) string {
	if !r.pretty {
		return l.PlainText()
	}

	var sb strings.Builder
	if l.Kind == domain.KindError || l.Kind == domain.KindGain || l.Kind == domain.KindLoss {
		sb.WriteString(r.paint(l.Kind, l.Kind.Marker()) + " ")
	}
	if len(l.Segments) == 0 {
		sb.WriteString(r.paint(l.Kind, l.Text))
		return sb.String()
	}
	for _, seg := range l.Segments {
		kind := seg.Kind
		if kind == "" {
			kind = l.Kind
		}
		text := r.paint(kind, seg.Text)
		if seg.Href != "" && !strings.Contains(seg.Text, seg.Href) {
			text += color.HiBlackString(" <%s>", seg.Href)
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// Print writes a formatted line to w.
func (r *Renderer) Print(w *Writer, l domain.Line) {
	w.Println("%s", r.Line(l))
}
