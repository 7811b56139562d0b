// Package domain defines the line and response types shared by the
// typewriter, the dispatcher and the session.
package domain

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Kind is the semantic tag of a line or segment.
type Kind string

const (
	KindSystem Kind = "system"
	KindUser   Kind = "user"
	KindOutput Kind = "output"
	KindError  Kind = "error"
	KindMuted  Kind = "muted"
	KindAccent Kind = "accent"
	KindGain   Kind = "gain"
	KindLoss   Kind = "loss"
	KindFlat   Kind = "flat"
)

// kindMeta maps each kind to its plain-text marker (extend via map, not switch).
var kindMeta = map[Kind]struct {
	Marker string
}{
	KindSystem: {"*"},
	KindUser:   {">"},
	KindOutput: {" "},
	KindError:  {"!"},
	KindMuted:  {" "},
	KindAccent: {"+"},
	KindGain:   {"▲"},
	KindLoss:   {"▼"},
	KindFlat:   {"="},
}

// ParseKind returns the kind named by s, falling back to KindOutput.
func ParseKind(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindMeta[k]; ok {
		return k
	}
	return KindOutput
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindMeta[k]
	return ok
}

// Marker returns the single-glyph marker used by plain-text renderers.
func (k Kind) Marker() string {
	if m, ok := kindMeta[k]; ok {
		return m.Marker
	}
	return " "
}

// Segment is a sub-run of a line with its own kind and optional link target.
type Segment struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind,omitempty"`
	Href string `json:"href,omitempty"`
}

// Line is a unit of terminal output.
// When Segments is non-empty it is authoritative; Text is the plain fallback.
type Line struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
}

// PlainText returns the text a renderer without styling should show.
func (l Line) PlainText() string {
	if len(l.Segments) == 0 {
		return l.Text
	}
	return JoinSegments(l.Segments)
}

// JoinSegments concatenates segment texts.
func JoinSegments(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// QueueItem is a line plus its scheduling metadata.
type QueueItem struct {
	Line    Line
	Speed   float64 // characters per second; 0 means base rate
	Instant bool
}

// LineSpec describes a line inside a CommandResponse before it is
// sanitized and assigned an ID.
type LineSpec struct {
	Kind     Kind
	Text     string
	Segments []Segment
	Instant  bool
	Speed    float64
}

// CommandResponse is what a handler hands to the session.
// SideEffect runs once, after the lines are enqueued.
type CommandResponse struct {
	Lines      []LineSpec
	SideEffect func()
}

// Text builds a plain LineSpec.
func Text(kind Kind, text string) LineSpec {
	return LineSpec{Kind: kind, Text: text}
}

// Segmented builds a LineSpec from segments; Text is filled from them.
func Segmented(kind Kind, segs ...Segment) LineSpec {
	return LineSpec{Kind: kind, Text: JoinSegments(segs), Segments: segs}
}

// Respond wraps lines into a response without side effect.
func Respond(lines ...LineSpec) CommandResponse {
	return CommandResponse{Lines: lines}
}

// NewID returns a new ULID string for a line. IDs sort in creation order.
func NewID() string {
	return ulid.Make().String()
}
