package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/termfolio/internal/domain"
)

// palette is the set of colors one theme paints with.
type palette struct {
	title   lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	accent  lipgloss.Color
	user    lipgloss.Color
	system  lipgloss.Color
	err     lipgloss.Color
	gain    lipgloss.Color
	loss    lipgloss.Color
	statusF lipgloss.Color
	statusB lipgloss.Color
	border  lipgloss.Color
}

var palettes = map[string]palette{
	"dark": {
		title: "205", text: "252", muted: "241", accent: "33", user: "86", system: "62",
		err: "196", gain: "42", loss: "203", statusF: "241", statusB: "236", border: "62",
	},
	"light": {
		title: "125", text: "235", muted: "245", accent: "25", user: "30", system: "61",
		err: "160", gain: "28", loss: "124", statusF: "238", statusB: "254", border: "61",
	},
	"amber": {
		title: "214", text: "220", muted: "136", accent: "214", user: "228", system: "178",
		err: "202", gain: "220", loss: "166", statusF: "136", statusB: "234", border: "130",
	},
}

// Styles are the rendered lipgloss styles for one theme.
type Styles struct {
	Title  lipgloss.Style
	Status lipgloss.Style
	Input  lipgloss.Style
	Cursor lipgloss.Style
	kinds  map[domain.Kind]lipgloss.Style
}

// NewStyles builds the styles for theme. Unknown themes get "dark".
func NewStyles(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes["dark"]
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.title).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Foreground(p.statusF).
			Background(p.statusB).
			Padding(0, 1),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		Cursor: fg(p.accent),
		kinds: map[domain.Kind]lipgloss.Style{
			domain.KindSystem: fg(p.system).Italic(true),
			domain.KindUser:   fg(p.user).Bold(true),
			domain.KindOutput: fg(p.text),
			domain.KindError:  fg(p.err),
			domain.KindMuted:  fg(p.muted),
			domain.KindAccent: fg(p.accent).Bold(true),
			domain.KindGain:   fg(p.gain),
			domain.KindLoss:   fg(p.loss),
			domain.KindFlat:   fg(p.muted),
		},
	}
}

// Kind returns the style for a line or segment kind.
func (s Styles) Kind(k domain.Kind) lipgloss.Style {
	if st, ok := s.kinds[k]; ok {
		return st
	}
	return s.kinds[domain.KindOutput]
}

// Link styles a segment that carries a link target.
func (s Styles) Link(k domain.Kind) lipgloss.Style {
	return s.Kind(k).Underline(true)
}
