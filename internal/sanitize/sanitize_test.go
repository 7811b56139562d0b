package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/termfolio/internal/domain"
)

func TestTextDropsEmptyAndDecorative(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n", "+---+", "=====", "-----", "| --- |", "┌────┐", "||"} {
		t.Run(in, func(t *testing.T) {
			_, ok := Text(in)
			assert.False(t, ok)
		})
	}
}

func TestTextFilteredPrefix(t *testing.T) {
	for _, in := range []string{"Tip: x", "tip: lower", "  Hint: indented", "DEBUG: noise", "// comment"} {
		_, ok := Text(in)
		assert.False(t, ok, in)
	}
	got, ok := Text("Tipping point")
	require.True(t, ok)
	assert.Equal(t, "Tipping point", got)
}

func TestTextUnwrapsBox(t *testing.T) {
	got, ok := Text("| hello |")
	require.True(t, ok)
	assert.Equal(t, "hello", got)

	_, ok = Text("|   |")
	assert.False(t, ok)
}

func TestTextCollapses(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"role:::engineer", "role: engineer"},
		{"role ::: engineer", "role: engineer"},
		{"a    b     c", "a b c"},
		{"trailing   \t", "trailing"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Text(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsDecorativeBorder("+-=-+"))
	assert.False(t, IsDecorativeBorder("| |"))
	assert.False(t, IsDecorativeBorder("a-b"))
	assert.True(t, IsBoxWrapped("│ x │"))
	assert.False(t, IsBoxWrapped("| x"))
	assert.True(t, IsFilteredPrefix("TODO: later"))
	assert.False(t, IsFilteredPrefix("today"))
}

func TestHref(t *testing.T) {
	allowed := []string{"http://a.b", "https://a.b/c", "mailto:me@x.y", "#top", "/cv.pdf", "HTTPS://A.B"}
	for _, h := range allowed {
		assert.True(t, Href(h), h)
	}
	denied := []string{"", "javascript:alert(1)", "//evil.com", "#", "ftp://x", "https://", "data:text/html,x"}
	for _, h := range denied {
		assert.False(t, Href(h), h)
	}
}

func TestSegmentsDropsAndStrips(t *testing.T) {
	segs := Segments([]domain.Segment{
		{Text: "see"},
		{Text: "   "},
		{Text: " site", Href: "javascript:void(0)"},
		{Text: " mail", Href: "mailto:a@b.c"},
	})
	require.Len(t, segs, 3)
	assert.Equal(t, "see", segs[0].Text)
	assert.Equal(t, " site", segs[1].Text)
	assert.Empty(t, segs[1].Href)
	assert.Equal(t, "mailto:a@b.c", segs[2].Href)

	assert.Nil(t, Segments([]domain.Segment{{Text: "+--+"}, {Text: ""}}))
}

func TestSegmentsKeepBoundarySpaces(t *testing.T) {
	tests := []struct {
		name string
		segs []domain.Segment
		want string
	}{
		{"first segment trailing space", []domain.Segment{{Text: "email: "}, {Text: "x@y"}}, "email: x@y"},
		{"inner leading space", []domain.Segment{{Text: "see"}, {Text: " site"}}, "see site"},
		{"doubled boundary collapses", []domain.Segment{{Text: "a "}, {Text: " b"}}, "a b"},
		{"only segment is trimmed", []domain.Segment{{Text: "solo   "}}, "solo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.JoinSegments(Segments(tt.segs)))
		})
	}
}

func TestLine(t *testing.T) {
	spec, ok := Line(domain.Segmented(domain.KindOutput,
		domain.Segment{Text: "name:::"},
		domain.Segment{Text: " value"},
	))
	require.True(t, ok)
	assert.Equal(t, "name: value", spec.Text)

	// segments all dropped, text fallback survives
	spec, ok = Line(domain.LineSpec{Text: "fallback", Segments: []domain.Segment{{Text: "===="}}})
	require.True(t, ok)
	assert.Nil(t, spec.Segments)
	assert.Equal(t, "fallback", spec.Text)

	_, ok = Line(domain.LineSpec{Text: "+--+", Segments: []domain.Segment{{Text: " "}}})
	assert.False(t, ok)
}
