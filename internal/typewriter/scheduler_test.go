package typewriter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/termfolio/internal/domain"
)

func item(id, text string, instant bool) domain.QueueItem {
	return domain.QueueItem{
		Line:    domain.Line{ID: id, Kind: domain.KindOutput, Text: text},
		Instant: instant,
	}
}

func ids(lines []domain.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.ID
	}
	return out
}

// drain ticks until the scheduler is idle and returns the number of steps.
func drain(t *testing.T, s *Scheduler) int {
	t.Helper()
	n := 0
	for s.Busy() {
		require.True(t, s.Tick(s.Interval()))
		n++
		require.Less(t, n, 100000, "scheduler never drained")
	}
	return n
}

func TestEnqueueEmptyIsNoop(t *testing.T) {
	s := New(Options{})
	s.Enqueue()
	assert.Equal(t, uint64(0), s.Version())
	assert.False(t, s.Busy())
}

func TestEnqueueAssignsIDs(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("", "a", true), item("", "b", true))
	snap := s.Snapshot()
	require.Len(t, snap.Completed, 2)
	assert.NotEmpty(t, snap.Completed[0].ID)
	assert.NotEqual(t, snap.Completed[0].ID, snap.Completed[1].ID)
}

func TestInstantThenAnimated(t *testing.T) {
	s := New(Options{})
	fast := item("3", "HELLO", false)
	fast.Speed = 600
	s.Enqueue(item("1", "line1", true), item("2", "line2", true), fast)

	snap := s.Snapshot()
	assert.Equal(t, []string{"1", "2"}, ids(snap.Completed))
	require.NotNil(t, snap.Typing)
	assert.Equal(t, "", snap.Typing.VisibleText)

	drain(t, s)

	snap = s.Snapshot()
	assert.Equal(t, []string{"1", "2", "3"}, ids(snap.Completed))
	assert.Equal(t, "HELLO", snap.Completed[2].Text)
	assert.Nil(t, snap.Typing)
}

func TestOrderingAcrossInterleavedEnqueues(t *testing.T) {
	s := New(Options{})
	var want []string
	add := func(id string, instant bool) {
		want = append(want, id)
		s.Enqueue(item(id, "text "+id, instant))
	}

	add("a", false)
	add("b", true)
	s.Tick(3 * s.Interval())
	add("c", true)
	add("d", false)
	s.Tick(s.Interval() / 2)
	add("e", true)
	s.Tick(7 * s.Interval())
	add("f", false)
	add("g", true)
	drain(t, s)

	assert.Equal(t, want, ids(s.Snapshot().Completed))
}

func TestInstantWaitsBehindAnimation(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("slow", "abcdef", false))
	s.Enqueue(item("fast", "now", true))

	assert.Empty(t, s.Snapshot().Completed)
	drain(t, s)
	assert.Equal(t, []string{"slow", "fast"}, ids(s.Snapshot().Completed))
}

func TestMonotonicReveal(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("x", strings.Repeat("abc ", 20), false))

	prev := -1
	for s.Busy() {
		snap := s.Snapshot()
		require.NotNil(t, snap.Typing)
		n := len(snap.Typing.VisibleText)
		assert.GreaterOrEqual(t, n, prev)
		assert.LessOrEqual(t, n, len(snap.Typing.FullText))
		assert.True(t, strings.HasPrefix(snap.Typing.FullText, snap.Typing.VisibleText))
		prev = n
		s.Tick(s.Interval())
	}
}

func TestGraphemeReveal(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("e", "a👍🏽b", false))

	require.True(t, s.Step())
	assert.Equal(t, "a", s.Snapshot().Typing.VisibleText)
	require.True(t, s.Step())
	assert.Equal(t, "a👍🏽", s.Snapshot().Typing.VisibleText)
	require.True(t, s.Step())
	assert.Nil(t, s.Snapshot().Typing)
}

func TestStepSizeClamped(t *testing.T) {
	s := New(Options{})
	assert.Equal(t, 1, s.stepSize(0))
	assert.Equal(t, 1, s.stepSize(10))
	assert.Equal(t, 2, s.stepSize(120))
	assert.Equal(t, DefaultMaxStep, s.stepSize(100000))
}

func TestIntervalRespectsMinDelay(t *testing.T) {
	s := New(Options{BaseRate: 1000})
	assert.Equal(t, DefaultMinDelay, s.Interval())

	s = New(Options{BaseRate: 10})
	assert.Equal(t, 100*time.Millisecond, s.Interval())
}

func TestTickCarriesRemainder(t *testing.T) {
	s := New(Options{BaseRate: 10})
	s.Enqueue(item("a", "abcd", false))

	assert.False(t, s.Tick(60*time.Millisecond))
	assert.True(t, s.Tick(60*time.Millisecond))
	assert.Equal(t, "a", s.Snapshot().Typing.VisibleText)
}

func TestFastForwardFewerSteps(t *testing.T) {
	text := strings.Repeat("x", 50)

	base := New(Options{})
	base.Enqueue(item("a", text, false))
	baseSteps := drain(t, base)

	s := New(Options{})
	s.Enqueue(item("a", text, false))
	for i := 0; i < 10; i++ {
		s.Tick(s.Interval())
	}
	require.True(t, s.FastForward())
	assert.Equal(t, DefaultFastForward, s.Multiplier())
	ffSteps := 10 + drain(t, s)

	assert.Less(t, ffSteps, baseSteps)
	assert.Equal(t, text, s.Snapshot().Completed[0].Text)
	assert.Equal(t, 1.0, s.Multiplier(), "multiplier resets when the queue empties")
}

func TestFastForwardIdleIsNoop(t *testing.T) {
	s := New(Options{})
	assert.False(t, s.FastForward())
	assert.Equal(t, 1.0, s.Multiplier())
}

func TestSkipDrainsEverythingInOrder(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("1", "first animated", false))
	s.Enqueue(
		domain.QueueItem{Line: domain.Line{ID: "2", Kind: domain.KindError, Text: "err"}},
		domain.QueueItem{Line: domain.Line{ID: "3", Kind: domain.KindAccent, Segments: []domain.Segment{{Text: "seg", Href: "#x"}}}},
	)
	s.Tick(2 * s.Interval())
	s.FastForward()

	s.Skip()

	snap := s.Snapshot()
	assert.Nil(t, snap.Typing)
	assert.False(t, s.Busy())
	assert.Equal(t, []string{"1", "2", "3"}, ids(snap.Completed))
	assert.Equal(t, "first animated", snap.Completed[0].Text)
	assert.Equal(t, domain.KindError, snap.Completed[1].Kind)
	assert.Equal(t, "#x", snap.Completed[2].Segments[0].Href)
	assert.Equal(t, 1.0, s.Multiplier())
}

func TestSkipAfterNaturalCompletionDoesNotReflush(t *testing.T) {
	var flushed []string
	s := New(Options{OnFlush: func(l domain.Line) { flushed = append(flushed, l.ID) }})
	s.Enqueue(item("only", "hi", false))
	drain(t, s)

	s.Skip()
	s.Skip()

	assert.Equal(t, []string{"only"}, flushed)
	assert.Len(t, s.Snapshot().Completed, 1)
}

func TestNoDuplicateIDs(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("dup", "one", true))
	s.Enqueue(item("dup", "two", false))
	s.Enqueue(item("other", "x", true), item("dup", "three", true))
	s.Tick(s.Interval())
	s.Skip()

	assert.Equal(t, []string{"dup", "other"}, ids(s.Snapshot().Completed))
}

func TestEmptyAnimatedLineFlushesImmediately(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("empty", "", false), item("next", "ab", false))
	assert.Equal(t, []string{"empty"}, ids(s.Snapshot().Completed))
	require.NotNil(t, s.Snapshot().Typing)
	assert.Equal(t, "next", s.Snapshot().Typing.ID)
}

func TestNoIdleGapBetweenAnimatedLines(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("a", "x", false), item("b", "yz", false))

	require.True(t, s.Step())
	snap := s.Snapshot()
	assert.Equal(t, []string{"a"}, ids(snap.Completed))
	require.NotNil(t, snap.Typing, "next line starts in the same step")
	assert.Equal(t, "b", snap.Typing.ID)
}

func TestClear(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("a", "done", true), item("b", "typing", false), item("c", "queued", false))
	s.FastForward()
	s.Clear()

	snap := s.Snapshot()
	assert.Empty(t, snap.Completed)
	assert.Nil(t, snap.Typing)
	assert.False(t, s.Busy())
	assert.Equal(t, 1.0, s.Multiplier())

	// ids are accepted again after a reset
	s.Enqueue(item("a", "again", true))
	assert.Equal(t, []string{"a"}, ids(s.Snapshot().Completed))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(Options{})
	s.Enqueue(item("a", "x", true))
	snap := s.Snapshot()
	snap.Completed[0].Text = "mutated"
	assert.Equal(t, "x", s.Snapshot().Completed[0].Text)
}
