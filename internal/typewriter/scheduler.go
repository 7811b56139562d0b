// Package typewriter reveals queued lines character by character.
//
// The Scheduler owns the pending queue, the single animating slot and the
// completed output. It has no timers of its own: the host calls Tick with the
// elapsed time, which keeps the whole thing deterministic under test.
// A Scheduler is not safe for concurrent use; callers mutate it from one loop.
package typewriter

import (
	"math"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/joss/termfolio/internal/domain"
)

const (
	DefaultBaseRate    = 60.0 // characters per second at 1x
	DefaultMinDelay    = 16 * time.Millisecond
	DefaultMaxStep     = 6
	DefaultFastForward = 5.0
)

// Options tunes the scheduler. Zero values take the defaults.
type Options struct {
	BaseRate    float64
	MinDelay    time.Duration
	MaxStep     int
	FastForward float64

	// OnFlush is called once for every line that enters completed output.
	OnFlush func(domain.Line)
}

func (o Options) withDefaults() Options {
	if o.BaseRate <= 0 {
		o.BaseRate = DefaultBaseRate
	}
	if o.MinDelay <= 0 {
		o.MinDelay = DefaultMinDelay
	}
	if o.MaxStep <= 0 {
		o.MaxStep = DefaultMaxStep
	}
	if o.FastForward <= 1 {
		o.FastForward = DefaultFastForward
	}
	return o
}

// TypingState is a read-only view of the animating line.
// len(VisibleText) never exceeds len(FullText).
type TypingState struct {
	ID          string
	Kind        domain.Kind
	FullText    string
	VisibleText string
	Speed       float64
	Segments    []domain.Segment
}

// Snapshot is everything a renderer may read: completed lines in order and
// the animating line, if any.
type Snapshot struct {
	Completed []domain.Line
	Typing    *TypingState
}

// typing is the internal animating slot. Progress is counted in grapheme
// clusters so a reveal never splits an emoji or combining sequence.
type typing struct {
	line      domain.Line
	graphemes []string
	visible   int
	speed     float64
}

func (t *typing) done() bool { return t.visible >= len(t.graphemes) }

func (t *typing) visibleText() string {
	return strings.Join(t.graphemes[:t.visible], "")
}

// Scheduler is the typewriter state machine:
// Pending -> Animating -> Flushed, or Pending -> Flushed for instant items
// and on Skip.
type Scheduler struct {
	opts Options

	pending   []domain.QueueItem
	active    *typing
	completed []domain.Line

	multiplier    float64
	version       uint64
	carry         time.Duration
	steps         int
	lastFlushedID string
	flushed       map[string]struct{}
}

// New creates a scheduler.
func New(opts Options) *Scheduler {
	return &Scheduler{
		opts:       opts.withDefaults(),
		multiplier: 1,
		flushed:    make(map[string]struct{}),
	}
}

// Interval is the wall time of one reveal step.
func (s *Scheduler) Interval() time.Duration {
	d := time.Duration(float64(time.Second) / s.opts.BaseRate)
	if d < s.opts.MinDelay {
		return s.opts.MinDelay
	}
	return d
}

// Enqueue appends items to the pending queue and processes it. Items
// without an ID get one.
func (s *Scheduler) Enqueue(items ...domain.QueueItem) {
	if len(items) == 0 {
		return
	}
	for _, it := range items {
		if it.Line.ID == "" {
			it.Line.ID = domain.NewID()
		}
		s.pending = append(s.pending, it)
	}
	s.version++
	s.process()
}

// process pops queue items while nothing is animating. Instant items go
// straight to completed output; the first animated item takes the slot.
func (s *Scheduler) process() {
	for s.active == nil && len(s.pending) > 0 {
		it := s.pending[0]
		s.pending[0] = domain.QueueItem{}
		s.pending = s.pending[1:]

		if it.Instant {
			s.flush(it.Line)
			continue
		}
		t := &typing{
			line:      it.Line,
			graphemes: splitGraphemes(it.Line.PlainText()),
			speed:     it.Speed,
		}
		if t.done() {
			s.flush(it.Line)
			continue
		}
		s.active = t
	}
	if s.active == nil && len(s.pending) == 0 {
		s.pending = nil
		s.multiplier = 1
		s.carry = 0
	}
}

// flush moves a line into completed output exactly once per ID.
func (s *Scheduler) flush(line domain.Line) {
	if line.ID == s.lastFlushedID {
		return
	}
	if _, dup := s.flushed[line.ID]; dup {
		return
	}
	s.flushed[line.ID] = struct{}{}
	s.lastFlushedID = line.ID
	s.completed = append(s.completed, line)
	if s.opts.OnFlush != nil {
		s.opts.OnFlush(line)
	}
}

// Tick advances the animation by elapsed wall time. Every whole Interval
// performs one reveal step; the remainder carries over to the next call.
// It returns true if the visible state changed.
func (s *Scheduler) Tick(elapsed time.Duration) bool {
	if s.active == nil {
		return false
	}
	if elapsed > 0 {
		s.carry += elapsed
	}
	interval := s.Interval()
	changed := false
	for s.active != nil && s.carry >= interval {
		s.carry -= interval
		s.step()
		changed = true
	}
	return changed
}

// Step performs a single reveal step regardless of elapsed time.
func (s *Scheduler) Step() bool {
	if s.active == nil {
		return false
	}
	s.step()
	return true
}

func (s *Scheduler) step() {
	s.steps++
	t := s.active
	t.visible += s.stepSize(t.speed)
	if t.visible > len(t.graphemes) {
		t.visible = len(t.graphemes)
	}
	if !t.done() {
		return
	}
	s.active = nil
	s.flush(t.line)
	s.process()
}

// stepSize is round(speed*multiplier/baseRate) clamped to [1, MaxStep].
func (s *Scheduler) stepSize(speed float64) int {
	if speed <= 0 {
		speed = s.opts.BaseRate
	}
	n := int(math.Round(speed * s.multiplier / s.opts.BaseRate))
	if n < 1 {
		return 1
	}
	if n > s.opts.MaxStep {
		return s.opts.MaxStep
	}
	return n
}

// Skip completes the animating line and moves every pending item straight
// into completed output, in order. The speed multiplier resets to 1x.
// Side effects of the originating commands are not touched.
func (s *Scheduler) Skip() {
	if s.active != nil {
		line := s.active.line
		s.active = nil
		s.flush(line)
	}
	for _, it := range s.pending {
		s.flush(it.Line)
	}
	s.pending = nil
	s.multiplier = 1
	s.carry = 0
	s.version++
}

// FastForward speeds up the animating line and everything dequeued after
// it. It is a no-op when nothing is queued or animating.
func (s *Scheduler) FastForward() bool {
	if !s.Busy() {
		return false
	}
	s.multiplier = s.opts.FastForward
	return true
}

// Clear discards pending, animating and completed lines. Only for a full
// session reset.
func (s *Scheduler) Clear() {
	s.pending = nil
	s.active = nil
	s.completed = nil
	s.multiplier = 1
	s.carry = 0
	s.lastFlushedID = ""
	s.flushed = make(map[string]struct{})
	s.version++
}

// Busy reports whether anything is pending or animating.
func (s *Scheduler) Busy() bool {
	return s.active != nil || len(s.pending) > 0
}

// Multiplier is the current speed multiplier.
func (s *Scheduler) Multiplier() float64 { return s.multiplier }

// Version increases on every queue change.
func (s *Scheduler) Version() uint64 { return s.version }

// Steps is the number of reveal steps performed so far.
func (s *Scheduler) Steps() int { return s.steps }

// Pending is the number of queued items not yet animating.
func (s *Scheduler) Pending() int { return len(s.pending) }

// Snapshot returns a copy of the renderable state.
func (s *Scheduler) Snapshot() Snapshot {
	snap := Snapshot{Completed: make([]domain.Line, len(s.completed))}
	copy(snap.Completed, s.completed)
	if t := s.active; t != nil {
		snap.Typing = &TypingState{
			ID:          t.line.ID,
			Kind:        t.line.Kind,
			FullText:    t.line.PlainText(),
			VisibleText: t.visibleText(),
			Speed:       t.speed,
			Segments:    t.line.Segments,
		}
	}
	return snap
}

func splitGraphemes(s string) []string {
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
