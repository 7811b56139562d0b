// Package session is the engine's controller. It owns the typewriter
// scheduler, the dispatcher and the input history, and is the only place
// handler output is sanitized and enqueued.
//
// A Session is driven from one loop. Handlers run on goroutines and reach
// the session only through its mailbox, which the host drains on that loop.
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joss/termfolio/internal/config"
	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/logging"
	"github.com/joss/termfolio/internal/metrics"
	"github.com/joss/termfolio/internal/sanitize"
	"github.com/joss/termfolio/internal/typewriter"
	"github.com/joss/termfolio/internal/viewer"
)

// Options configures a Session.
type Options struct {
	Config  config.Config
	Loader  dispatch.Loader
	Viewer  viewer.Viewer
	HTTP    dispatch.Doer
	Metrics *metrics.Metrics

	// OnFlush observes every line entering completed output.
	OnFlush func(domain.Line)
}

// Prefs are the user-facing toggles.
type Prefs struct {
	Streaming     bool
	Theme         string
	ReducedMotion bool
}

// Status is a read-only summary for status bars and /status.
type Status struct {
	SessionID       string
	LastInteraction string
	Registry        dispatch.State
	Busy            bool
	Pending         int
	Multiplier      float64
	Submitted       int
	Dropped         int
	Prefs           Prefs
}

// Session holds the state of one terminal session.
type Session struct {
	id      string
	cfg     config.Config
	sched   *typewriter.Scheduler
	disp    *dispatch.Dispatcher
	history *History
	mail    *mailbox
	viewer  viewer.Viewer
	metrics *metrics.Metrics
	log     *logging.Logger

	input           string
	lastInteraction string
	prefs           Prefs
	booted          bool
	quit            bool
	submitted       int
	dropped         int
}

// New creates a session. Nothing is enqueued until Boot or Submit.
func New(opts Options) *Session {
	m := opts.Metrics
	if m == nil {
		m = metrics.Global()
	}
	cfg := opts.Config
	theme := cfg.Theme
	if !validTheme(theme) {
		theme = dispatch.Themes[0]
	}
	v := opts.Viewer
	if v == nil {
		v = viewer.NewSystem()
	}
	doer := opts.HTTP
	if doer == nil {
		doer = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	s := &Session{
		id:      uuid.New().String(),
		cfg:     cfg,
		history: NewHistory(),
		mail:    newMailbox(),
		viewer:  v,
		metrics: m,
		prefs: Prefs{
			Streaming: !cfg.NoStream,
			Theme:     theme,
		},
		lastInteraction: "ready",
	}
	s.log = logging.New("session").WithSession(s.id)

	onFlush := opts.OnFlush
	s.sched = typewriter.New(typewriter.Options{
		BaseRate: cfg.BaseRate,
		OnFlush: func(l domain.Line) {
			m.RecordLines(1, 0)
			if onFlush != nil {
				onFlush(l)
			}
		},
	})

	s.disp = dispatch.New(dispatch.Options{
		Loader: opts.Loader,
		Deps: dispatch.Deps{
			AppendResponse: func(r domain.CommandResponse) {
				s.mail.post(func() { s.AppendResponse(r) })
			},
			SetLastInteraction: func(label string) {
				s.mail.post(func() { s.SetLastInteraction(label) })
			},
			FlushTyping: func() { s.mail.post(s.sched.Skip) },
			Viewer:      v,
			HTTP:        doer,
		},
		Sink: dispatch.Sink{
			AppendResponse:     s.AppendResponse,
			SetLastInteraction: s.SetLastInteraction,
		},
		Post:    s.mail.post,
		Metrics: m,
	})
	return s
}

// ID is the session's unique id.
func (s *Session) ID() string { return s.id }

// Boot enqueues the boot banner and starts loading the command registry.
// Only the first call in a session's lifetime does anything.
func (s *Session) Boot(ctx context.Context) bool {
	if s.booted {
		return false
	}
	s.booted = true
	msg := s.cfg.BootMessage
	if len(msg) == 0 {
		msg = config.DefaultBootMessage
	}
	lines := make([]domain.LineSpec, len(msg))
	for i, text := range msg {
		lines[i] = domain.Text(domain.KindSystem, text)
	}
	s.AppendResponse(domain.Respond(lines...))
	s.disp.Load(ctx)
	s.log.Info("boot", map[string]interface{}{"streaming": s.prefs.Streaming})
	return true
}

// SetInput replaces the input buffer.
func (s *Session) SetInput(text string) { s.input = text }

// Input is the current input buffer.
func (s *Session) Input() string { return s.input }

// HistoryUp recalls the previous submission into the input buffer.
func (s *Session) HistoryUp() bool {
	entry, ok := s.history.Prev(s.input)
	if ok {
		s.input = entry
	}
	return ok
}

// HistoryDown moves toward live input, restoring what was typed before
// recall started.
func (s *Session) HistoryDown() bool {
	entry, ok := s.history.Next()
	if ok {
		s.input = entry
	}
	return ok
}

// History is the list of submissions, oldest first.
func (s *Session) History() []string { return s.history.Entries() }

// Submit handles one line of user input. Blank input is ignored. The raw
// text is echoed, then control tokens are tried before numbered commands.
// Numbered commands run asynchronously; Submit never waits for them.
func (s *Session) Submit(ctx context.Context, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	s.history.Add(raw)
	s.input = ""
	s.submitted++
	s.echo(raw)

	normalized := dispatch.Normalize(raw)
	if tok, ok := dispatch.ParseControl(normalized); ok {
		s.metrics.RecordCommand(true)
		logging.CommandEvent(s.id, raw, "control:"+tok.Control.String())
		s.control(ctx, tok)
		return
	}
	s.metrics.RecordCommand(false)

	if id, ok := dispatch.ParseNumeric(normalized); ok {
		logging.CommandEvent(s.id, raw, "numeric")
		s.disp.Run(ctx, id)
		return
	}

	logging.CommandEvent(s.id, raw, "unknown")
	s.metrics.RecordUnknown()
	s.AppendResponse(domain.Respond(
		domain.LineSpec{Kind: domain.KindError, Text: "unknown command: " + strings.TrimSpace(raw), Instant: true},
		domain.LineSpec{Kind: domain.KindMuted, Text: "type /help for commands", Instant: true},
	))
	s.SetLastInteraction("unknown command")
}

// echo enqueues the submitted text as typed. It does not go through the
// sanitizer, which would rewrite spacing and separators.
func (s *Session) echo(raw string) {
	s.sched.Enqueue(domain.QueueItem{
		Line:    domain.Line{ID: domain.NewID(), Kind: domain.KindUser, Text: "> " + raw},
		Instant: true,
	})
}

// AppendResponse sanitizes every line, drops the ones that clean to
// nothing, enqueues the rest and then runs the side effect. With
// streaming off or reduced motion on, lines are enqueued as instant.
func (s *Session) AppendResponse(resp domain.CommandResponse) {
	items := make([]domain.QueueItem, 0, len(resp.Lines))
	dropped := 0
	for _, spec := range resp.Lines {
		clean, ok := sanitize.Line(spec)
		if !ok {
			dropped++
			continue
		}
		items = append(items, domain.QueueItem{
			Line: domain.Line{
				ID:       domain.NewID(),
				Kind:     clean.Kind,
				Text:     clean.Text,
				Segments: clean.Segments,
			},
			Speed:   clean.Speed,
			Instant: clean.Instant || s.instant(),
		})
	}
	if dropped > 0 {
		s.dropped += dropped
		s.metrics.RecordLines(0, dropped)
		s.log.Debug("lines_dropped", map[string]interface{}{"count": dropped})
	}
	s.sched.Enqueue(items...)
	if resp.SideEffect != nil {
		resp.SideEffect()
	}
}

func (s *Session) instant() bool {
	return !s.prefs.Streaming || s.prefs.ReducedMotion
}

// SetLastInteraction records the latest status label.
func (s *Session) SetLastInteraction(label string) { s.lastInteraction = label }

// Mailbox signals that posted work is waiting. The host receives from it
// and then calls DrainMailbox on its loop.
func (s *Session) Mailbox() <-chan struct{} { return s.mail.notify }

// Apply posts fn to run on the owner loop. Safe from any goroutine.
func (s *Session) Apply(fn func()) { s.mail.post(fn) }

// DrainMailbox runs everything posted so far, in order, and returns how
// many callbacks ran. Work posted while draining runs in the same call.
func (s *Session) DrainMailbox() int {
	n := 0
	for {
		batch := s.mail.take()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// Settled reports that the registry is not loading, no handler is running
// and nothing is waiting in the mailbox.
func (s *Session) Settled() bool {
	return s.disp.State() != dispatch.StateLoading &&
		s.disp.Running() == 0 &&
		s.mail.len() == 0
}

// Settle drains the mailbox until the session is settled. It is for hosts
// without an event loop of their own.
func (s *Session) Settle(ctx context.Context) error {
	for {
		s.DrainMailbox()
		if s.Settled() {
			return nil
		}
		select {
		case <-s.mail.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick advances the typewriter by elapsed wall time.
func (s *Session) Tick(elapsed time.Duration) bool { return s.sched.Tick(elapsed) }

// Interval is the typewriter's step interval.
func (s *Session) Interval() time.Duration { return s.sched.Interval() }

// Skip flushes everything queued.
func (s *Session) Skip() { s.sched.Skip() }

// FastForward speeds up the queued output.
func (s *Session) FastForward() bool { return s.sched.FastForward() }

// Busy reports whether the typewriter still has work.
func (s *Session) Busy() bool { return s.sched.Busy() }

// Snapshot is the renderable state.
func (s *Session) Snapshot() typewriter.Snapshot { return s.sched.Snapshot() }

// Prefs returns the current toggles.
func (s *Session) Prefs() Prefs { return s.prefs }

// Quit reports whether the user asked to leave.
func (s *Session) Quit() bool { return s.quit }

// Registry is the command registry state.
func (s *Session) Registry() dispatch.State { return s.disp.State() }

// Status summarizes the session.
func (s *Session) Status() Status {
	return Status{
		SessionID:       s.id,
		LastInteraction: s.lastInteraction,
		Registry:        s.disp.State(),
		Busy:            s.sched.Busy(),
		Pending:         s.sched.Pending(),
		Multiplier:      s.sched.Multiplier(),
		Submitted:       s.submitted,
		Dropped:         s.dropped,
		Prefs:           s.prefs,
	}
}
