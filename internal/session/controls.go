package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/sanitize"
)

const historyShown = 20

func muted(text string) domain.LineSpec {
	return domain.LineSpec{Kind: domain.KindMuted, Text: text, Instant: true}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func validTheme(name string) bool {
	for _, t := range dispatch.Themes {
		if t == name {
			return true
		}
	}
	return false
}

func nextTheme(current string) string {
	for i, t := range dispatch.Themes {
		if t == current {
			return dispatch.Themes[(i+1)%len(dispatch.Themes)]
		}
	}
	return dispatch.Themes[0]
}

// control applies a control token. Control tokens are local and
// synchronous.
func (s *Session) control(ctx context.Context, tok dispatch.Token) {
	switch tok.Control {
	case dispatch.ControlSkip:
		s.sched.Skip()
		s.SetLastInteraction("skipped")
	case dispatch.ControlFastForward:
		if s.sched.FastForward() {
			s.SetLastInteraction(fmt.Sprintf("fast-forward %gx", s.sched.Multiplier()))
		}
	case dispatch.ControlTheme:
		s.theme(tok.Arg)
	case dispatch.ControlMotion:
		s.prefs.ReducedMotion = !s.prefs.ReducedMotion
		s.AppendResponse(domain.Respond(muted("reduced motion " + onOff(s.prefs.ReducedMotion))))
		s.SetLastInteraction("motion: " + onOff(s.prefs.ReducedMotion))
	case dispatch.ControlStream:
		s.prefs.Streaming = !s.prefs.Streaming
		if !s.prefs.Streaming {
			s.sched.Skip()
		}
		s.AppendResponse(domain.Respond(muted("streaming " + onOff(s.prefs.Streaming))))
		s.SetLastInteraction("streaming: " + onOff(s.prefs.Streaming))
	case dispatch.ControlHelp:
		s.help()
	case dispatch.ControlMenu:
		s.menu(ctx)
	case dispatch.ControlAdmin:
		s.open("admin", s.cfg.AdminURL)
	case dispatch.ControlOnePager:
		s.open("onepager", s.cfg.OnePagerURL)
	case dispatch.ControlClear:
		s.sched.Clear()
		s.SetLastInteraction("cleared")
	case dispatch.ControlHistory:
		s.listHistory()
	case dispatch.ControlStatus:
		s.status()
	case dispatch.ControlQuit:
		s.quit = true
		s.AppendResponse(domain.Respond(muted("bye.")))
		s.SetLastInteraction("quit")
	}
}

func (s *Session) theme(arg string) {
	name := arg
	if name == "" {
		name = nextTheme(s.prefs.Theme)
	}
	if !validTheme(name) {
		s.AppendResponse(domain.Respond(
			domain.LineSpec{Kind: domain.KindError, Text: "unknown theme: " + name, Instant: true},
			muted("available: "+strings.Join(dispatch.Themes, ", ")),
		))
		s.SetLastInteraction("theme: unknown")
		return
	}
	s.prefs.Theme = name
	s.AppendResponse(domain.Respond(muted("theme " + name)))
	s.SetLastInteraction("theme: " + name)
}

func (s *Session) help() {
	lines := []domain.LineSpec{domain.Text(domain.KindAccent, "commands")}
	for _, row := range dispatch.Help() {
		lines = append(lines, domain.Segmented(domain.KindOutput,
			domain.Segment{Text: row[0], Kind: domain.KindAccent},
			domain.Segment{Text: " " + row[1], Kind: domain.KindMuted},
		))
	}
	s.AppendResponse(domain.Respond(lines...))
	s.SetLastInteraction("help")
}

// menu lists the numbered sections. Before the registry is ready it
// starts loading and says so.
func (s *Session) menu(ctx context.Context) {
	switch s.disp.State() {
	case dispatch.StateLoaded:
	case dispatch.StateFailed:
		s.AppendResponse(domain.Respond(domain.LineSpec{
			Kind: domain.KindError, Text: "command modules failed to load", Instant: true,
		}))
		s.SetLastInteraction("modules: failed")
		return
	default:
		s.disp.Load(ctx)
		s.AppendResponse(domain.Respond(muted("initializing command modules...")))
		s.SetLastInteraction("initializing")
		return
	}

	lines := []domain.LineSpec{domain.Text(domain.KindAccent, "sections")}
	for _, m := range s.disp.Modules() {
		title := m.Title
		if title == "" {
			title = m.Name
		}
		lines = append(lines, domain.Segmented(domain.KindOutput,
			domain.Segment{Text: fmt.Sprintf("%d", m.ID), Kind: domain.KindAccent},
			domain.Segment{Text: " " + title, Kind: domain.KindOutput},
		))
	}
	s.AppendResponse(domain.Respond(lines...))
	s.SetLastInteraction("menu")
}

// open hands a configured page to the viewer after its line is enqueued.
func (s *Session) open(name, target string) {
	if !sanitize.Href(target) {
		s.log.Warn("open_blocked", map[string]interface{}{"target": target}, nil)
		s.AppendResponse(domain.Respond(
			domain.LineSpec{Kind: domain.KindError, Text: "[error] " + name + " unavailable", Instant: true},
			muted("link target not allowed"),
		))
		s.SetLastInteraction(name + ": failed")
		return
	}
	url := s.resolve(target)
	resp := domain.Respond(muted("opening " + name + "..."))
	resp.SideEffect = func() {
		if err := s.viewer.Open(url); err != nil {
			s.log.Warn("open_failed", map[string]interface{}{"target": url}, err)
			s.AppendResponse(domain.Respond(
				domain.LineSpec{Kind: domain.KindError, Text: "[error] " + name + " unavailable", Instant: true},
				muted(err.Error()),
			))
			s.SetLastInteraction(name + ": failed")
		}
	}
	s.AppendResponse(resp)
	s.SetLastInteraction(name)
}

func (s *Session) resolve(target string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return strings.TrimRight(s.cfg.APIBase, "/") + target
	}
	return target
}

func (s *Session) listHistory() {
	entries := s.history.Entries()
	start := 0
	if len(entries) > historyShown {
		start = len(entries) - historyShown
	}
	lines := []domain.LineSpec{domain.Text(domain.KindAccent, "history")}
	for i := start; i < len(entries); i++ {
		lines = append(lines, domain.Segmented(domain.KindOutput,
			domain.Segment{Text: fmt.Sprintf("%d", i+1), Kind: domain.KindMuted},
			domain.Segment{Text: " " + entries[i], Kind: domain.KindOutput},
		))
	}
	s.AppendResponse(domain.Respond(lines...))
	s.SetLastInteraction("history")
}

func (s *Session) status() {
	st := s.Status()
	motion := "full"
	if st.Prefs.ReducedMotion {
		motion = "reduced"
	}
	rows := [][2]string{
		{"session", st.SessionID},
		{"registry", st.Registry.String()},
		{"streaming", onOff(st.Prefs.Streaming)},
		{"theme", st.Prefs.Theme},
		{"motion", motion},
		{"commands", fmt.Sprintf("%d", st.Submitted)},
		{"dropped", fmt.Sprintf("%d", st.Dropped)},
	}
	lines := []domain.LineSpec{domain.Text(domain.KindAccent, "status")}
	for _, r := range rows {
		lines = append(lines, domain.Segmented(domain.KindOutput,
			domain.Segment{Text: r[0], Kind: domain.KindMuted},
			domain.Segment{Text: " " + r[1], Kind: domain.KindOutput},
		))
	}
	s.AppendResponse(domain.Respond(lines...))
	s.SetLastInteraction("status")
}
