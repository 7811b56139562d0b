// Package tui is the interactive terminal host. It drives a session from
// the Bubble Tea loop: ticks advance the typewriter, a mailbox command
// drains handler output, and the view renders the scheduler snapshot.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/session"
	tfstrings "github.com/joss/termfolio/internal/strings"
)

const (
	headerHeight = 2
	statusHeight = 1
	inputHeight  = 3
)

// Model is the Bubble Tea model. The session is a pointer so every copy of
// the model drives the same engine.
type Model struct {
	ctx  context.Context
	sess *session.Session

	ready    bool
	quitting bool
	lastTick time.Time

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles
	theme    string
	width    int
	height   int
}

type (
	tickMsg    time.Time
	mailboxMsg struct{}
)

// New creates a model for sess.
func New(ctx context.Context, sess *session.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "type a number or /help"
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	theme := sess.Prefs().Theme
	return Model{
		ctx:     ctx,
		sess:    sess,
		input:   ti,
		spinner: sp,
		styles:  NewStyles(theme),
		theme:   theme,
	}
}

// Init boots the session and starts the tick and mailbox loops.
func (m Model) Init() tea.Cmd {
	m.sess.Boot(m.ctx)
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		tickCmd(m.sess.Interval()),
		waitMailbox(m.sess),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tickMsg:
		now := time.Time(msg)
		elapsed := m.sess.Interval()
		if !m.lastTick.IsZero() {
			elapsed = now.Sub(m.lastTick)
		}
		m.lastTick = now
		if m.sess.Tick(elapsed) {
			m.refresh()
		}
		return m, tickCmd(m.sess.Interval())

	case mailboxMsg:
		if m.sess.DrainMailbox() > 0 {
			m.refresh()
		}
		return m, waitMailbox(m.sess)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		raw := m.input.Value()
		m.sess.SetInput(raw)
		m.sess.Submit(m.ctx, raw)
		m.input.SetValue(m.sess.Input())
		m.refresh()
		if m.sess.Quit() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case "up":
		m.sess.SetInput(m.input.Value())
		if m.sess.HistoryUp() {
			m.input.SetValue(m.sess.Input())
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if m.sess.HistoryDown() {
			m.input.SetValue(m.sess.Input())
			m.input.CursorEnd()
		}
		return m, nil

	case "esc":
		m.sess.Skip()
		m.refresh()
		return m, nil

	case "ctrl+f":
		m.sess.FastForward()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - headerHeight - statusHeight - inputHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 6
	m.refresh()
	return m
}

// refresh re-renders the scheduler snapshot into the viewport, picking up
// theme changes made through control tokens.
func (m *Model) refresh() {
	if theme := m.sess.Prefs().Theme; theme != m.theme {
		m.theme = theme
		m.styles = NewStyles(theme)
	}
	if !m.ready {
		return
	}
	cursor := !m.sess.Prefs().ReducedMotion
	m.viewport.SetContent(renderSnapshot(m.styles, m.sess.Snapshot(), m.viewport.Width, cursor))
	m.viewport.GotoBottom()
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "bye.\n"
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s starting...", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("termfolio") + "\n\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.renderStatus() + "\n")
	b.WriteString(m.styles.Input.Width(m.width - 4).Render(m.input.View()))
	return b.String()
}

func (m Model) renderStatus() string {
	st := m.sess.Status()
	var parts []string
	if st.Registry == dispatch.StateLoading && !st.Prefs.ReducedMotion {
		parts = append(parts, m.spinner.View()+"loading")
	}
	parts = append(parts, st.LastInteraction)
	if st.Multiplier > 1 {
		parts = append(parts, fmt.Sprintf("%gx", st.Multiplier))
	}
	if !st.Prefs.Streaming {
		parts = append(parts, "no-stream")
	}
	parts = append(parts, st.Prefs.Theme, "esc: skip │ ctrl+f: faster │ ctrl+c: quit")
	line := strings.Join(parts, " │ ")
	if m.width > 0 {
		line = tfstrings.TruncateRunes(line, m.width-2)
	}
	return m.styles.Status.Render(line)
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitMailbox blocks until handler output is posted to the session.
func waitMailbox(s *session.Session) tea.Cmd {
	ch := s.Mailbox()
	return func() tea.Msg {
		<-ch
		return mailboxMsg{}
	}
}

// Run starts the TUI on the alternate screen and blocks until it exits.
func Run(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(New(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
