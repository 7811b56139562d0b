// Package headless runs commands without a full-screen UI. Every line is
// printed as soon as it is flushed; there is no animation.
package headless

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/joss/termfolio/internal/config"
	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/logging"
	"github.com/joss/termfolio/internal/metrics"
	"github.com/joss/termfolio/internal/render"
	"github.com/joss/termfolio/internal/session"
	"github.com/joss/termfolio/internal/viewer"
)

// Options configures a headless run.
type Options struct {
	Config  config.Config
	Loader  dispatch.Loader
	Out     io.Writer
	HTTP    dispatch.Doer
	Metrics *metrics.Metrics

	// Viewer defaults to printing targets to Out.
	Viewer viewer.Viewer

	Pretty bool // color and kind markers
	Echo   bool // print the "> input" lines
	Quiet  bool // skip the boot banner
}

// Result summarizes a run.
type Result struct {
	SessionID string
	Lines     int
	Errors    int
	Quit      bool
}

// Run submits commands in order, waiting for each one to settle before the
// next. It stops early on a quit command or when ctx is done.
func Run(ctx context.Context, opts Options, commands []string) (Result, error) {
	cfg := opts.Config
	cfg.NoStream = true

	w := render.NewWriter(opts.Out)
	r := render.New(opts.Pretty)
	v := opts.Viewer
	if v == nil {
		v = viewer.NewPrinter(opts.Out)
	}

	var res Result
	sess := session.New(session.Options{
		Config:  cfg,
		Loader:  opts.Loader,
		Viewer:  v,
		HTTP:    opts.HTTP,
		Metrics: opts.Metrics,
		OnFlush: func(l domain.Line) {
			if l.Kind == domain.KindUser && !opts.Echo {
				return
			}
			res.Lines++
			if l.Kind == domain.KindError {
				res.Errors++
			}
			r.Print(w, l)
		},
	})
	res.SessionID = sess.ID()
	log := logging.New("headless").WithSession(sess.ID())
	log.Info("run_start", map[string]interface{}{"commands": len(commands)})

	if !opts.Quiet {
		sess.Boot(ctx)
	}
	for _, c := range commands {
		if err := sess.Settle(ctx); err != nil {
			return res, fmt.Errorf("waiting before %q: %w", c, err)
		}
		sess.Submit(ctx, c)
		if sess.Quit() {
			res.Quit = true
			break
		}
	}
	err := sess.Settle(ctx)
	sess.Skip()
	log.Info("run_done", map[string]interface{}{"lines": res.Lines, "errors": res.Errors})
	if err != nil {
		return res, fmt.Errorf("waiting for output: %w", err)
	}
	return res, nil
}

// ReadCommands reads one command per line. Blank lines and lines starting
// with '#' are skipped.
func ReadCommands(r io.Reader) ([]string, error) {
	var cmds []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmds = append(cmds, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return cmds, nil
}
