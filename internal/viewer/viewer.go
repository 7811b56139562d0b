// Package viewer hands link targets to something outside the terminal:
// the desktop browser, the mail client or the clipboard.
package viewer

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"

	"github.com/atotto/clipboard"
)

// Viewer is the external viewer handle given to command handlers.
type Viewer interface {
	// Open shows target (a URL, mailto: link or download) outside the terminal.
	Open(target string) error
	// Copy places text on the clipboard.
	Copy(text string) error
}

// System opens targets with the platform's default handler.
type System struct {
	// lookPath and run are swapped in tests.
	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
}

// NewSystem returns a Viewer backed by the desktop environment.
func NewSystem() *System {
	return &System{
		lookPath: exec.LookPath,
		run: func(name string, args ...string) error {
			_, err := launch(exec.Command(name, args...))
			return err
		},
	}
}

// launch starts cmd and reaps it in the background. The channel receives
// the exit result once the process is gone.
func launch(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	return done, nil
}

// opener returns the command that opens a URL on goos.
func opener(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// Opener is the command this platform opens links with.
func Opener() string {
	name, _ := opener(runtime.GOOS)
	return name
}

// ClipboardSupported reports whether Copy can work on this system.
func ClipboardSupported() bool {
	return !clipboard.Unsupported
}

// Open launches the platform opener without waiting for it.
func (s *System) Open(target string) error {
	name, args := opener(runtime.GOOS)
	if _, err := s.lookPath(name); err != nil {
		return fmt.Errorf("no opener for %s: %w", runtime.GOOS, err)
	}
	if err := s.run(name, append(args, target)...); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	return nil
}

// Copy writes text to the system clipboard.
func (s *System) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard unsupported on %s", runtime.GOOS)
	}
	return clipboard.WriteAll(text)
}

// Printer writes targets to w instead of opening them. Used by the
// headless host where there is no desktop to open things on.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter returns a Viewer that prints to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Open prints the target.
func (p *Printer) Open(target string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "open: %s\n", target)
	return err
}

// Copy prints the text.
func (p *Printer) Copy(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "copy: %s\n", text)
	return err
}

// Recorder remembers every request. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	Opened []string
	Copied []string
	Err    error
}

// Open records target.
func (r *Recorder) Open(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Opened = append(r.Opened, target)
	return r.Err
}

// Copy records text.
func (r *Recorder) Copy(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Copied = append(r.Copied, text)
	return r.Err
}

// Snapshot returns copies of the recorded requests.
func (r *Recorder) Snapshot() (opened, copied []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Opened...), append([]string(nil), r.Copied...)
}
