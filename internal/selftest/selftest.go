package selftest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"github.com/joss/termfolio/internal/viewer"
)

// Environment describes the local runtime.
type Environment struct {
	HasTTY     bool
	Opener     string // command used to open links
	OpenerPath string // empty when not on PATH
	Clipboard  bool
	ConfigFile string
	ConfigSeen bool
	APIBase    string
	Warnings   []string
	Errors     []string
}

// Detect inspects the local setup a session depends on, including the config
// file. It does not touch the network.
func Detect(apiBase, configFile string) *Environment {
	e := &Environment{
		HasTTY:     term.IsTerminal(int(os.Stdout.Fd())),
		Opener:     viewer.Opener(),
		Clipboard:  viewer.ClipboardSupported(),
		ConfigFile: configFile,
		APIBase:    apiBase,
	}
	if path, err := exec.LookPath(e.Opener); err == nil {
		e.OpenerPath = path
	}
	if configFile != "" {
		_, err := os.Stat(configFile)
		switch {
		case err == nil:
			e.ConfigSeen = true
		case !errors.Is(err, fs.ErrNotExist):
			e.Errors = append(e.Errors, fmt.Sprintf("config %s: %v", configFile, err))
		}
	}
	e.evaluate()
	return e
}

func (e *Environment) evaluate() {
	if e.APIBase == "" {
		e.Errors = append(e.Errors, "no API base configured")
	}
	if e.OpenerPath == "" {
		e.Warnings = append(e.Warnings, fmt.Sprintf("%s not found, links will only be printed", e.Opener))
	}
	if !e.Clipboard {
		e.Warnings = append(e.Warnings, "no clipboard utility, copy actions will fail")
	}
	if !e.HasTTY {
		e.Warnings = append(e.Warnings, "stdout is not a terminal, headless mode will be used")
	}
}

// IsHealthy returns true if termfolio can run here.
func (e *Environment) IsHealthy() bool {
	return len(e.Errors) == 0
}

// Summary returns a human-readable report.
func (e *Environment) Summary() string {
	var sb strings.Builder

	sb.WriteString("TERMFOLIO ENVIRONMENT CHECK\n")
	sb.WriteString(strings.Repeat("─", 40) + "\n")

	ttyStatus := "No (headless mode will be used)"
	if e.HasTTY {
		ttyStatus = "Yes (interactive mode available)"
	}
	sb.WriteString(fmt.Sprintf("TTY:          %s\n", ttyStatus))
	sb.WriteString(fmt.Sprintf("API:          %s\n", e.APIBase))

	opener := "NOT FOUND"
	if e.OpenerPath != "" {
		opener = e.OpenerPath
	}
	sb.WriteString(fmt.Sprintf("Opener:       %s\n", opener))

	clip := "Unsupported"
	if e.Clipboard {
		clip = "OK"
	}
	sb.WriteString(fmt.Sprintf("Clipboard:    %s\n", clip))

	if e.ConfigFile != "" {
		cfg := "not found (defaults)"
		if e.ConfigSeen {
			cfg = "loaded"
		}
		sb.WriteString(fmt.Sprintf("Config:       %s %s\n", e.ConfigFile, cfg))
	}

	if len(e.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range e.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", w))
		}
	}

	if len(e.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, err := range e.Errors {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", err))
		}
	}

	sb.WriteString("\n")
	if e.IsHealthy() {
		sb.WriteString("Status: HEALTHY\n")
	} else {
		sb.WriteString("Status: UNHEALTHY - fix errors above\n")
	}

	return sb.String()
}

// QuickCheck returns a one-line status suitable for non-verbose output.
func (e *Environment) QuickCheck() string {
	if !e.IsHealthy() {
		return fmt.Sprintf("Environment unhealthy: %s", strings.Join(e.Errors, "; "))
	}

	mode := "headless"
	if e.HasTTY {
		mode = "interactive"
	}
	links := "links:print"
	if e.OpenerPath != "" {
		links = "links:open"
	}
	clip := "clipboard:off"
	if e.Clipboard {
		clip = "clipboard:on"
	}
	return fmt.Sprintf("mode:%s %s %s", mode, links, clip)
}
