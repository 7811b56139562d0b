// Package logging provides structured JSON logging for termfolio components.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	l := Level(s)
	if _, ok := levelRank[l]; ok {
		return l
	}
	return LevelInfo
}

// Event represents a structured log event
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	Session   string                 `json:"session,omitempty"`
	Trace     string                 `json:"trace,omitempty"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

var (
	outMu    sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = LevelInfo
)

// SetOutput redirects every logger. The TUI points this at a file so log
// lines never land on the alternate screen.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = io.Discard
	}
	out = w
}

// SetLevel drops events below l.
func SetLevel(l Level) {
	outMu.Lock()
	defer outMu.Unlock()
	minLevel = ParseLevel(string(l))
}

func emit(e Event) {
	outMu.Lock()
	defer outMu.Unlock()
	if levelRank[e.Level] < levelRank[minLevel] {
		return
	}
	data, _ := json.Marshal(e)
	fmt.Fprintln(out, string(data))
}

// Logger provides structured logging
type Logger struct {
	component string
	session   string
	trace     string
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithSession sets the session context
func (l *Logger) WithSession(session string) *Logger {
	return &Logger{
		component: l.component,
		session:   session,
		trace:     l.trace,
	}
}

// WithContext picks up the trace id stored on ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	id := GetTraceID(ctx)
	if id == "" || id == l.trace {
		return l
	}
	return &Logger{
		component: l.component,
		session:   l.session,
		trace:     id,
	}
}

func (l *Logger) event(level Level, event string, extra map[string]interface{}, err error) Event {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		Session:   l.session,
		Trace:     l.trace,
		Extra:     extra,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	emit(l.event(LevelDebug, event, extra, nil))
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	emit(l.event(LevelInfo, event, extra, nil))
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	emit(l.event(LevelWarn, event, extra, err))
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	emit(l.event(LevelError, event, extra, err))
}

// TimedEvent logs an event with duration. A non-nil err raises it to error.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}, err error) {
	level := LevelInfo
	if err != nil {
		level = LevelError
	}
	e := l.event(level, event, extra, err)
	e.Duration = time.Since(start).Milliseconds()
	emit(e)
}

// CommandEvent logs a submitted command and how it was routed.
func CommandEvent(session, input, route string) {
	emit(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: "session",
		Event:     "command",
		Session:   session,
		Extra: map[string]interface{}{
			"input_len": len(input),
			"route":     route,
		},
	})
}

// RegistryEvent logs the outcome of loading the command registry.
func RegistryEvent(modules int, duration time.Duration, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: "dispatch",
		Event:     "registry_loaded",
		Duration:  duration.Milliseconds(),
		Extra: map[string]interface{}{
			"modules": modules,
		},
	}
	if err != nil {
		e.Level = LevelError
		e.Event = "registry_failed"
		e.Error = err.Error()
	}
	emit(e)
}
