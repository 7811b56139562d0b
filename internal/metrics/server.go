// Package metrics provides a simple Prometheus-compatible metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds runtime counters for a termfolio process
type Metrics struct {
	// Input
	Commands        atomic.Int64
	ControlTokens   atomic.Int64
	UnknownCommands atomic.Int64

	// Numbered modules
	ModuleRuns     atomic.Int64
	ModuleFailures atomic.Int64

	// Registry
	RegistryLoads    atomic.Int64
	RegistryFailures atomic.Int64

	// Output
	LinesFlushed atomic.Int64
	LinesDropped atomic.Int64

	// Timing (last operation duration in ms)
	LastModuleDurationMs atomic.Int64

	startTime time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the global metrics instance
func Global() *Metrics {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New returns a fresh, unshared metrics instance.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordCommand records a submitted command; control marks control tokens
func (m *Metrics) RecordCommand(control bool) {
	m.Commands.Add(1)
	if control {
		m.ControlTokens.Add(1)
	}
}

// RecordUnknown records input that matched nothing
func (m *Metrics) RecordUnknown() {
	m.UnknownCommands.Add(1)
}

// RecordModule records a module run
func (m *Metrics) RecordModule(success bool, durationMs int64) {
	m.ModuleRuns.Add(1)
	if !success {
		m.ModuleFailures.Add(1)
	}
	m.LastModuleDurationMs.Store(durationMs)
}

// RecordRegistryLoad records a registry load attempt
func (m *Metrics) RecordRegistryLoad(success bool) {
	m.RegistryLoads.Add(1)
	if !success {
		m.RegistryFailures.Add(1)
	}
}

// RecordLines records lines flushed to output and lines dropped by the sanitizer
func (m *Metrics) RecordLines(flushed, dropped int) {
	m.LinesFlushed.Add(int64(flushed))
	m.LinesDropped.Add(int64(dropped))
}

type metric struct {
	name  string
	help  string
	kind  string
	value func(*Metrics) int64
}

var exported = []metric{
	{"termfolio_commands_total", "Total submitted commands", "counter", func(m *Metrics) int64 { return m.Commands.Load() }},
	{"termfolio_control_tokens_total", "Commands handled as control tokens", "counter", func(m *Metrics) int64 { return m.ControlTokens.Load() }},
	{"termfolio_unknown_commands_total", "Commands that matched nothing", "counter", func(m *Metrics) int64 { return m.UnknownCommands.Load() }},
	{"termfolio_module_runs_total", "Total numbered module runs", "counter", func(m *Metrics) int64 { return m.ModuleRuns.Load() }},
	{"termfolio_module_failures_total", "Numbered module runs that failed", "counter", func(m *Metrics) int64 { return m.ModuleFailures.Load() }},
	{"termfolio_registry_loads_total", "Command registry load attempts", "counter", func(m *Metrics) int64 { return m.RegistryLoads.Load() }},
	{"termfolio_registry_failures_total", "Command registry load failures", "counter", func(m *Metrics) int64 { return m.RegistryFailures.Load() }},
	{"termfolio_lines_flushed_total", "Lines moved to completed output", "counter", func(m *Metrics) int64 { return m.LinesFlushed.Load() }},
	{"termfolio_lines_dropped_total", "Lines dropped by the sanitizer", "counter", func(m *Metrics) int64 { return m.LinesDropped.Load() }},
	{"termfolio_last_module_duration_ms", "Last module run duration", "gauge", func(m *Metrics) int64 { return m.LastModuleDurationMs.Load() }},
}

// Handler returns an HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		uptime := time.Since(m.startTime).Seconds()

		fmt.Fprintf(w, "# HELP termfolio_uptime_seconds Time since termfolio started\n")
		fmt.Fprintf(w, "# TYPE termfolio_uptime_seconds gauge\n")
		fmt.Fprintf(w, "termfolio_uptime_seconds %.2f\n", uptime)

		for _, e := range exported {
			fmt.Fprintf(w, "\n# HELP %s %s\n", e.name, e.help)
			fmt.Fprintf(w, "# TYPE %s %s\n", e.name, e.kind)
			fmt.Fprintf(w, "%s %d\n", e.name, e.value(m))
		}
	}
}

// Server wraps the metrics HTTP server
type Server struct {
	srv *http.Server
	mux *http.ServeMux
}

// NewServer creates a metrics server on the given port
func NewServer(port int, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.Handler())
	mux.HandleFunc("/health", healthHandler)

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		mux: mux,
	}
}

// Handle mounts an extra handler. Call before Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Start starts the metrics server in background. errs receives the
// listener error, if any; it may be nil.
func (s *Server) Start(errs func(error)) {
	go func() {
		err := s.srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) && errs != nil {
			errs(err)
		}
	}()
}

// Stop gracefully shuts down the metrics server
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
