// Package selftest checks that the portfolio API and the local helpers
// termfolio relies on are reachable.
package selftest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// SlowThreshold marks a passing probe as degraded.
const SlowThreshold = 500 * time.Millisecond

// ComponentStatus represents health of a single component
type ComponentStatus struct {
	Status  string `json:"status"` // ok, degraded, error
	Latency int64  `json:"latency_ms,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus represents overall health
type HealthStatus struct {
	Status     string                     `json:"status"` // healthy, degraded, unhealthy
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentStatus `json:"components"`
	LastError  string                     `json:"last_error,omitempty"`
	Timestamp  string                     `json:"timestamp"`
}

// Names returns the component names in sorted order.
func (h *HealthStatus) Names() []string {
	names := make([]string, 0, len(h.Components))
	for name := range h.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check is one named health probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) ComponentStatus
}

// Probe builds a check from fn. A nil error is "ok", or "degraded" when it
// took longer than SlowThreshold.
func Probe(name string, fn func(ctx context.Context) error) Check {
	return Check{
		Name: name,
		Run: func(ctx context.Context) ComponentStatus {
			start := time.Now()
			err := fn(ctx)
			elapsed := time.Since(start)
			if err != nil {
				return ComponentStatus{
					Status:  "error",
					Latency: elapsed.Milliseconds(),
					Error:   err.Error(),
				}
			}
			status := "ok"
			if elapsed > SlowThreshold {
				status = "degraded"
			}
			return ComponentStatus{Status: status, Latency: elapsed.Milliseconds()}
		},
	}
}

var (
	startTime = time.Now()
	lastError string
	errorMu   sync.RWMutex
)

// SetLastError records the most recent error for health reporting
func SetLastError(err error) {
	if err == nil {
		return
	}
	errorMu.Lock()
	defer errorMu.Unlock()
	lastError = err.Error()
}

// GetLastError returns the most recent error
func GetLastError() string {
	errorMu.RLock()
	defer errorMu.RUnlock()
	return lastError
}

// ClearLastError clears the last error
func ClearLastError() {
	errorMu.Lock()
	defer errorMu.Unlock()
	lastError = ""
}

// CheckHealth runs every check concurrently.
func CheckHealth(ctx context.Context, checks []Check) *HealthStatus {
	status := &HealthStatus{
		Status:     "healthy",
		Uptime:     formatUptime(time.Since(startTime)),
		Components: make(map[string]ComponentStatus, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, c := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			result := run(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			status.Components[c.Name] = result
			if result.Status == "error" {
				status.Status = "unhealthy"
			} else if result.Status == "degraded" && status.Status == "healthy" {
				status.Status = "degraded"
			}
		}(c)
	}

	wg.Wait()

	if le := GetLastError(); le != "" {
		status.LastError = le
	}

	return status
}

// run turns a panicking check into an error status.
func run(ctx context.Context, c Check) (result ComponentStatus) {
	defer func() {
		if r := recover(); r != nil {
			result = ComponentStatus{Status: "error", Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return c.Run(ctx)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd%dh%dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// HealthHandler serves the result of checks as JSON.
func HealthHandler(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		status := CheckHealth(ctx, checks)

		w.Header().Set("Content-Type", "application/json")

		switch status.Status {
		case "healthy", "degraded":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(status)
	}
}

// QuickHealthHandler returns a simple liveness check
func QuickHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
