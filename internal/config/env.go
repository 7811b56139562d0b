// Package config provides centralized configuration management.
// Environment variables are read once; a YAML file may override them and
// CLI flags override both.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// TermfolioEnv holds all termfolio environment variables.
type TermfolioEnv struct {
	// APIBase is the portfolio API origin (TERMFOLIO_API_BASE)
	APIBase string

	// HTTPTimeout bounds every module fetch (TERMFOLIO_HTTP_TIMEOUT)
	HTTPTimeout time.Duration

	// NoStream disables the typewriter animation (TERMFOLIO_NO_STREAM)
	NoStream bool

	// BaseRate is the reveal speed in characters per second (TERMFOLIO_BASE_RATE)
	BaseRate float64

	// LogFile receives structured logs while the TUI owns the screen (TERMFOLIO_LOG_FILE)
	LogFile string

	// LogLevel is the minimum log level (TERMFOLIO_LOG_LEVEL)
	LogLevel string

	// MetricsPort serves /metrics when non-zero (TERMFOLIO_METRICS_PORT)
	MetricsPort int

	// ConfigFile is an optional YAML overlay (TERMFOLIO_CONFIG)
	ConfigFile string

	// Theme is the initial theme name (TERMFOLIO_THEME)
	Theme string
}

var (
	env     *TermfolioEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *TermfolioEnv {
	envOnce.Do(func() {
		env = &TermfolioEnv{
			APIBase:     getEnvDefault("TERMFOLIO_API_BASE", "http://localhost:3000"),
			HTTPTimeout: getEnvDuration("TERMFOLIO_HTTP_TIMEOUT", 8*time.Second),
			NoStream:    os.Getenv("TERMFOLIO_NO_STREAM") == "1",
			BaseRate:    getEnvFloat("TERMFOLIO_BASE_RATE", 60),
			LogFile:     getEnvDefault("TERMFOLIO_LOG_FILE", Path("termfolio.log")),
			LogLevel:    getEnvDefault("TERMFOLIO_LOG_LEVEL", "info"),
			MetricsPort: getEnvInt("TERMFOLIO_METRICS_PORT", 0),
			ConfigFile:  getEnvDefault("TERMFOLIO_CONFIG", Path("config.yaml")),
			Theme:       getEnvDefault("TERMFOLIO_THEME", "dark"),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// Paths holds standard termfolio directory paths.
type Paths struct {
	// Home is the termfolio home directory (~/.termfolio)
	Home string

	// Config is the default YAML overlay (~/.termfolio/config.yaml)
	Config string

	// Log is the default log file (~/.termfolio/termfolio.log)
	Log string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		tfHome := filepath.Join(home, ".termfolio")

		paths = &Paths{
			Home:   tfHome,
			Config: filepath.Join(tfHome, "config.yaml"),
			Log:    filepath.Join(tfHome, "termfolio.log"),
		}
	})
	return paths
}

// Path returns a path under the termfolio home directory.
// Equivalent to filepath.Join(~/.termfolio, parts...)
func Path(parts ...string) string {
	p := GetPaths()
	allParts := append([]string{p.Home}, parts...)
	return filepath.Join(allParts...)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
