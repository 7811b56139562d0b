package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML overlay. Every field is optional.
type File struct {
	APIBase     string            `yaml:"api_base"`
	HTTPTimeout string            `yaml:"http_timeout"`
	BaseRate    float64           `yaml:"base_rate"`
	NoStream    *bool             `yaml:"no_stream"`
	Theme       string            `yaml:"theme"`
	LogLevel    string            `yaml:"log_level"`
	BootMessage []string          `yaml:"boot_message"`
	AdminURL    string            `yaml:"admin_url"`
	OnePagerURL string            `yaml:"onepager_url"`
	Endpoints   map[string]string `yaml:"endpoints"`
}

// Config is the resolved runtime configuration.
type Config struct {
	APIBase     string
	HTTPTimeout time.Duration
	BaseRate    float64
	NoStream    bool
	Theme       string
	LogFile     string
	LogLevel    string
	MetricsPort int
	BootMessage []string
	AdminURL    string
	OnePagerURL string

	// Endpoints overrides the path of a module by name, e.g. "bio": "/api/about".
	Endpoints map[string]string
}

// DefaultBootMessage is shown once per session.
var DefaultBootMessage = []string{
	"termfolio v1 ready.",
	"type /help for commands, or a number from the menu.",
}

// FromEnv builds a Config from the environment alone.
func FromEnv() Config {
	e := Env()
	return Config{
		APIBase:     e.APIBase,
		HTTPTimeout: e.HTTPTimeout,
		BaseRate:    e.BaseRate,
		NoStream:    e.NoStream,
		Theme:       e.Theme,
		LogFile:     e.LogFile,
		LogLevel:    e.LogLevel,
		MetricsPort: e.MetricsPort,
		BootMessage: DefaultBootMessage,
		AdminURL:    "/admin",
		OnePagerURL: "/onepager",
		Endpoints:   map[string]string{},
	}
}

// Load resolves the environment and overlays the YAML file at path.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.apply(f); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) apply(f File) error {
	if f.APIBase != "" {
		c.APIBase = f.APIBase
	}
	if f.HTTPTimeout != "" {
		d, err := time.ParseDuration(f.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
		c.HTTPTimeout = d
	}
	if f.BaseRate > 0 {
		c.BaseRate = f.BaseRate
	}
	if f.NoStream != nil {
		c.NoStream = *f.NoStream
	}
	if f.Theme != "" {
		c.Theme = f.Theme
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if len(f.BootMessage) > 0 {
		c.BootMessage = f.BootMessage
	}
	if f.AdminURL != "" {
		c.AdminURL = f.AdminURL
	}
	if f.OnePagerURL != "" {
		c.OnePagerURL = f.OnePagerURL
	}
	for name, path := range f.Endpoints {
		c.Endpoints[name] = path
	}
	return nil
}
