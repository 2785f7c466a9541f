package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by the backend key.
const (
	BackendX11      = "x11"
	BackendHeadless = "headless"
)

// LogConfig controls the daemon logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // auto, text, json
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Exporter    string  `mapstructure:"exporter" yaml:"exporter"` // none, stdout, file
	FilePath    string  `mapstructure:"file_path" yaml:"file_path"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Config is the daemon configuration. The user script owns policy; this only
// covers how the daemon itself runs.
type Config struct {
	Script          string            `mapstructure:"script" yaml:"script"`
	Watch           bool              `mapstructure:"watch" yaml:"watch"`
	DefaultSpace    string            `mapstructure:"default_space" yaml:"default_space"`
	Gap             int               `mapstructure:"gap" yaml:"gap"`
	DefaultKeymaps  bool              `mapstructure:"default_keymaps" yaml:"default_keymaps"`
	Backend         string            `mapstructure:"backend" yaml:"backend"`
	PollInterval    time.Duration     `mapstructure:"poll_interval" yaml:"poll_interval"`
	CallbackTimeout time.Duration     `mapstructure:"callback_timeout" yaml:"callback_timeout"` // 0 = no watchdog
	QueueSize       int               `mapstructure:"queue_size" yaml:"queue_size"`
	Socket          string            `mapstructure:"socket" yaml:"socket"`
	Env             map[string]string `mapstructure:"env" yaml:"env"`
	Log             LogConfig         `mapstructure:"log" yaml:"log"`
	Tracing         TracingConfig     `mapstructure:"tracing" yaml:"tracing"`
}

// ValidationError points at the offending key.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	script := "init.lua"
	if dir, err := DefaultConfigDir(); err == nil {
		script = filepath.Join(dir, "init.lua")
	}
	return &Config{
		Script:         script,
		Watch:          true,
		DefaultSpace:   "main",
		DefaultKeymaps: true,
		Backend:        BackendX11,
		PollInterval:   500 * time.Millisecond,
		QueueSize:      256,
		Env:            map[string]string{},
		Log:            LogConfig{Level: "info", Format: "auto"},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "scape",
			SampleRate:  1.0,
		},
	}
}

// Validate checks the values the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Script) == "" {
		return &ValidationError{Path: "script", Err: fmt.Errorf("script is required")}
	}
	if strings.TrimSpace(c.DefaultSpace) == "" {
		return &ValidationError{Path: "default_space", Err: fmt.Errorf("default_space must not be empty")}
	}
	if c.Gap < 0 {
		return &ValidationError{Path: "gap", Err: fmt.Errorf("gap must be >= 0")}
	}
	switch c.Backend {
	case BackendX11, BackendHeadless:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: x11, headless")}
	}
	if c.PollInterval <= 0 {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be > 0")}
	}
	if c.CallbackTimeout < 0 {
		return &ValidationError{Path: "callback_timeout", Err: fmt.Errorf("callback_timeout must be >= 0")}
	}
	if c.QueueSize <= 0 {
		return &ValidationError{Path: "queue_size", Err: fmt.Errorf("queue_size must be > 0")}
	}
	for name := range c.Env {
		if strings.TrimSpace(name) == "" || strings.Contains(name, "=") {
			return &ValidationError{Path: "env", Err: fmt.Errorf("invalid variable name %q", name)}
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("log.level must be one of: debug, info, warn, error")}
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return &ValidationError{Path: "log.format", Err: fmt.Errorf("log.format must be one of: auto, text, json")}
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "none", "stdout":
		case "file":
			if c.Tracing.FilePath == "" {
				return &ValidationError{Path: "tracing.file_path", Err: fmt.Errorf("file_path is required for the file exporter")}
			}
		default:
			return &ValidationError{Path: "tracing.exporter", Err: fmt.Errorf("tracing.exporter must be one of: none, stdout, file")}
		}
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return &ValidationError{Path: "tracing.sample_rate", Err: fmt.Errorf("sample_rate must be between 0 and 1")}
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path unless a file
// already exists there.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := DefaultConfig().YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
