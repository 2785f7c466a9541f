package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if filepath.Base(cfg.Script) != "init.lua" {
		t.Fatalf("expected default script init.lua, got %q", cfg.Script)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "# empty")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != path {
		t.Fatalf("expected file %q, got %q", path, res.File)
	}
	if res.Config.DefaultSpace != "main" || res.Config.QueueSize != 256 || !res.Config.DefaultKeymaps {
		t.Fatalf("unexpected defaults: %+v", res.Config)
	}
	if res.Config.PollInterval != 500*time.Millisecond {
		t.Fatalf("expected poll_interval 500ms, got %v", res.Config.PollInterval)
	}
}

func TestLoadFromPath_FileValues(t *testing.T) {
	path := writeConfig(t,
		"script: /etc/scape/init.lua",
		"default_space: work",
		"gap: 6",
		"backend: headless",
		"callback_timeout: 2s",
		"env:",
		"  EDITOR: nvim",
		"log:",
		"  level: debug",
		"  format: json",
	)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Script != "/etc/scape/init.lua" || cfg.DefaultSpace != "work" || cfg.Gap != 6 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Backend != BackendHeadless {
		t.Fatalf("expected headless backend, got %q", cfg.Backend)
	}
	if cfg.CallbackTimeout != 2*time.Second {
		t.Fatalf("expected callback_timeout 2s, got %v", cfg.CallbackTimeout)
	}
	if cfg.Env["EDITOR"] != "nvim" {
		t.Fatalf("expected env EDITOR=nvim, got %v", cfg.Env)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "gap: 2")
	t.Setenv("SCAPE_GAP", "8")
	t.Setenv("SCAPE_LOG_LEVEL", "warn")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Gap != 8 {
		t.Fatalf("expected env to override gap, got %d", res.Config.Gap)
	}
	if res.Config.Log.Level != "warn" {
		t.Fatalf("expected env to override log.level, got %q", res.Config.Log.Level)
	}
}

func TestLoadFromPath_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "script: ~/scape/init.lua")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := filepath.Join(home, "scape", "init.lua"); res.Config.Script != want {
		t.Fatalf("expected %q, got %q", want, res.Config.Script)
	}
}

func TestLoadFromPath_MissingExplicitFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	res, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no config file, got %q", res.File)
	}
	if res.Config.Backend != BackendX11 {
		t.Fatalf("expected x11 backend, got %q", res.Config.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"empty script", func(c *Config) { c.Script = " " }, "script"},
		{"empty default space", func(c *Config) { c.DefaultSpace = "" }, "default_space"},
		{"negative gap", func(c *Config) { c.Gap = -1 }, "gap"},
		{"unknown backend", func(c *Config) { c.Backend = "wayland" }, "backend"},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
		{"negative timeout", func(c *Config) { c.CallbackTimeout = -time.Second }, "callback_timeout"},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, "queue_size"},
		{"bad env name", func(c *Config) { c.Env = map[string]string{"A=B": "x"} }, "env"},
		{"bad log level", func(c *Config) { c.Log.Level = "warning" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"file exporter without path", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "file"
		}, "tracing.file_path"},
		{"unknown exporter", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
		}, "tracing.exporter"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestLoadFromPath_InvalidValueRejected(t *testing.T) {
	path := writeConfig(t, "backend: wayland")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "backend" {
		t.Fatalf("expected backend validation error, got %v", err)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Env["EDITOR"] = "nvim"

	data, err := cfg.YAML()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "default_space: main") {
		t.Fatalf("expected snake_case keys, got:\n%s", data)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["tracing"]; !ok {
		t.Fatalf("expected tracing section, got %v", decoded)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	if res.Config.Log.Level != "info" {
		t.Fatalf("expected info level, got %q", res.Config.Log.Level)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatalf("expected error when file exists")
	}
}
