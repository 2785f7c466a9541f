package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. SCAPE_LOG_LEVEL.
const EnvPrefix = "SCAPE"

// DefaultConfigDir is ~/.config/scape.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "scape"), nil
}

// DefaultConfigPath is ~/.config/scape/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadResult carries the loaded config and the file it came from, if any.
type LoadResult struct {
	Config *Config
	File   string
}

// Load reads the config from the standard location. A missing file is not an
// error.
func Load() (*LoadResult, error) {
	return LoadFromPath("")
}

// LoadFromPath reads the config from path, or from the standard location
// when path is empty. Environment variables override file values.
func LoadFromPath(path string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if file := v.ConfigFileUsed(); file != "" {
		env, err := readEnv(file)
		if err != nil {
			return nil, err
		}
		if env != nil {
			cfg.Env = env
		}
	}
	cfg.Script = expandHome(cfg.Script)
	cfg.Socket = expandHome(cfg.Socket)
	cfg.Tracing.FilePath = expandHome(cfg.Tracing.FilePath)
	if cfg.Env == nil {
		cfg.Env = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, File: v.ConfigFileUsed()}, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("script", d.Script)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("default_space", d.DefaultSpace)
	v.SetDefault("gap", d.Gap)
	v.SetDefault("default_keymaps", d.DefaultKeymaps)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("callback_timeout", d.CallbackTimeout)
	v.SetDefault("queue_size", d.QueueSize)
	v.SetDefault("socket", d.Socket)
	v.SetDefault("env", d.Env)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
}

// readEnv re-reads the env section with its original key case; viper folds
// keys to lower case.
func readEnv(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var raw struct {
		Env map[string]string `yaml:"env"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode env: %w", err)
	}
	return raw.Env, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
