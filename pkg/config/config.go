package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDBPath is where a host keeps its volume database
	DefaultDBPath = "/var/lib/burrow/volumes.db"
)

// Config holds the burrow host configuration
type Config struct {
	DBPath string `yaml:"db_path"`
	Log    Log    `yaml:"log"`
	Retry  Retry  `yaml:"retry"`
}

// Log configures the global logger
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Retry bounds the database lock-retry discipline
type Retry struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Backoff     Duration `yaml:"backoff"`
	MaxBackoff  Duration `yaml:"max_backoff"`
}

// Duration wraps time.Duration so YAML values read as "250ms" or "2s"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DBPath: DefaultDBPath,
		Log: Log{
			Level: "info",
		},
		Retry: Retry{
			MaxAttempts: 50,
			Backoff:     Duration(5 * time.Millisecond),
			MaxBackoff:  Duration(100 * time.Millisecond),
		},
	}
}

// Load reads a YAML configuration file over the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("config %s: db_path must not be empty", path)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("config %s: retry.max_attempts must be at least 1", path)
	}
	return cfg, nil
}
