/*
Package config loads framework configuration from YAML.

	supervisor:
	  entry: main
	  max_iterations: 10
	  terminal_response_types: [question, completed, error]
	services: [kb_service]
	session:
	  backend: redis
	  addr: localhost:6379
	  prefix: "support:session:"
	  ttl: 24h
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML durations given either as Go duration strings
// ("24h", "90s") or as raw nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SupervisorConfig tunes the decision engine and turn loop.
type SupervisorConfig struct {
	Entry                 string   `yaml:"entry"`
	MaxIterations         int      `yaml:"max_iterations"`
	TerminalResponseTypes []string `yaml:"terminal_response_types"`
}

// SessionConfig selects and tunes the session backend.
type SessionConfig struct {
	Backend  string   `yaml:"backend"` // "memory" (default) or "redis"
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix"`
	TTL      Duration `yaml:"ttl"`
}

// Config is the framework-wide configuration.
type Config struct {
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Services   []string         `yaml:"services"`
	Session    SessionConfig    `yaml:"session"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Supervisor: SupervisorConfig{
			Entry:                 "main",
			MaxIterations:         10,
			TerminalResponseTypes: []string{"question", "completed", "error"},
		},
		Session: SessionConfig{Backend: "memory"},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Supervisor.MaxIterations <= 0 {
		return Config{}, fmt.Errorf("supervisor.max_iterations must be positive")
	}
	switch cfg.Session.Backend {
	case "", "memory", "redis":
	default:
		return Config{}, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	return cfg, nil
}
