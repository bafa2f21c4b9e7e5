package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the persisted runpad configuration.
type Config struct {
	Version string        `yaml:"version"`
	Runtime RuntimeConfig `yaml:"runtime"`
	MCP     MCPConfig     `yaml:"mcp"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RuntimeConfig carries the session engine knobs.
type RuntimeConfig struct {
	// Shell and Interpreter are the child executables
	Shell       string `yaml:"shell"`
	Interpreter string `yaml:"interpreter"`
	// DefaultTimeout bounds calls that carry no timeout of their own
	DefaultTimeout Duration `yaml:"defaultTimeout"`
	// IdleTimeout and WatchdogInterval drive session self-termination
	IdleTimeout      Duration `yaml:"idleTimeout"`
	WatchdogInterval Duration `yaml:"watchdogInterval"`
	// MaxHistory bounds the per-session command history
	MaxHistory int `yaml:"maxHistory"`
	// WorkspaceRoot hosts one working directory per workspace id; empty
	// means sessions run in the engine's own working directory
	WorkspaceRoot string `yaml:"workspaceRoot"`
}

// MCPConfig represents MCP server configuration.
type MCPConfig struct {
	Transport TransportConfig `yaml:"transport"`
}

// TransportConfig represents MCP transport configuration.
type TransportConfig struct {
	Type string     `yaml:"type"`
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig represents HTTP transport configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// MetricsConfig represents the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// Duration is a time.Duration that round-trips through YAML in the
// "30s" / "5m" form.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library form.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the default runpad configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Runtime: RuntimeConfig{
			Shell:            "bash",
			Interpreter:      "python3",
			DefaultTimeout:   Duration(30 * time.Second),
			IdleTimeout:      Duration(30 * time.Minute),
			WatchdogInterval: Duration(5 * time.Second),
			MaxHistory:       100,
		},
		MCP: MCPConfig{
			Transport: TransportConfig{
				Type: TransportStdio,
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}
