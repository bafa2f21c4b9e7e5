// Package config provides configuration management for runpad.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// RunpadDir is the directory name for runpad metadata
	RunpadDir = ".runpad"
	// ConfigFile is the filename for the runpad configuration
	ConfigFile = "config.yaml"
)

// Manager handles the runpad configuration file under a project root.
type Manager struct {
	projectRoot string
	configPath  string
}

// NewManager creates a configuration manager rooted at projectRoot.
func NewManager(projectRoot string) *Manager {
	return &Manager{
		projectRoot: projectRoot,
		configPath:  filepath.Join(projectRoot, RunpadDir, ConfigFile),
	}
}

// Load reads the configuration from disk. A missing file yields the
// defaults rather than an error, so `runpad serve` works out of the box.
func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to disk.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// IsInitialized checks whether a configuration file exists.
func (m *Manager) IsInitialized() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// GetProjectRoot returns the project root directory.
func (m *Manager) GetProjectRoot() string {
	return m.projectRoot
}

// GetRunpadDir returns the .runpad directory path.
func (m *Manager) GetRunpadDir() string {
	return filepath.Join(m.projectRoot, RunpadDir)
}

// GetWorkspacesDir returns the default workspace root.
func (m *Manager) GetWorkspacesDir() string {
	return filepath.Join(m.projectRoot, RunpadDir, "workspaces")
}

// GetConfigPath returns the configuration file path.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// FindProjectRoot searches upward from the working directory for a .runpad
// directory. Falling back to the working directory itself keeps runpad
// usable without an init step.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, RunpadDir, ConfigFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return cwd, nil
}

// applyDefaults fills zero values with the package defaults after a load.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Runtime.Shell == "" {
		cfg.Runtime.Shell = def.Runtime.Shell
	}
	if cfg.Runtime.Interpreter == "" {
		cfg.Runtime.Interpreter = def.Runtime.Interpreter
	}
	if cfg.Runtime.DefaultTimeout <= 0 {
		cfg.Runtime.DefaultTimeout = def.Runtime.DefaultTimeout
	}
	if cfg.Runtime.IdleTimeout <= 0 {
		cfg.Runtime.IdleTimeout = def.Runtime.IdleTimeout
	}
	if cfg.Runtime.WatchdogInterval <= 0 {
		cfg.Runtime.WatchdogInterval = def.Runtime.WatchdogInterval
	}
	if cfg.Runtime.MaxHistory <= 0 {
		cfg.Runtime.MaxHistory = def.Runtime.MaxHistory
	}
	if cfg.MCP.Transport.Type == "" {
		cfg.MCP.Transport.Type = def.MCP.Transport.Type
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = def.Metrics.Addr
	}
}
