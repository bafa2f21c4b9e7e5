package config

import (
	"fmt"
)

// Transport types supported by the MCP server.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ValidateConfig validates the entire configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateRuntime(&cfg.Runtime); err != nil {
		return fmt.Errorf("invalid runtime configuration: %w", err)
	}
	if err := validateTransport(&cfg.MCP.Transport); err != nil {
		return fmt.Errorf("invalid mcp configuration: %w", err)
	}

	return nil
}

func validateRuntime(rt *RuntimeConfig) error {
	if rt.Shell == "" {
		return fmt.Errorf("shell is required")
	}
	if rt.Interpreter == "" {
		return fmt.Errorf("interpreter is required")
	}
	if rt.DefaultTimeout <= 0 {
		return fmt.Errorf("defaultTimeout must be positive")
	}
	if rt.IdleTimeout <= 0 {
		return fmt.Errorf("idleTimeout must be positive")
	}
	if rt.IdleTimeout.Std() < rt.WatchdogInterval.Std() {
		return fmt.Errorf("idleTimeout must be at least the watchdog interval")
	}
	return nil
}

func validateTransport(tr *TransportConfig) error {
	switch tr.Type {
	case TransportStdio:
		return nil
	case TransportHTTP:
		if tr.HTTP.Port <= 0 || tr.HTTP.Port > 65535 {
			return fmt.Errorf("http transport requires a valid port, got %d", tr.HTTP.Port)
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s", tr.Type)
	}
}
