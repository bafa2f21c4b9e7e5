package config

import (
	"github.com/aki/runpad/internal/session"
)

// SessionConfig converts the runtime section into the session package's
// construction config.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		ShellPath:        c.Runtime.Shell,
		InterpreterPath:  c.Runtime.Interpreter,
		DefaultTimeout:   c.Runtime.DefaultTimeout.Std(),
		IdleTimeout:      c.Runtime.IdleTimeout.Std(),
		WatchdogInterval: c.Runtime.WatchdogInterval.Std(),
		MaxHistory:       c.Runtime.MaxHistory,
		WorkspaceRoot:    c.Runtime.WorkspaceRoot,
	}
}
