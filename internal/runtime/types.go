// Package runtime defines the shared types of the runpad execution engine:
// commands submitted to a persistent runtime session, the structured output
// returned for every command, and the derived session state.
package runtime

import "time"

// Language identifies which persistent process a command is routed to.
type Language string

const (
	// LanguageShell routes a command to the persistent shell process
	LanguageShell Language = "shell"
	// LanguageInterpreter routes code to the persistent interpreter process
	LanguageInterpreter Language = "interpreter"
)

// Valid reports whether the language is one of the supported values.
func (l Language) Valid() bool {
	return l == LanguageShell || l == LanguageInterpreter
}

// Command is a single request to execute in a runtime session. Transient;
// never persisted.
type Command struct {
	Command  string
	Language Language
	// Timeout bounds this call only. Zero means the session default.
	Timeout time.Duration
}

// Output is the structured result of one command. Command-level failures
// (non-zero exit, interpreter exceptions, timeouts) are reported here, never
// as Go errors.
type Output struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	// ExitCode is set only for shell commands when it could be determined.
	// Absent for interpreter calls and for calls that timed out.
	ExitCode *int `json:"exit_code,omitempty"`
	// Err describes a command-level failure such as a timeout.
	Err string `json:"error,omitempty"`
}

// HistoryEntry records one executed command in a session's bounded history.
type HistoryEntry struct {
	// Timestamp is epoch milliseconds at command submission.
	Timestamp int64    `json:"timestamp"`
	Command   string   `json:"command"`
	Language  Language `json:"language"`
	Stdout    string   `json:"stdout"`
	Stderr    string   `json:"stderr"`
	ExitCode  *int     `json:"exit_code,omitempty"`
	// DurationMS is wall-clock execution time in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// State is the derived view of a runtime session, recomputed on every query.
// Env and import tracking is advisory: it comes from textual scanning of the
// submitted commands, not from true process introspection.
type State struct {
	EnvVars    map[string]string `json:"env_vars"`
	WorkingDir string            `json:"working_dir"`
	// Functions is reserved; always empty today.
	Functions []string       `json:"functions"`
	Imports   []string       `json:"imports"`
	History   []HistoryEntry `json:"history"`
}
