// Package session provides the workspace-scoped runtime session facade and
// the process-wide session manager. A session presents one scratchpad
// spanning shell and interpreter execution, with shared history and one
// idle-timeout lifecycle.
package session

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aki/runpad/internal/logger"
	"github.com/aki/runpad/internal/metrics"
	"github.com/aki/runpad/internal/runtime"
	"github.com/aki/runpad/internal/runtime/process"
	"github.com/aki/runpad/internal/workspace"
)

const (
	// DefaultIdleTimeout is how long a session may sit unused before the
	// watchdog terminates it
	DefaultIdleTimeout = 30 * time.Minute
	// DefaultWatchdogInterval is how often idleness is checked
	DefaultWatchdogInterval = 5 * time.Second
	// stateHistoryLimit is how many entries a state query includes
	stateHistoryLimit = 20
)

// Config carries the construction-time knobs of a session. Zero values fall
// back to package defaults.
type Config struct {
	// ShellPath and InterpreterPath override the child executables
	ShellPath       string
	InterpreterPath string
	// DefaultTimeout bounds calls that carry no timeout of their own
	DefaultTimeout time.Duration
	// IdleTimeout and WatchdogInterval drive self-termination
	IdleTimeout      time.Duration
	WatchdogInterval time.Duration
	// MaxHistory bounds the command history ring
	MaxHistory int
	// WorkspaceRoot, when set, hosts one working directory per workspace id
	WorkspaceRoot string
}

func (c *Config) applyDefaults() {
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = process.DefaultTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = DefaultWatchdogInterval
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = DefaultMaxHistory
	}
}

// Info is a snapshot of a session's identity and liveness, used by the CLI
// and the tool layer.
type Info struct {
	WorkspaceID  string    `json:"workspace_id"`
	WorkingDir   string    `json:"working_dir"`
	GitRoot      string    `json:"git_root,omitempty"`
	GitBranch    string    `json:"git_branch,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Terminated   bool      `json:"terminated"`
}

// Session is the runtime session facade for one workspace. It lazily owns a
// shell and an interpreter process session, a bounded history, and an idle
// watchdog. Operations on a terminated session fail with
// runtime.ErrSessionTerminated.
type Session struct {
	workspaceID string
	workingDir  string
	gitRoot     string
	gitBranch   string
	createdAt   time.Time

	cfg     Config
	log     logger.Logger
	metrics *metrics.Collector

	mu           sync.Mutex
	shell        *process.Shell
	interp       *process.Interpreter
	history      *history
	lastActivity time.Time
	terminated   bool

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a session for the resolved workspace (an empty Dir means the
// engine's own working directory) and starts its idle watchdog.
func New(ws workspace.Info, cfg Config, log logger.Logger, collector *metrics.Collector) *Session {
	cfg.applyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	now := time.Now()
	s := &Session{
		workspaceID:  ws.ID,
		workingDir:   ws.Dir,
		gitRoot:      ws.GitRoot,
		gitBranch:    ws.GitBranch,
		createdAt:    now,
		cfg:          cfg,
		log:          log.With("workspace", ws.ID),
		metrics:      collector,
		history:      newHistory(cfg.MaxHistory),
		lastActivity: now,
		done:         make(chan struct{}),
	}
	go s.watchdog()
	return s
}

// Done is closed when the session terminates, whether explicitly or by the
// idle watchdog. The manager uses it to drop its registry entry.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Terminated reports whether the session has been torn down.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// Exec routes one command to the process session for its language, spawning
// it lazily, and records the outcome in history. Command-level failures are
// inside the returned Output; only lifecycle misuse and spawn failures
// return errors.
func (s *Session) Exec(ctx context.Context, cmd runtime.Command) (runtime.Output, error) {
	if !cmd.Language.Valid() {
		return runtime.Output{}, runtime.ErrInvalidLanguage
	}

	s.touch()

	started := time.Now()
	var out runtime.Output
	var err error

	switch cmd.Language {
	case runtime.LanguageShell:
		var sh *process.Shell
		sh, err = s.shellSession()
		if err == nil {
			out, err = sh.Run(ctx, cmd.Command, cmd.Timeout)
		}
	case runtime.LanguageInterpreter:
		var in *process.Interpreter
		in, err = s.interpreterSession()
		if err == nil {
			out, err = in.Run(ctx, cmd.Command, cmd.Timeout)
		}
	}

	duration := time.Since(started)
	if err != nil {
		s.metrics.ObserveCommand(string(cmd.Language), metrics.OutcomeFailed, duration)
		return runtime.Output{}, err
	}

	s.record(cmd, out, started, duration)
	s.touch()
	s.metrics.ObserveCommand(string(cmd.Language), outcomeOf(out), duration)
	return out, nil
}

// Eval is the convenience form for interpreter snippets with the session's
// default timeout.
func (s *Session) Eval(ctx context.Context, code string) (runtime.Output, error) {
	return s.Exec(ctx, runtime.Command{
		Command:  code,
		Language: runtime.LanguageInterpreter,
	})
}

// State merges the derived state of whichever process sessions exist. A
// session that has executed nothing yet reports defaults.
func (s *Session) State(ctx context.Context) (runtime.State, error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return runtime.State{}, runtime.ErrSessionTerminated
	}
	sh, in := s.shell, s.interp
	hist := s.history.last(stateHistoryLimit)
	s.mu.Unlock()

	s.touch()

	st := runtime.State{
		EnvVars:    map[string]string{},
		WorkingDir: s.workingDir,
		Functions:  []string{},
		Imports:    []string{},
		History:    hist,
	}

	if sh != nil {
		shellState := sh.State(ctx)
		st.EnvVars = shellState.EnvVars
		st.WorkingDir = shellState.WorkingDir
	}
	if in != nil {
		interpState := in.State(ctx)
		st.Imports = interpState.Imports
		if sh == nil {
			st.WorkingDir = interpState.WorkingDir
		}
	}
	if st.WorkingDir == "" {
		st.WorkingDir, _ = os.Getwd()
	}
	return st, nil
}

// Reset tears down both process sessions (fresh ones spawn on the next
// call), clears tracked state and history, and leaves the session live.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return runtime.ErrSessionTerminated
	}
	sh, in := s.shell, s.interp
	s.history.clear()
	s.mu.Unlock()

	if sh != nil {
		sh.Reset(ctx)
	}
	if in != nil {
		in.Reset(ctx)
	}
	s.touch()
	s.log.Debug("session reset")
	return nil
}

// History returns up to limit entries, most recent last. limit <= 0 returns
// the full ring.
func (s *Session) History(limit int) ([]runtime.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return nil, runtime.ErrSessionTerminated
	}
	return s.history.last(limit), nil
}

// Terminate tears down both process sessions and marks the facade dead. It
// is idempotent and never fails; the Done channel closes exactly once.
func (s *Session) Terminate(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.terminated = true
		sh, in := s.shell, s.interp
		s.shell = nil
		s.interp = nil
		s.mu.Unlock()

		if sh != nil {
			sh.Terminate(ctx)
		}
		if in != nil {
			in.Terminate(ctx)
		}
		close(s.done)
		s.log.Info("session terminated")
	})
}

// Describe returns the session's identity snapshot.
func (s *Session) Describe() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		WorkspaceID:  s.workspaceID,
		WorkingDir:   s.workingDir,
		GitRoot:      s.gitRoot,
		GitBranch:    s.gitBranch,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		Terminated:   s.terminated,
	}
}

func (s *Session) shellSession() (*process.Shell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return nil, runtime.ErrSessionTerminated
	}
	if s.shell == nil {
		s.shell = process.NewShell(process.Options{
			WorkspaceID:    s.workspaceID,
			Executable:     s.cfg.ShellPath,
			WorkingDir:     s.workingDir,
			DefaultTimeout: s.cfg.DefaultTimeout,
			Logger:         s.log,
		})
	}
	return s.shell, nil
}

func (s *Session) interpreterSession() (*process.Interpreter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return nil, runtime.ErrSessionTerminated
	}
	if s.interp == nil {
		s.interp = process.NewInterpreter(process.Options{
			WorkspaceID:    s.workspaceID,
			Executable:     s.cfg.InterpreterPath,
			WorkingDir:     s.workingDir,
			DefaultTimeout: s.cfg.DefaultTimeout,
			Logger:         s.log,
		})
	}
	return s.interp, nil
}

func (s *Session) record(cmd runtime.Command, out runtime.Output, started time.Time, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return
	}
	s.history.append(runtime.HistoryEntry{
		Timestamp:  started.UnixMilli(),
		Command:    cmd.Command,
		Language:   cmd.Language,
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		ExitCode:   out.ExitCode,
		DurationMS: duration.Milliseconds(),
	})
}

// touch refreshes the idle clock. Called on every operation regardless of
// outcome.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// watchdog terminates the session once it has been idle past the configured
// timeout. It exits when the session terminates for any reason.
func (s *Session) watchdog() {
	ticker := time.NewTicker(s.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			idle := time.Since(s.lastActivity)
			terminated := s.terminated
			s.mu.Unlock()
			if terminated {
				return
			}
			if idle >= s.cfg.IdleTimeout {
				s.log.Info("idle timeout reached, terminating session", "idle", idle)
				s.metrics.SessionIdleReaped()
				s.Terminate(context.Background())
				return
			}
		}
	}
}

func outcomeOf(out runtime.Output) string {
	switch {
	case strings.HasPrefix(out.Err, "command timed out"):
		return metrics.OutcomeTimeout
	case out.Err != "":
		return metrics.OutcomeFailed
	case out.ExitCode != nil && *out.ExitCode != 0:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeOK
	}
}
