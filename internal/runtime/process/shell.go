package process

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/aki/runpad/internal/runtime"
)

// DefaultShell is the executable used when none is configured.
const DefaultShell = "bash"

// stateQueryTimeout bounds the quick commands a state query executes.
const stateQueryTimeout = 5 * time.Second

// Shell is the persistent shell specialization. Its primary state is
// environment variables (tracked by scanning submitted commands, advisory
// only) and the working directory (queried live via pwd).
type Shell struct {
	*session

	stateMu sync.Mutex
	env     map[string]string
}

// NewShell creates a shell session. The child process is not spawned until
// the first call.
func NewShell(opts Options) *Shell {
	if opts.Executable == "" {
		opts.Executable = DefaultShell
	}
	sh := &Shell{env: make(map[string]string)}
	sh.session = newSession(runtime.LanguageShell, sh, opts)
	return sh
}

// Run executes one shell command. Syntax is validated up front: an
// unterminated quote or heredoc would swallow the sentinel echoes and wedge
// the session, so incomplete input is rejected as a command failure.
func (s *Shell) Run(ctx context.Context, command string, timeout time.Duration) (runtime.Output, error) {
	if strings.TrimSpace(command) == "" {
		return runtime.Output{}, runtime.ErrInvalidCommand
	}
	if err := validateShellInput(command); err != nil {
		return runtime.Output{
			Stderr: err.Error(),
			Err:    fmt.Sprintf("invalid shell input: %v", err),
		}, nil
	}

	out, err := s.session.Run(ctx, command, timeout)
	if err == nil {
		s.trackAssignments(command)
	}
	return out, err
}

// State returns the shell's tracked environment and the live working
// directory. The working directory is queried by executing pwd; if the
// process is not running no query is made and the spawn directory is
// reported.
func (s *Shell) State(ctx context.Context) runtime.State {
	st := runtime.State{
		EnvVars:    s.envSnapshot(),
		WorkingDir: s.opts.WorkingDir,
		Functions:  []string{},
		Imports:    []string{},
	}

	if s.Alive() {
		if out, err := s.session.Run(ctx, "pwd", stateQueryTimeout); err == nil && out.Err == "" {
			if dir := strings.TrimSpace(out.Stdout); dir != "" {
				st.WorkingDir = dir
			}
		}
	}
	if st.WorkingDir == "" {
		st.WorkingDir, _ = os.Getwd()
	}
	return st
}

// Reset terminates the child and clears the tracked environment. The next
// call spawns a fresh process.
func (s *Shell) Reset(ctx context.Context) {
	s.Terminate(ctx)
	s.stateMu.Lock()
	s.env = make(map[string]string)
	s.stateMu.Unlock()
}

func (s *Shell) envSnapshot() map[string]string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	env := make(map[string]string, len(s.env))
	for k, v := range s.env {
		env[k] = v
	}
	return env
}

func (s *Shell) trackAssignments(command string) {
	assigns := scanShellAssignments(command)
	if len(assigns) == 0 {
		return
	}
	s.stateMu.Lock()
	for k, v := range assigns {
		s.env[k] = v
	}
	s.stateMu.Unlock()
}

// dialect implementation

func (s *Shell) spawnArgs() ([]string, []string) {
	// Interactive so the shell keeps reading after a foreground command is
	// interrupted; prompts are silenced through the environment.
	return []string{"--norc", "--noprofile", "-i"}, []string{"PS1=", "PS2="}
}

func (s *Shell) setup() string {
	return ""
}

// payload appends the exit-status echo and the completion sentinel. $? is
// read by the first printf, so it reflects the submitted command.
func (s *Shell) payload(command, token, exitTag string) string {
	var b strings.Builder
	b.WriteString(command)
	if !strings.HasSuffix(command, "\n") {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "printf '%%s%%d\\n' %q \"$?\"\n", exitTag)
	fmt.Fprintf(&b, "printf '%%s\\n' %q\n", token)
	return b.String()
}

func (s *Shell) exitCommand() string {
	return "exit"
}

func (s *Shell) exitCodeFromDeath() bool {
	// An explicit `exit N` kills the shell; the process exit status is that
	// command's result.
	return true
}

// validateShellInput parses the command without executing it. Incomplete
// input is reported distinctly from plain syntax errors.
func validateShellInput(command string) error {
	parser := syntax.NewParser()
	_, err := parser.Parse(strings.NewReader(command), "")
	if err == nil {
		return nil
	}
	if syntax.IsIncomplete(err) {
		return fmt.Errorf("incomplete shell input: %v", err)
	}
	return err
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
