package process

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aki/runpad/internal/runtime"
)

// DefaultInterpreter is the executable used when none is configured.
const DefaultInterpreter = "python3"

// Interpreter is the persistent interpreter specialization. Its primary
// state is the set of imported module names, extracted by a textual scan of
// each submitted snippet. This is best-effort bookkeeping, not interpreter
// introspection: a conditional or aliased import is still recorded, a
// dynamic one is missed.
type Interpreter struct {
	*session

	stateMu sync.Mutex
	imports map[string]struct{}
}

// NewInterpreter creates an interpreter session. The child process is not
// spawned until the first call.
func NewInterpreter(opts Options) *Interpreter {
	if opts.Executable == "" {
		opts.Executable = DefaultInterpreter
	}
	in := &Interpreter{imports: make(map[string]struct{})}
	in.session = newSession(runtime.LanguageInterpreter, in, opts)
	return in
}

// Run executes one snippet. Exceptions surface on stderr as tracebacks and
// are expected command-level failures; exit codes are never populated.
func (in *Interpreter) Run(ctx context.Context, code string, timeout time.Duration) (runtime.Output, error) {
	if strings.TrimSpace(code) == "" {
		return runtime.Output{}, runtime.ErrInvalidCommand
	}

	out, err := in.session.Run(ctx, code, timeout)
	if err == nil {
		in.trackImports(code)
	}
	return out, err
}

// State returns the tracked imports and the working directory, queried on
// demand by executing code rather than cached.
func (in *Interpreter) State(ctx context.Context) runtime.State {
	st := runtime.State{
		EnvVars:    map[string]string{},
		WorkingDir: in.opts.WorkingDir,
		Functions:  []string{},
		Imports:    in.importSnapshot(),
	}

	if in.Alive() {
		if out, err := in.session.Run(ctx, "import os; print(os.getcwd())", stateQueryTimeout); err == nil && out.Err == "" {
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

// Reset terminates the child and clears the tracked imports.
func (in *Interpreter) Reset(ctx context.Context) {
	in.Terminate(ctx)
	in.stateMu.Lock()
	in.imports = make(map[string]struct{})
	in.stateMu.Unlock()
}

func (in *Interpreter) importSnapshot() []string {
	in.stateMu.Lock()
	defer in.stateMu.Unlock()
	return sortedKeys(in.imports)
}

func (in *Interpreter) trackImports(code string) {
	mods := scanPythonImports(code)
	if len(mods) == 0 {
		return
	}
	in.stateMu.Lock()
	for _, m := range mods {
		in.imports[m] = struct{}{}
	}
	in.stateMu.Unlock()
}

// dialect implementation

func (in *Interpreter) spawnArgs() ([]string, []string) {
	// -i keeps the REPL reading from the pipe, -q drops the banner, -u
	// disables output buffering so chunks arrive as they are printed.
	return []string{"-i", "-q", "-u"}, nil
}

// setup silences the >>> and ... prompts the interactive interpreter writes
// to stderr before every read.
func (in *Interpreter) setup() string {
	return "import sys; sys.ps1 = ''; sys.ps2 = ''\n"
}

// payload terminates any open block with a blank line, then prints the
// completion sentinel as a top-level statement. The sentinel print runs even
// when the snippet raised: the traceback goes to stderr and the REPL moves
// on to the next statement.
func (in *Interpreter) payload(code, token, exitTag string) string {
	var b strings.Builder
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString("print(" + pyQuote(token) + ")\n")
	return b.String()
}

func (in *Interpreter) exitCommand() string {
	return "exit()"
}

func (in *Interpreter) exitCodeFromDeath() bool {
	return false
}

// pyQuote wraps a sentinel token in a Python string literal. Tokens are
// alphanumeric plus underscores, so plain single quotes are sufficient.
func pyQuote(s string) string {
	return "'" + s + "'"
}
