// Package process implements the persistent process sessions that back a
// runtime session: one long-lived interactive child per language, a
// sentinel-based completion protocol over its stdout, soft per-call timeouts
// that keep the process alive, and an explicit spawn/respawn/terminate
// lifecycle.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aki/runpad/internal/logger"
	"github.com/aki/runpad/internal/runtime"
)

const (
	// DefaultTimeout bounds a single call when the caller does not set one
	DefaultTimeout = 30 * time.Second
	// DefaultExitGrace is how long Terminate waits after the graceful exit command
	DefaultExitGrace = 2 * time.Second
	// DefaultKillGrace is how long Terminate waits after SIGTERM before SIGKILL
	DefaultKillGrace = 1 * time.Second

	// interruptByte is the Ctrl-C byte written to the child's stdin on a
	// call timeout. It only matters for line-disciplined inputs; the real
	// abort comes from the SIGINT sent to the process group alongside it.
	interruptByte = 0x03

	readChunkSize = 4096
)

// Options configures a persistent process session.
type Options struct {
	// WorkspaceID is used for logging only
	WorkspaceID string
	// Executable overrides the language's default binary
	Executable string
	// WorkingDir is the directory the child is spawned in
	WorkingDir string
	// DefaultTimeout bounds calls that carry no timeout of their own
	DefaultTimeout time.Duration
	// ExitGrace and KillGrace tune the Terminate escalation
	ExitGrace time.Duration
	KillGrace time.Duration
	Logger    logger.Logger
}

func (o *Options) applyDefaults() {
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = DefaultTimeout
	}
	if o.ExitGrace <= 0 {
		o.ExitGrace = DefaultExitGrace
	}
	if o.KillGrace <= 0 {
		o.KillGrace = DefaultKillGrace
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
}

// dialect is the language-specific half of the completion protocol,
// implemented by Shell and Interpreter.
type dialect interface {
	// spawnArgs returns the executable arguments and extra environment
	spawnArgs() (args []string, extraEnv []string)
	// setup is written to the child immediately after spawn
	setup() string
	// payload wraps a command with its sentinel echoes
	payload(command, token, exitTag string) string
	// exitCommand asks the child to exit gracefully
	exitCommand() string
	// exitCodeFromDeath reports whether a process exit status observed
	// while a call was pending should be surfaced as that call's exit code
	exitCodeFromDeath() bool
}

// pendingCall is the registration for the single in-flight call. It is
// resolved exactly once: by sentinel match, by process death, or abandoned by
// the timeout path. All transitions happen under ioMu.
type pendingCall struct {
	token   string
	exitTag string
	ch      chan callResult
}

type callResult struct {
	stdout   string
	stderr   string
	exitCode *int
	err      string
}

// session owns one long-lived child process and implements the shared
// completion protocol. Callers are serialized by mu; a session never has more
// than one call in flight.
type session struct {
	opts    Options
	lang    runtime.Language
	dialect dialect
	id      string
	log     logger.Logger

	// mu serializes Run/Terminate; held for the full duration of a call
	mu      sync.Mutex
	counter uint64

	// procMu guards the process handle fields below
	procMu      sync.Mutex
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	exited      chan struct{}
	terminating bool

	// ioMu guards the stream buffers and the pending call
	ioMu    sync.Mutex
	outBuf  bytes.Buffer
	errBuf  bytes.Buffer
	pending *pendingCall
}

func newSession(lang runtime.Language, d dialect, opts Options) *session {
	opts.applyDefaults()
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return &session{
		opts:    opts,
		lang:    lang,
		dialect: d,
		id:      id,
		log:     opts.Logger.With("language", string(lang), "workspace", opts.WorkspaceID),
	}
}

// Alive reports whether the child process is currently running.
func (s *session) Alive() bool {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	return s.cmd != nil
}

// Run submits one command and blocks until its completion sentinel is seen,
// the timeout fires, or the process dies. Command-level failures are reported
// in the returned Output; only spawn/write failures return an error.
func (s *session) Run(ctx context.Context, command string, timeout time.Duration) (runtime.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stdin, exited, err := s.ensureStarted()
	if err != nil {
		return runtime.Output{}, err
	}

	if timeout <= 0 {
		timeout = s.opts.DefaultTimeout
	}

	s.counter++
	token := fmt.Sprintf("__RUNPAD_%s_%d_%s__", s.id, s.counter, randSuffix())
	exitTag := token + "RC="

	call := &pendingCall{
		token:   token,
		exitTag: exitTag,
		ch:      make(chan callResult, 1),
	}

	s.ioMu.Lock()
	// Drop anything left over from a previous timed-out call so it cannot
	// be attributed to this one.
	s.outBuf.Reset()
	s.errBuf.Reset()
	s.pending = call
	s.ioMu.Unlock()

	if _, err := io.WriteString(stdin, s.dialect.payload(command, token, exitTag)); err != nil {
		s.abandon(call)
		return runtime.Output{}, fmt.Errorf("failed to write to %s process: %w", s.lang, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-call.ch:
		return runtime.Output{
			Stdout:   res.stdout,
			Stderr:   res.stderr,
			ExitCode: res.exitCode,
			Err:      res.err,
		}, nil

	case <-exited:
		// The process died mid-call. Prefer a result the monitor already
		// delivered (e.g. the exit code of an explicit `exit N`).
		select {
		case res := <-call.ch:
			return runtime.Output{
				Stdout:   res.stdout,
				Stderr:   res.stderr,
				ExitCode: res.exitCode,
				Err:      res.err,
			}, nil
		default:
		}
		stdout, stderr := s.abandon(call)
		return runtime.Output{
			Stdout: stdout,
			Stderr: stderr,
			Err:    fmt.Sprintf("%s process exited unexpectedly", s.lang),
		}, nil

	case <-timer.C:
		// A sentinel may have resolved the call between the timer firing
		// and this branch running; a delivered result wins.
		select {
		case res := <-call.ch:
			return runtime.Output{
				Stdout:   res.stdout,
				Stderr:   res.stderr,
				ExitCode: res.exitCode,
				Err:      res.err,
			}, nil
		default:
		}
		stdout, stderr := s.abandon(call)
		s.interrupt()
		return runtime.Output{
			Stdout: stdout,
			Stderr: stderr,
			Err:    fmt.Sprintf("command timed out after %s", timeout),
		}, nil

	case <-ctx.Done():
		stdout, stderr := s.abandon(call)
		s.interrupt()
		return runtime.Output{
			Stdout: stdout,
			Stderr: stderr,
			Err:    fmt.Sprintf("command canceled: %v", ctx.Err()),
		}, nil
	}
}

// abandon deregisters the call if it is still pending and returns whatever
// partial output accumulated. A call that already resolved is left alone.
func (s *session) abandon(call *pendingCall) (stdout, stderr string) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if s.pending != call {
		return "", ""
	}
	s.pending = nil
	stdout = s.outBuf.String()
	stderr = s.errBuf.String()
	s.outBuf.Reset()
	s.errBuf.Reset()
	return stdout, stderr
}

// interrupt soft-cancels the foreground command: Ctrl-C byte on stdin plus
// SIGINT to the process group. The child itself stays alive and returns to
// its prompt.
func (s *session) interrupt() {
	s.procMu.Lock()
	cmd, stdin := s.cmd, s.stdin
	s.procMu.Unlock()
	if cmd == nil {
		return
	}
	if stdin != nil {
		_, _ = stdin.Write([]byte{interruptByte})
	}
	if err := signalInterrupt(cmd); err != nil {
		s.log.Debug("interrupt signal failed", "error", err)
	}
}

// ensureStarted spawns the child if the session is uninitialized. A spawn
// failure leaves the session uninitialized so the next call can retry.
func (s *session) ensureStarted() (io.WriteCloser, chan struct{}, error) {
	s.procMu.Lock()
	defer s.procMu.Unlock()

	if s.cmd != nil {
		return s.stdin, s.exited, nil
	}

	args, extraEnv := s.dialect.spawnArgs()
	cmd := exec.Command(s.opts.Executable, args...)
	if s.opts.WorkingDir != "" {
		if _, err := os.Stat(s.opts.WorkingDir); err != nil {
			return nil, nil, fmt.Errorf("working directory does not exist: %w", err)
		}
		cmd.Dir = s.opts.WorkingDir
	}
	cmd.Env = append(os.Environ(), extraEnv...)
	configureProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start %s process: %w", s.lang, err)
	}

	exited := make(chan struct{})
	s.cmd = cmd
	s.stdin = stdin
	s.exited = exited

	go s.readStdout(stdout)
	go s.readStderr(stderr)
	go s.monitor(cmd, exited)

	if setup := s.dialect.setup(); setup != "" {
		if _, err := io.WriteString(stdin, setup); err != nil {
			s.log.Warn("failed to write setup input", "error", err)
		}
	}

	s.log.Debug("process started", "pid", cmd.Process.Pid, "executable", s.opts.Executable)
	return stdin, exited, nil
}

// readStdout accumulates stdout chunks and checks after each one whether the
// buffer now contains the pending call's complete sentinel line.
func (s *session) readStdout(r io.Reader) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.ioMu.Lock()
			s.outBuf.Write(buf[:n])
			s.checkSentinelLocked()
			s.ioMu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (s *session) readStderr(r io.Reader) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.ioMu.Lock()
			s.errBuf.Write(buf[:n])
			s.ioMu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// checkSentinelLocked resolves the pending call if its completion sentinel is
// present as a complete line. Caller holds ioMu.
func (s *session) checkSentinelLocked() {
	call := s.pending
	if call == nil {
		return
	}
	idx := indexSentinelLine(s.outBuf.String(), call.token)
	if idx < 0 {
		return
	}
	raw := s.outBuf.String()[:idx]
	stdout, exitCode := extractExitStatus(raw, call.exitTag)
	stderr := s.errBuf.String()
	s.outBuf.Reset()
	s.errBuf.Reset()
	s.pending = nil
	call.ch <- callResult{stdout: stdout, stderr: stderr, exitCode: exitCode}
}

// monitor observes process death. On an unexpected exit the session reverts
// to uninitialized and respawns on the next call; accumulated child state is
// lost. A call pending at death is resolved with the exit status when the
// dialect considers it meaningful (an explicit shell `exit N`).
func (s *session) monitor(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()

	s.procMu.Lock()
	requested := s.terminating
	if s.cmd == cmd {
		s.cmd = nil
		s.stdin = nil
	}
	s.procMu.Unlock()

	s.ioMu.Lock()
	if call := s.pending; call != nil {
		res := callResult{
			stdout: s.outBuf.String(),
			stderr: s.errBuf.String(),
		}
		if s.dialect.exitCodeFromDeath() && cmd.ProcessState != nil {
			if code := cmd.ProcessState.ExitCode(); code >= 0 {
				res.exitCode = &code
			}
		}
		if res.exitCode == nil {
			res.err = fmt.Sprintf("%s process exited unexpectedly", s.lang)
		}
		s.outBuf.Reset()
		s.errBuf.Reset()
		s.pending = nil
		call.ch <- res
	}
	s.ioMu.Unlock()

	close(exited)

	if !requested {
		s.log.Info("process exited unexpectedly, session will respawn on next call",
			"error", err)
	}
}

// Terminate shuts the child down: graceful exit command, grace period,
// SIGTERM, second grace period, SIGKILL. It never fails and is safe to call
// on an already-dead session.
func (s *session) Terminate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.procMu.Lock()
	cmd, stdin, exited := s.cmd, s.stdin, s.exited
	if cmd == nil {
		s.procMu.Unlock()
		return
	}
	s.terminating = true
	s.procMu.Unlock()

	if stdin != nil {
		_, _ = io.WriteString(stdin, s.dialect.exitCommand()+"\n")
		_ = stdin.Close()
	}

	select {
	case <-exited:
	case <-time.After(s.opts.ExitGrace):
		if err := signalTerm(cmd); err != nil {
			s.log.Debug("terminate signal failed", "error", err)
		}
		select {
		case <-exited:
		case <-time.After(s.opts.KillGrace):
			if err := signalKill(cmd); err != nil {
				s.log.Debug("kill signal failed", "error", err)
			}
			<-exited
		}
	}

	s.procMu.Lock()
	s.terminating = false
	s.procMu.Unlock()
	s.log.Debug("process terminated")
}

// indexSentinelLine returns the byte offset at which the sentinel token
// starts, provided the token forms a complete line (preceded by start of
// buffer or a newline, followed by a newline). Partial chunks never match;
// the reader waits for more data.
func indexSentinelLine(data, token string) int {
	from := 0
	for {
		i := strings.Index(data[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		atLineStart := i == 0 || data[i-1] == '\n'
		rest := data[i+len(token):]
		terminated := strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r\n")
		if atLineStart && terminated {
			return i
		}
		from = i + len(token)
	}
}

// extractExitStatus strips the exit-status line tagged with exitTag from the
// captured output and parses the code. An empty exitTag (interpreter calls)
// or a missing line yields a nil exit code.
func extractExitStatus(raw, exitTag string) (string, *int) {
	if exitTag == "" {
		return raw, nil
	}
	lines := strings.Split(raw, "\n")
	var exitCode *int
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(trimmed, exitTag) {
			if code, err := strconv.Atoi(strings.TrimSpace(trimmed[len(exitTag):])); err == nil {
				exitCode = &code
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), exitCode
}

func randSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
