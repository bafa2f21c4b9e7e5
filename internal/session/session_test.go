package session

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/aki/runpad/internal/runtime"
	"github.com/aki/runpad/internal/runtime/process"
	"github.com/aki/runpad/internal/workspace"
)

func requireExecutable(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	ws := workspace.Info{ID: "test", Dir: t.TempDir()}
	s := New(ws, cfg, nil, nil)
	t.Cleanup(func() {
		s.Terminate(context.Background())
	})
	return s
}

func TestSessionExecShell(t *testing.T) {
	requireExecutable(t, process.DefaultShell)
	s := newTestSession(t, Config{})

	out, err := s.Exec(context.Background(), runtime.Command{
		Command:  "echo hello",
		Language: runtime.LanguageShell,
	})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if out.Stdout != "hello\n" {
		t.Errorf("stdout = %q, want %q", out.Stdout, "hello\n")
	}
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", out.ExitCode)
	}

	hist, err := s.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history has %d entries, want 1", len(hist))
	}
	if hist[0].Command != "echo hello" || hist[0].Language != runtime.LanguageShell {
		t.Errorf("history entry = %+v", hist[0])
	}
}

func TestSessionEval(t *testing.T) {
	requireExecutable(t, process.DefaultInterpreter)
	s := newTestSession(t, Config{})

	out, err := s.Eval(context.Background(), "print(2 + 2)")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if out.Stdout != "4\n" {
		t.Errorf("stdout = %q, want %q", out.Stdout, "4\n")
	}

	hist, err := s.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 1 || hist[0].Language != runtime.LanguageInterpreter {
		t.Errorf("history = %+v", hist)
	}
}

func TestSessionInvalidLanguage(t *testing.T) {
	s := newTestSession(t, Config{})

	_, err := s.Exec(context.Background(), runtime.Command{
		Command:  "echo hello",
		Language: runtime.Language("ruby"),
	})
	if !errors.Is(err, runtime.ErrInvalidLanguage) {
		t.Errorf("err = %v, want ErrInvalidLanguage", err)
	}
}

func TestSessionTerminatedRejectsOperations(t *testing.T) {
	s := newTestSession(t, Config{})
	ctx := context.Background()
	s.Terminate(ctx)

	if !s.Terminated() {
		t.Fatal("Terminated() = false after Terminate")
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done channel not closed after Terminate")
	}

	if _, err := s.Exec(ctx, runtime.Command{Command: "echo", Language: runtime.LanguageShell}); !errors.Is(err, runtime.ErrSessionTerminated) {
		t.Errorf("Exec err = %v, want ErrSessionTerminated", err)
	}
	if _, err := s.State(ctx); !errors.Is(err, runtime.ErrSessionTerminated) {
		t.Errorf("State err = %v, want ErrSessionTerminated", err)
	}
	if _, err := s.History(0); !errors.Is(err, runtime.ErrSessionTerminated) {
		t.Errorf("History err = %v, want ErrSessionTerminated", err)
	}
	if err := s.Reset(ctx); !errors.Is(err, runtime.ErrSessionTerminated) {
		t.Errorf("Reset err = %v, want ErrSessionTerminated", err)
	}

	// Idempotent.
	s.Terminate(ctx)
}

func TestSessionStateWithoutProcesses(t *testing.T) {
	dir := t.TempDir()
	ws := workspace.Info{ID: "test", Dir: dir}
	s := New(ws, Config{}, nil, nil)
	t.Cleanup(func() { s.Terminate(context.Background()) })

	st, err := s.State(context.Background())
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if st.WorkingDir != dir {
		t.Errorf("working dir = %q, want %q", st.WorkingDir, dir)
	}
	if len(st.EnvVars) != 0 || len(st.Imports) != 0 || len(st.History) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestSessionResetStaysLive(t *testing.T) {
	requireExecutable(t, process.DefaultShell)
	s := newTestSession(t, Config{})
	ctx := context.Background()

	if _, err := s.Exec(ctx, runtime.Command{Command: "X=5", Language: runtime.LanguageShell}); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	hist, err := s.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 0 {
		t.Errorf("history has %d entries after reset, want 0", len(hist))
	}

	out, err := s.Exec(ctx, runtime.Command{Command: "echo $X", Language: runtime.LanguageShell})
	if err != nil {
		t.Fatalf("Exec after reset failed: %v", err)
	}
	if out.Stdout != "\n" {
		t.Errorf("stdout = %q, want variable cleared", out.Stdout)
	}
}

func TestSessionIdleWatchdogTerminates(t *testing.T) {
	s := newTestSession(t, Config{
		IdleTimeout:      50 * time.Millisecond,
		WatchdogInterval: 10 * time.Millisecond,
	})

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("watchdog did not terminate the idle session")
	}
	if !s.Terminated() {
		t.Error("Terminated() = false after watchdog fired")
	}
}
