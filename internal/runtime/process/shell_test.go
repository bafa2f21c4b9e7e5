package process

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireExecutable(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func newTestShell(t *testing.T) *Shell {
	t.Helper()
	requireExecutable(t, DefaultShell)
	sh := NewShell(Options{WorkingDir: t.TempDir()})
	t.Cleanup(func() {
		sh.Terminate(context.Background())
	})
	return sh
}

func TestShellEcho(t *testing.T) {
	sh := newTestShell(t)

	out, err := sh.Run(context.Background(), "echo hello", 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Stdout != "hello\n" {
		t.Errorf("stdout = %q, want %q", out.Stdout, "hello\n")
	}
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", out.ExitCode)
	}
	if out.Err != "" {
		t.Errorf("unexpected command error: %s", out.Err)
	}
}

func TestShellStatePersistsAcrossCalls(t *testing.T) {
	sh := newTestShell(t)
	ctx := context.Background()

	if _, err := sh.Run(ctx, "X=5", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	out, err := sh.Run(ctx, "echo $X", 0)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(out.Stdout, "5") {
		t.Errorf("stdout = %q, want it to contain 5", out.Stdout)
	}

	state := sh.State(ctx)
	if state.EnvVars["X"] != "5" {
		t.Errorf("tracked env X = %q, want 5", state.EnvVars["X"])
	}
}

func TestShellNonZeroExit(t *testing.T) {
	sh := newTestShell(t)

	out, err := sh.Run(context.Background(), "false", 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.ExitCode == nil || *out.ExitCode != 1 {
		t.Errorf("exit code = %v, want 1", out.ExitCode)
	}
	if out.Err != "" {
		t.Errorf("non-zero exit must not set the error field, got %s", out.Err)
	}
}

func TestShellExplicitExitRespawns(t *testing.T) {
	sh := newTestShell(t)
	ctx := context.Background()

	out, err := sh.Run(ctx, "exit 3", 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.ExitCode == nil || *out.ExitCode != 3 {
		t.Errorf("exit code = %v, want 3", out.ExitCode)
	}

	// The process died; the session must transparently respawn.
	out, err = sh.Run(ctx, "echo back", 0)
	if err != nil {
		t.Fatalf("respawn Run failed: %v", err)
	}
	if out.Stdout != "back\n" {
		t.Errorf("stdout after respawn = %q, want %q", out.Stdout, "back\n")
	}
}

func TestShellTimeoutKeepsSessionUsable(t *testing.T) {
	sh := newTestShell(t)
	ctx := context.Background()

	start := time.Now()
	out, err := sh.Run(ctx, "sleep 30", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timed-out call took %s, should return shortly after the timeout", elapsed)
	}
	if out.Err == "" {
		t.Error("timed-out call must report an error")
	}
	if out.ExitCode != nil {
		t.Errorf("timed-out call must not report an exit code, got %d", *out.ExitCode)
	}

	// The interrupt aborts the foreground command but keeps the shell alive.
	out, err = sh.Run(ctx, "echo still here", 0)
	if err != nil {
		t.Fatalf("follow-up Run failed: %v", err)
	}
	if !strings.Contains(out.Stdout, "still here") {
		t.Errorf("stdout = %q, want it to contain %q", out.Stdout, "still here")
	}
}

func TestShellStderrCaptured(t *testing.T) {
	sh := newTestShell(t)

	out, err := sh.Run(context.Background(), "echo oops >&2", 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.Stderr, "oops") {
		t.Errorf("stderr = %q, want it to contain oops", out.Stderr)
	}
	if strings.Contains(out.Stdout, "oops") {
		t.Errorf("stderr output leaked into stdout: %q", out.Stdout)
	}
}

func TestShellSentinelCollisionResistance(t *testing.T) {
	sh := newTestShell(t)

	// Output that looks like a sentinel prefix must not terminate the call.
	out, err := sh.Run(context.Background(), "echo __RUNPAD_fake_1_deadbeef__", 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.Stdout, "__RUNPAD_fake_1_deadbeef__") {
		t.Errorf("stdout = %q, want the fake token echoed back", out.Stdout)
	}
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", out.ExitCode)
	}
}

func TestShellRejectsIncompleteInput(t *testing.T) {
	sh := newTestShell(t)

	out, err := sh.Run(context.Background(), `echo "unterminated`, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Err == "" {
		t.Error("incomplete input must be reported as a command failure")
	}
}

func TestShellEmptyCommand(t *testing.T) {
	requireExecutable(t, DefaultShell)
	sh := NewShell(Options{})

	if _, err := sh.Run(context.Background(), "   ", 0); err == nil {
		t.Error("expected error for blank command")
	}
	if sh.Alive() {
		t.Error("blank command must not spawn a process")
	}
}

func TestShellTerminateIdempotent(t *testing.T) {
	sh := newTestShell(t)
	ctx := context.Background()

	if _, err := sh.Run(ctx, "echo up", 0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !sh.Alive() {
		t.Fatal("expected live process")
	}

	sh.Terminate(ctx)
	if sh.Alive() {
		t.Error("process should be gone after Terminate")
	}
	// Second terminate on a dead session must return immediately.
	done := make(chan struct{})
	go func() {
		sh.Terminate(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second Terminate hung")
	}
}

func TestShellResetClearsTrackedState(t *testing.T) {
	sh := newTestShell(t)
	ctx := context.Background()

	if _, err := sh.Run(ctx, "export KEEP=me", 0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	sh.Reset(ctx)

	if len(sh.State(ctx).EnvVars) != 0 {
		t.Error("Reset should clear tracked env vars")
	}

	// A reset session stays usable.
	out, err := sh.Run(ctx, "echo again", 0)
	if err != nil {
		t.Fatalf("Run after Reset failed: %v", err)
	}
	if out.Stdout != "again\n" {
		t.Errorf("stdout = %q, want %q", out.Stdout, "again\n")
	}
}

func TestShellStateWithoutProcess(t *testing.T) {
	requireExecutable(t, DefaultShell)
	dir := t.TempDir()
	sh := NewShell(Options{WorkingDir: dir})

	state := sh.State(context.Background())
	if state.WorkingDir != dir {
		t.Errorf("working dir = %q, want %q", state.WorkingDir, dir)
	}
	if sh.Alive() {
		t.Error("State must not spawn a process")
	}
}
