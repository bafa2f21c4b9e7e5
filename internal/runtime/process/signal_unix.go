//go:build !windows

package process

import (
	"fmt"
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the child in its own process group so interrupt
// and kill signals reach the whole foreground tree, not just the shell.
func configureProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func usesProcessGroup(cmd *exec.Cmd) bool {
	return cmd.SysProcAttr != nil && cmd.SysProcAttr.Setpgid
}

// signalInterrupt sends SIGINT to the process group. The interactive shell
// and interpreter both survive SIGINT at their prompt; the foreground
// command does not.
func signalInterrupt(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if usesProcessGroup(cmd) {
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGINT); err != nil {
			return fmt.Errorf("failed to send SIGINT to process group: %w", err)
		}
		return nil
	}
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		return fmt.Errorf("failed to send SIGINT: %w", err)
	}
	return nil
}

// signalTerm sends SIGTERM to the process or its group.
func signalTerm(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if usesProcessGroup(cmd) {
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM); err != nil {
			return fmt.Errorf("failed to send SIGTERM to process group: %w", err)
		}
		return nil
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}
	return nil
}

// signalKill sends SIGKILL to the process or its group.
func signalKill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if usesProcessGroup(cmd) {
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return fmt.Errorf("failed to kill process group: %w", err)
		}
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill process: %w", err)
	}
	return nil
}
