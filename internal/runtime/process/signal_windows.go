//go:build windows

package process

import (
	"fmt"
	"os/exec"
)

// configureProcessGroup is a no-op on Windows; termination falls back to
// Process.Kill on the direct child.
func configureProcessGroup(cmd *exec.Cmd) {}

// signalInterrupt has no portable equivalent on Windows. The Ctrl-C byte
// written to stdin is the only soft-cancellation channel.
func signalInterrupt(cmd *exec.Cmd) error {
	return nil
}

func signalTerm(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}
	return nil
}

func signalKill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill process: %w", err)
	}
	return nil
}
