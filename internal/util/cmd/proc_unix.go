//go:build !windows

package cmd_utils

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup places the child in its own process group so a timeout
// can take down the whole tree, not just the direct child.
func setupProcessGroup(command *exec.Cmd) {
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessTree(command *exec.Cmd) error {
	if command.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(command.Process.Pid)
	if err != nil {
		return command.Process.Kill()
	}

	return syscall.Kill(-pgid, syscall.SIGKILL)
}
