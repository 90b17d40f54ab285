//go:build windows

package cmd_utils

import (
	"os/exec"
	"strconv"
	"syscall"
)

func setupProcessGroup(command *exec.Cmd) {
	command.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}

// killProcessTree uses taskkill so descendants spawned by sqlcmd or
// powershell go down with the parent.
func killProcessTree(command *exec.Cmd) error {
	if command.Process == nil {
		return nil
	}

	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(command.Process.Pid))
	if err := kill.Run(); err != nil {
		return command.Process.Kill()
	}

	return nil
}
