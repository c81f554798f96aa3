//go:build windows

package procsup

import (
	"os/exec"
	"syscall"
)

// createNewProcessGroup mirrors Unix Setpgid semantics well enough to keep
// a Ctrl+C delivered to the agent from reaching its supervised children.
const createNewProcessGroup = 0x00000200

// Detach is the Windows counterpart of the Unix Setpgid call.
func Detach(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
		return
	}
	cmd.SysProcAttr.CreationFlags |= createNewProcessGroup
}
