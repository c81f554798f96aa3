//go:build !windows

package procsup

import (
	"os/exec"
	"syscall"
)

// Detach places cmd into its own process group (Unix only) so it does not
// receive signals sent to the parent's group.
func Detach(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		return
	}
	cmd.SysProcAttr.Setpgid = true
}
