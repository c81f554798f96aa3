//go:build !windows

package procsup

import (
	"os"
	"syscall"
)

// signalGraceful sends SIGTERM, the Unix convention for a graceful request to exit.
func signalGraceful(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
