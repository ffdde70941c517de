//go:build !windows

package supervisor

import (
	"os"
	"syscall"
)

// terminateProcess asks the process to exit gracefully.
func terminateProcess(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// killProcess forcibly ends the process.
func killProcess(p *os.Process) error {
	return p.Kill()
}
