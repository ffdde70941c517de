//go:build windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// Windows creation flags.
const (
	createNewProcessGroup = 0x00000200
	createNoWindow        = 0x08000000
)

// configureSysProcAttr launches the child in its own process group with no
// visible console window.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: createNewProcessGroup | createNoWindow,
	}
}
