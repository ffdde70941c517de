//go:build windows

package supervisor

import "os"

// Windows has no graceful signal for a detached windowless child; both paths
// end the process outright, matching how the console-less uxplay build is
// shut down by its packaged launcher.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

func killProcess(p *os.Process) error {
	return p.Kill()
}
