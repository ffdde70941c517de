// Package supervisor owns the lifecycle of the external uxplay process.
// It is the single owner of the process handle; start/stop/restart are
// idempotent and safe to call from any goroutine.
package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Sentinel errors surfaced by Start. They are reported, never panicked.
var (
	ErrExecutableNotFound = errors.New("uxplay executable not found")
	ErrLaunchFailed       = errors.New("failed to launch uxplay")
)

// DefaultStopWait bounds the graceful termination window before escalation.
const DefaultStopWait = 3 * time.Second

// ArgumentSource supplies the uxplay command line arguments, read once per
// start.
type ArgumentSource interface {
	Read() []string
}

// Status is a point-in-time view of the supervised process.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	StoppedAt time.Time `json:"stopped_at,omitzero"`
	ExitErr   error     `json:"-"`
}

// Supervisor manages one external process. Lifecycle operations serialize on
// opMu so racing start/stop calls cannot duplicate or orphan the handle;
// state reads take only the inner mu and never block behind a stop in
// progress.
type Supervisor struct {
	exePath  string
	args     ArgumentSource
	stopWait time.Duration

	opMu sync.Mutex // serializes Start/Stop/Restart

	mu       sync.Mutex
	cmd      *exec.Cmd
	waitDone chan struct{} // closed by the reaper when cmd.Wait returns
	status   Status
}

// New returns a stopped supervisor for the executable at exePath.
func New(exePath string, args ArgumentSource) *Supervisor {
	return &Supervisor{exePath: exePath, args: args, stopWait: DefaultStopWait}
}

// SetStopWait overrides the graceful stop window. Zero or negative values
// keep the default.
func (s *Supervisor) SetStopWait(d time.Duration) {
	if d > 0 {
		s.stopWait = d
	}
}

// Start launches the process if it is not already running. A start while
// running is a logged no-op. Returns ErrExecutableNotFound or a wrapped
// ErrLaunchFailed; in both cases the supervisor remains stopped.
func (s *Supervisor) Start() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if st := s.Status(); st.Running {
		slog.Info("uxplay already running", "pid", st.PID)
		return nil
	}

	if _, err := os.Stat(s.exePath); err != nil {
		slog.Error("uxplay executable not found", "path", s.exePath, "error", err)
		return fmt.Errorf("%w at %s", ErrExecutableNotFound, s.exePath)
	}

	args := s.args.Read()
	// #nosec G204 -- the executable path is discovered from our own install dir
	cmd := exec.Command(s.exePath, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	configureSysProcAttr(cmd)

	slog.Info("starting uxplay", "path", s.exePath, "args", args)
	if err := cmd.Start(); err != nil {
		slog.Error("failed to launch uxplay", "error", err)
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	wd := make(chan struct{})
	s.mu.Lock()
	s.cmd = cmd
	s.waitDone = wd
	s.status = Status{Running: true, PID: cmd.Process.Pid, StartedAt: time.Now()}
	s.mu.Unlock()

	go s.reap(cmd, wd)

	slog.Info("started uxplay", "pid", cmd.Process.Pid)
	return nil
}

// reap waits for the process to exit and records the outcome exactly once.
func (s *Supervisor) reap(cmd *exec.Cmd, wd chan struct{}) {
	err := cmd.Wait()
	s.mu.Lock()
	if s.cmd == cmd {
		s.status.Running = false
		s.status.StoppedAt = time.Now()
		s.status.ExitErr = err
	}
	s.mu.Unlock()
	close(wd)
}

// Stop terminates the process. Stopping an already-stopped (or already
// exited) process is a logged no-op. The graceful signal is escalated to a
// kill after the stop window, and the final wait is unconditional, so Stop
// always returns with the handle cleared.
func (s *Supervisor) Stop() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	cmd := s.cmd
	wd := s.waitDone
	s.mu.Unlock()

	if cmd == nil || exited(wd) {
		slog.Info("uxplay not running, nothing to stop")
		s.clearHandle()
		return nil
	}

	pid := cmd.Process.Pid
	slog.Info("stopping uxplay", "pid", pid)
	if err := terminateProcess(cmd.Process); err != nil {
		slog.Warn("graceful termination signal failed", "pid", pid, "error", err)
	}

	select {
	case <-wd:
		slog.Info("uxplay stopped cleanly", "pid", pid)
	case <-time.After(s.stopWait):
		slog.Warn("uxplay did not terminate in time, killing it", "pid", pid)
		if err := killProcess(cmd.Process); err != nil {
			slog.Error("kill failed", "pid", pid, "error", err)
		}
		<-wd
	}

	s.clearHandle()
	return nil
}

// Restart is Stop followed by Start. It is not atomic with respect to other
// callers beyond the per-operation serialization.
func (s *Supervisor) Restart() error {
	if err := s.Stop(); err != nil {
		return err
	}
	return s.Start()
}

// Status re-checks liveness on every call; the external process can exit on
// its own at any time, so nothing here is cached. Observing an exit clears
// the handle.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return s.status
	}
	if exited(s.waitDone) {
		s.cmd = nil
		s.waitDone = nil
	}
	return s.status
}

func (s *Supervisor) clearHandle() {
	s.mu.Lock()
	s.cmd = nil
	s.waitDone = nil
	s.status.Running = false
	s.mu.Unlock()
}

// exited reports whether the reaper has observed process exit, without
// blocking.
func exited(wd chan struct{}) bool {
	if wd == nil {
		return true
	}
	select {
	case <-wd:
		return true
	default:
		return false
	}
}
