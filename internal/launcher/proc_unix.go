//go:build unix

package launcher

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own group so that signals reach
// anything it spawned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateGroup(p *os.Process) {
	signalGroup(p, syscall.SIGTERM)
}

func killGroup(p *os.Process) {
	signalGroup(p, syscall.SIGKILL)
}

func signalGroup(p *os.Process, sig syscall.Signal) {
	err := syscall.Kill(-p.Pid, sig)
	if err != nil && !errors.Is(err, syscall.ESRCH) {
		// the group may be gone while the leader is not yet reaped
		_ = p.Signal(sig)
	}
}
