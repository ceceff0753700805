//go:build !unix

package launcher

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

func terminateGroup(p *os.Process) {
	_ = p.Kill()
}

func killGroup(p *os.Process) {
	_ = p.Kill()
}
