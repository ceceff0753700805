//go:build linux

package launcher

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// applyResourceLimits sets the memory and CPU ceilings on an already running
// child. The child may execute briefly before the limits land.
func applyResourceLimits(pid int, limits Limits) error {
	if limits.MemoryKiB > 0 {
		bytes := uint64(limits.MemoryKiB) * 1024
		rl := unix.Rlimit{Cur: bytes, Max: bytes}
		if err := unix.Prlimit(pid, unix.RLIMIT_AS, &rl, nil); err != nil {
			return fmt.Errorf("set RLIMIT_AS: %w", err)
		}
	}
	if secs := limits.cpuSeconds(); secs > 0 {
		// soft limit delivers SIGXCPU, hard limit one second later SIGKILL
		rl := unix.Rlimit{Cur: secs, Max: secs + 1}
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &rl, nil); err != nil {
			return fmt.Errorf("set RLIMIT_CPU: %w", err)
		}
	}
	return nil
}
