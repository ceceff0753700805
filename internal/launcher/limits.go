package launcher

import (
	"fmt"
	"time"
)

// Limits bounds a single child process. Immutable once a session starts.
type Limits struct {
	Timeout        time.Duration
	MaxStdoutBytes int64
	MaxStderrBytes int64

	// MemoryKiB caps the child's address space. Zero means no ceiling.
	MemoryKiB int64
	// CpuTime caps consumed CPU time, rounded up to whole seconds. Zero means no ceiling.
	CpuTime time.Duration

	// KillGrace is the window between SIGTERM and SIGKILL on timeout.
	KillGrace time.Duration
	// DrainGrace is how long pipes may still be read after the child is reaped.
	DrainGrace time.Duration
}

const (
	defaultKillGrace  = 500 * time.Millisecond
	defaultDrainGrace = 250 * time.Millisecond
)

func DefaultLimits() Limits {
	return Limits{
		Timeout:        10 * time.Second,
		MaxStdoutBytes: 1 << 20,
		MaxStderrBytes: 1 << 20,
		KillGrace:      defaultKillGrace,
		DrainGrace:     defaultDrainGrace,
	}
}

// WithMaxBytes returns a copy with the same cap on both streams.
func (l Limits) WithMaxBytes(n int64) Limits {
	l.MaxStdoutBytes = n
	l.MaxStderrBytes = n
	return l
}

func (l Limits) Validate() error {
	if l.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", l.Timeout)
	}
	if l.MaxStdoutBytes <= 0 || l.MaxStderrBytes <= 0 {
		return fmt.Errorf("byte caps must be positive, got stdout=%d stderr=%d",
			l.MaxStdoutBytes, l.MaxStderrBytes)
	}
	if l.MemoryKiB < 0 || l.CpuTime < 0 {
		return fmt.Errorf("resource ceilings must not be negative")
	}
	if l.KillGrace < 0 || l.DrainGrace < 0 {
		return fmt.Errorf("grace windows must not be negative")
	}
	return nil
}

func (l Limits) killGrace() time.Duration {
	if l.KillGrace == 0 {
		return defaultKillGrace
	}
	return l.KillGrace
}

// EffectiveDrainGrace is DrainGrace with the zero value replaced by the default.
func (l Limits) EffectiveDrainGrace() time.Duration {
	if l.DrainGrace == 0 {
		return defaultDrainGrace
	}
	return l.DrainGrace
}

// cpuSeconds rounds the CPU ceiling up so that sub-second limits still bite.
func (l Limits) cpuSeconds() uint64 {
	if l.CpuTime <= 0 {
		return 0
	}
	secs := uint64(l.CpuTime / time.Second)
	if l.CpuTime%time.Second != 0 {
		secs++
	}
	return secs
}
