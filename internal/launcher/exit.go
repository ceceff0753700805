package launcher

import (
	"fmt"
	"syscall"
)

type ExitKind int

const (
	Exited ExitKind = iota
	Signaled
	TimedOut
	LaunchFailed
)

func (k ExitKind) String() string {
	switch k {
	case Exited:
		return "exited"
	case Signaled:
		return "signaled"
	case TimedOut:
		return "timed-out"
	case LaunchFailed:
		return "launch-failed"
	}
	return fmt.Sprintf("ExitKind(%d)", int(k))
}

// ExitStatus is how the child terminated. Code is meaningful only for
// Exited, Signal only for Signaled.
type ExitStatus struct {
	Kind   ExitKind
	Code   int
	Signal syscall.Signal
}

// HasCode reports whether the child produced a well-defined exit code.
func (s ExitStatus) HasCode() bool {
	return s.Kind == Exited
}

func (s ExitStatus) String() string {
	switch s.Kind {
	case Exited:
		return fmt.Sprintf("exited(%d)", s.Code)
	case Signaled:
		return fmt.Sprintf("signaled(%s)", s.Signal)
	}
	return s.Kind.String()
}

func statusFromWait(ws syscall.WaitStatus) ExitStatus {
	if ws.Signaled() {
		return ExitStatus{Kind: Signaled, Signal: ws.Signal()}
	}
	return ExitStatus{Kind: Exited, Code: ws.ExitStatus()}
}
