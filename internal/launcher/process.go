package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Process is a started child with harness-owned stdout and stderr pipes.
// Stdin is the null device.
type Process struct {
	cmd    *exec.Cmd
	stdout *os.File
	stderr *os.File
	limits Limits
	log    *slog.Logger

	started time.Time
	done    chan struct{}

	closeOnce sync.Once
}

// Launch starts target under limits. A *LaunchError means the child never
// started; any other error is an OS resource failure (pipes, rlimits).
func Launch(target Target, limits Limits, log *slog.Logger) (*Process, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}

	path, err := target.resolve()
	if err != nil {
		return nil, err
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	cmd := exec.Command(path, target.Args...)
	cmd.Dir = target.Dir
	cmd.Env = target.Env
	cmd.Stdout = outW
	cmd.Stderr = errW
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		closeAll(outR, outW, errR, errW)
		return nil, &LaunchError{Path: target.Path, Cause: err}
	}
	started := time.Now()

	// the child holds its own copies of the write ends
	closeAll(outW, errW)

	p := &Process{
		cmd:     cmd,
		stdout:  outR,
		stderr:  errR,
		limits:  limits,
		log:     log,
		started: started,
		done:    make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()

	if err := applyResourceLimits(cmd.Process.Pid, limits); err != nil {
		killGroup(cmd.Process)
		<-p.done
		p.CloseOutputs()
		return nil, fmt.Errorf("apply resource limits to pid %d: %w", cmd.Process.Pid, err)
	}

	log.Debug("launched child", "pid", cmd.Process.Pid, "path", path, "args", target.Args)
	return p, nil
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *Process) StartedAt() time.Time {
	return p.started
}

func (p *Process) Stdout() io.ReadCloser {
	return p.stdout
}

func (p *Process) Stderr() io.ReadCloser {
	return p.stderr
}

// Wait blocks until the child exits, the timeout elapses or ctx ends.
// In the last two cases the process group gets SIGTERM, then SIGKILL after
// the kill grace, and TimedOut is reported. The child is always reaped
// when Wait returns.
func (p *Process) Wait(ctx context.Context) ExitStatus {
	deadline := time.NewTimer(time.Until(p.started.Add(p.limits.Timeout)))
	defer deadline.Stop()

	select {
	case <-p.done:
		return p.exitStatus()
	case <-deadline.C:
	case <-ctx.Done():
	}

	// exit and deadline may race; a reaped child keeps its real status
	select {
	case <-p.done:
		return p.exitStatus()
	default:
	}

	p.log.Debug("terminating child", "pid", p.Pid(), "grace", p.limits.killGrace())
	p.terminate()
	return ExitStatus{Kind: TimedOut}
}

func (p *Process) terminate() {
	terminateGroup(p.cmd.Process)

	grace := time.NewTimer(p.limits.killGrace())
	defer grace.Stop()
	select {
	case <-p.done:
	case <-grace.C:
		p.log.Debug("child ignored SIGTERM, killing", "pid", p.Pid())
	}
	killGroup(p.cmd.Process)
	<-p.done
}

func (p *Process) exitStatus() ExitStatus {
	state := p.cmd.ProcessState
	if state == nil {
		return ExitStatus{Kind: Exited, Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		return statusFromWait(ws)
	}
	return ExitStatus{Kind: Exited, Code: state.ExitCode()}
}

// CloseOutputs closes both read ends. Pending reads return os.ErrClosed.
func (p *Process) CloseOutputs() {
	p.closeOnce.Do(func() {
		closeAll(p.stdout, p.stderr)
	})
}

// Close kills whatever is left of the process group and releases the pipes.
// It must only be called after Wait.
func (p *Process) Close() {
	select {
	case <-p.done:
		killGroup(p.cmd.Process)
	default:
		panic("process should be reaped before closing")
	}
	p.CloseOutputs()
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			slog.Debug("close pipe", "name", f.Name(), "err", err)
		}
	}
}
