package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/harness/internal/capture"
	"github.com/programme-lv/harness/internal/launcher"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Session runs one target once:
//
//	idle -> launching -> running -> completed | timed_out | crashed
//	           \-> launch_failed
type Session struct {
	id     string
	target launcher.Target
	limits launcher.Limits
	log    *slog.Logger
	slots  *semaphore.Weighted

	echoStdout io.Writer
	echoStderr io.Writer

	state State
}

type Option func(*Session)

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func WithRunID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithSlots makes the session hold one unit of slots while its child runs.
func WithSlots(slots *semaphore.Weighted) Option {
	return func(s *Session) { s.slots = slots }
}

// WithEcho copies the child's output to the given writers as it is read.
// Either writer may be nil.
func WithEcho(stdout, stderr io.Writer) Option {
	return func(s *Session) {
		s.echoStdout = stdout
		s.echoStderr = stderr
	}
}

func New(target launcher.Target, limits launcher.Limits, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		target: target,
		limits: limits,
		log:    slog.Default(),
		state:  Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("run_id", s.id)
	return s
}

// Run is shorthand for New(target, limits, opts...).Run(ctx).
func Run(ctx context.Context, target launcher.Target, limits launcher.Limits, opts ...Option) (*Result, error) {
	return New(target, limits, opts...).Run(ctx)
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) transition(to State) {
	if !canTransition(s.state, to) {
		panic(fmt.Sprintf("session %s: illegal transition %s -> %s", s.id, s.state, to))
	}
	s.log.Debug("session state", "from", s.state, "to", to)
	s.state = to
}

// Run launches the target and captures it until it terminates.
//
// A launch failure yields a launch_failed Result together with the
// *launcher.LaunchError. Pipe or rlimit failures return a nil Result. Every
// other outcome, including timeouts and crashes, is a Result with a nil
// error. Run returns only after the child is reaped, both collectors have
// stopped and both pipes are closed.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if err := s.limits.Validate(); err != nil {
		return nil, fmt.Errorf("session %s: %w", s.id, err)
	}
	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("session %s: wait for a free slot: %w", s.id, err)
		}
		defer s.slots.Release(1)
	}

	res := &Result{
		RunID:     s.id,
		Target:    s.target,
		Limits:    s.limits,
		StartedAt: time.Now(),
	}

	s.transition(Launching)
	proc, err := launcher.Launch(s.target, s.limits, s.log)
	if err != nil {
		s.transition(LaunchFailed)
		if !errors.Is(err, launcher.ErrLaunch) {
			return nil, err
		}
		s.log.Debug("launch failed", "target", s.target.String(), "err", err)
		res.State = LaunchFailed
		res.Exit = launcher.ExitStatus{Kind: launcher.LaunchFailed}
		res.Stdout, res.Stderr = []byte{}, []byte{}
		res.Duration = time.Since(res.StartedAt)
		return res, err
	}
	res.StartedAt = proc.StartedAt()

	s.transition(Running)
	stdout := capture.NewCollector(capture.Stdout, s.limits.MaxStdoutBytes)
	stderr := capture.NewCollector(capture.Stderr, s.limits.MaxStderrBytes)

	var g errgroup.Group
	g.Go(func() error { return stdout.Drain(echo(proc.Stdout(), s.echoStdout)) })
	g.Go(func() error { return stderr.Drain(echo(proc.Stderr(), s.echoStderr)) })

	exit := proc.Wait(ctx)
	elapsed := time.Since(res.StartedAt)

	if err := s.awaitCollectors(proc, &g); err != nil {
		s.log.Warn("output capture ended with an error", "err", err)
	}
	proc.Close()

	res.Exit = exit
	res.Duration = elapsed
	switch exit.Kind {
	case launcher.TimedOut:
		s.transition(TimedOut)
		if ctx.Err() == nil {
			res.Duration = s.limits.Timeout
		}
	case launcher.Signaled:
		s.transition(Crashed)
	default:
		s.transition(Completed)
	}
	res.State = s.state

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	res.StdoutTruncated = stdout.Truncated()
	res.StderrTruncated = stderr.Truncated()
	res.StdoutDiscarded = stdout.Discarded()
	res.StderrDiscarded = stderr.Discarded()
	res.Transcript = capture.Merge(stdout.Chunks(), stderr.Chunks())

	s.log.Debug("run finished",
		"state", res.State,
		"exit", res.Exit.String(),
		"duration", res.Duration,
		"stdout_bytes", len(res.Stdout),
		"stderr_bytes", len(res.Stderr))
	return res, nil
}

// awaitCollectors gives the collectors the drain grace to reach end of
// stream. Anything still holding a write end past that (a detached
// grandchild) gets its pipes closed under it.
func (s *Session) awaitCollectors(proc *launcher.Process, g *errgroup.Group) error {
	drained := make(chan error, 1)
	go func() { drained <- g.Wait() }()

	grace := time.NewTimer(s.limits.EffectiveDrainGrace())
	defer grace.Stop()

	select {
	case err := <-drained:
		return err
	case <-grace.C:
		s.log.Warn("pipes still open after child exit, closing them",
			"grace", s.limits.EffectiveDrainGrace())
		proc.CloseOutputs()
		return <-drained
	}
}

func echo(r io.Reader, w io.Writer) io.Reader {
	if w == nil {
		return r
	}
	return io.TeeReader(r, lossyWriter{w})
}

// lossyWriter drops write errors so a broken echo target never stops the
// pipe from being drained.
type lossyWriter struct {
	w io.Writer
}

func (l lossyWriter) Write(p []byte) (int, error) {
	_, _ = l.w.Write(p)
	return len(p), nil
}
