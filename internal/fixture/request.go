package fixture

import (
	"fmt"
	"time"

	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/capture"
	"github.com/programme-lv/harness/internal/launcher"
)

// FromRequest converts a wire request into a runnable fixture.
func FromRequest(req api.RunReq) (Fixture, error) {
	if req.Path == "" {
		return Fixture{}, fmt.Errorf("request has no script path")
	}

	limits := launcher.DefaultLimits()
	if req.TimeoutMs > 0 {
		limits.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	if req.MaxBytes > 0 {
		limits = limits.WithMaxBytes(req.MaxBytes)
	}
	limits.MemoryKiB = req.MemoryKiB
	limits.CpuTime = time.Duration(req.CpuMs) * time.Millisecond
	if err := limits.Validate(); err != nil {
		return Fixture{}, err
	}

	name := req.Name
	if name == "" {
		name = req.Path
	}

	f := Fixture{
		Name: name,
		Target: launcher.Target{
			Path: req.Path,
			Args: req.Args,
			Dir:  req.Dir,
		},
		Limits: limits,
	}

	exp := req.Expect
	if len(exp.Transcript) > 0 && (exp.Stdout != nil || exp.Stderr != nil) {
		return Fixture{}, fmt.Errorf("expect either stdout/stderr or a transcript, not both")
	}
	if exp.Stdout != nil {
		f.Expect.Stdout, f.Expect.CheckStdout = []byte(*exp.Stdout), true
	}
	if exp.Stderr != nil {
		f.Expect.Stderr, f.Expect.CheckStderr = []byte(*exp.Stderr), true
	}
	for i, seg := range exp.Transcript {
		stream, ok := capture.ParseStream(seg.Stream)
		if !ok {
			return Fixture{}, fmt.Errorf("transcript segment #%d: unknown stream %q", i+1, seg.Stream)
		}
		f.Expect.Transcript = append(f.Expect.Transcript, capture.Segment{Stream: stream, Data: []byte(seg.Data)})
		f.Expect.CheckTranscript = true
	}
	if exp.ExitCode != nil {
		f.Expect.ExitCode, f.Expect.CheckExitCode = *exp.ExitCode, true
	}
	return f, nil
}
