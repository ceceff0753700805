package session

import (
	"time"

	"github.com/programme-lv/harness/internal/capture"
	"github.com/programme-lv/harness/internal/launcher"
)

// Result is everything observed about one run. It is assembled once, after
// the child is reaped and both pipes are closed, and never changed after.
type Result struct {
	RunID  string
	Target launcher.Target
	Limits launcher.Limits

	State State
	Exit  launcher.ExitStatus

	Stdout     []byte
	Stderr     []byte
	Transcript []capture.Chunk

	StartedAt time.Time
	Duration  time.Duration

	StdoutTruncated bool
	StderrTruncated bool
	StdoutDiscarded int64
	StderrDiscarded int64
}

// Truncated reports whether either stream hit its cap.
func (r *Result) Truncated() bool {
	return r.StdoutTruncated || r.StderrTruncated
}

// Segments is the transcript with adjacent same-stream chunks joined.
func (r *Result) Segments() []capture.Segment {
	return capture.Coalesce(r.Transcript)
}
