package runner

import (
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/programme-lv/harness/internal/session"
	"github.com/programme-lv/harness/internal/verifier"
)

// NewRecord flattens a run into its wire form. res is nil when the harness
// could not even attempt the launch.
func NewRecord(f fixture.Fixture, res *session.Result, v verifier.Verdict, runErr error) api.RunRecord {
	rec := api.RunRecord{
		Fixture:    f.Name,
		Command:    f.Target.String(),
		Transcript: []api.Segment{},
		Verdict: api.VerdictRecord{
			Outcome:    v.Outcome(),
			Stdout:     v.Stdout.String(),
			Stderr:     v.Stderr.String(),
			Transcript: v.Transcript.String(),
			ExitCode:   v.ExitCode.String(),
			Diff:       v.Diff,
		},
	}
	if runErr != nil {
		msg := runErr.Error()
		rec.Error = &msg
		rec.Verdict.Outcome = api.OutcomeError
	}
	if res == nil {
		rec.State = "error"
		return rec
	}

	rec.RunId = res.RunID
	rec.State = res.State.String()
	switch res.Exit.Kind {
	case launcher.Exited:
		code := res.Exit.Code
		rec.ExitCode = &code
	case launcher.Signaled:
		sig := res.Exit.Signal.String()
		rec.ExitSignal = &sig
	}

	rec.Stdout = string(res.Stdout)
	rec.Stderr = string(res.Stderr)
	for _, seg := range res.Segments() {
		rec.Transcript = append(rec.Transcript, api.Segment{
			Stream: seg.Stream.String(),
			Data:   string(seg.Data),
		})
	}
	rec.WallMillis = res.Duration.Milliseconds()
	rec.StdoutTruncated = res.StdoutTruncated
	rec.StderrTruncated = res.StderrTruncated
	return rec
}
