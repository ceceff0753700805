package verifier

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/programme-lv/harness/internal/capture"
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/programme-lv/harness/internal/session"
)

// Expected holds the golden values for one run. Only the parts whose Check
// flag is set are compared.
type Expected struct {
	Stdout      []byte
	CheckStdout bool
	Stderr      []byte
	CheckStderr bool

	Transcript      []capture.Segment
	CheckTranscript bool

	ExitCode      int
	CheckExitCode bool
}

// Streams expects stdout, stderr and an exit code separately.
func Streams(stdout, stderr []byte, exitCode int) Expected {
	return Expected{
		Stdout:        stdout,
		CheckStdout:   true,
		Stderr:        stderr,
		CheckStderr:   true,
		ExitCode:      exitCode,
		CheckExitCode: true,
	}
}

// Interleaved expects one ordered transcript across both streams.
func Interleaved(transcript []capture.Segment, exitCode int) Expected {
	return Expected{
		Transcript:      transcript,
		CheckTranscript: true,
		ExitCode:        exitCode,
		CheckExitCode:   true,
	}
}

// Options relax the byte-exact default.
type Options struct {
	// NormalizeNewlines turns CRLF into LF on both sides.
	NormalizeNewlines bool
	// TrimTrailingSpace strips trailing blanks from every line and trailing
	// blank lines from the end.
	TrimTrailingSpace bool
}

func (o Options) apply(b []byte) []byte {
	if o.NormalizeNewlines {
		b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	}
	if o.TrimTrailingSpace {
		lines := bytes.Split(b, []byte("\n"))
		for i, l := range lines {
			lines[i] = bytes.TrimRight(l, " \t\r")
		}
		b = bytes.TrimRight(bytes.Join(lines, []byte("\n")), "\n")
	}
	return b
}

// Verify compares res against exp.
func Verify(res *session.Result, exp Expected, opts Options) Verdict {
	var v Verdict
	var diff strings.Builder

	if exp.CheckStdout {
		v.Stdout = compareStream(&diff, "stdout", exp.Stdout, res.Stdout,
			res.StdoutTruncated, res.StdoutDiscarded, opts)
	}
	if exp.CheckStderr {
		v.Stderr = compareStream(&diff, "stderr", exp.Stderr, res.Stderr,
			res.StderrTruncated, res.StderrDiscarded, opts)
	}
	if exp.CheckTranscript {
		v.Transcript = compareTranscript(&diff, exp.Transcript, res, opts)
	}
	if exp.CheckExitCode {
		v.ExitCode = compareExit(&diff, exp.ExitCode, res)
	}

	v.Diff = diff.String()
	return v
}

func compareStream(diff *strings.Builder, name string, want, got []byte,
	truncated bool, discarded int64, opts Options) Match {

	if truncated {
		fmt.Fprintf(diff, "%s truncated at %d bytes (%d more discarded), comparison inconclusive\n",
			name, len(got), discarded)
		return Inconclusive
	}

	want, got = opts.apply(want), opts.apply(got)
	if bytes.Equal(want, got) {
		return Pass
	}
	diff.WriteString(unifiedDiff("expected "+name, "actual "+name, want, got))
	return Fail
}

func compareTranscript(diff *strings.Builder, want []capture.Segment,
	res *session.Result, opts Options) Match {

	if res.Truncated() {
		fmt.Fprintf(diff, "transcript incomplete (stdout truncated=%t, stderr truncated=%t), comparison inconclusive\n",
			res.StdoutTruncated, res.StderrTruncated)
		return Inconclusive
	}

	wantSegs := normalizeSegments(capture.CoalesceSegments(want), opts)
	gotSegs := normalizeSegments(res.Segments(), opts)
	if segmentsEqual(wantSegs, gotSegs) {
		return Pass
	}
	diff.WriteString(unifiedDiff("expected transcript", "actual transcript",
		renderSegments(wantSegs), renderSegments(gotSegs)))
	return Fail
}

func compareExit(diff *strings.Builder, want int, res *session.Result) Match {
	if !res.Exit.HasCode() {
		switch res.Exit.Kind {
		case launcher.TimedOut:
			fmt.Fprintf(diff, "exit code: expected %d, run timed out after %s\n", want, res.Duration)
		case launcher.Signaled:
			fmt.Fprintf(diff, "exit code: expected %d, child crashed with %s\n", want, res.Exit.Signal)
		default:
			fmt.Fprintf(diff, "exit code: expected %d, child never started\n", want)
		}
		return Fail
	}
	if res.Exit.Code != want {
		fmt.Fprintf(diff, "exit code: expected %d, got %d\n", want, res.Exit.Code)
		return Fail
	}
	return Pass
}

func normalizeSegments(segs []capture.Segment, opts Options) []capture.Segment {
	out := make([]capture.Segment, 0, len(segs))
	for _, s := range segs {
		data := opts.apply(s.Data)
		if len(data) == 0 {
			continue
		}
		out = append(out, capture.Segment{Stream: s.Stream, Data: data})
	}
	return capture.CoalesceSegments(out)
}

func segmentsEqual(a, b []capture.Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Stream != b[i].Stream || !bytes.Equal(a[i].Data, b[i].Data) {
			return false
		}
	}
	return true
}

// renderSegments prefixes every line with its stream so that a diff of two
// transcripts shows both content and placement.
func renderSegments(segs []capture.Segment) []byte {
	var buf bytes.Buffer
	for _, s := range segs {
		for _, line := range strings.SplitAfter(string(s.Data), "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(&buf, "[%s] %s", s.Stream, line)
			if !strings.HasSuffix(line, "\n") {
				buf.WriteString("\\ no newline\n")
			}
		}
	}
	return buf.Bytes()
}
