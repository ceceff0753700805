package termgath

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/harness/api"
)

type TerminalGatherer struct {
	StartedAt time.Time
	// Verbose prints the diff of every failed run.
	Verbose bool

	out  io.Writer
	mu   sync.Mutex
	pass func(a ...interface{}) string
	fail func(a ...interface{}) string
	warn func(a ...interface{}) string
	dim  func(a ...interface{}) string
}

func New(verbose bool) *TerminalGatherer {
	return NewWithWriter(color.Output, verbose)
}

func NewWithWriter(out io.Writer, verbose bool) *TerminalGatherer {
	return &TerminalGatherer{
		StartedAt: time.Now(),
		Verbose:   verbose,
		out:       out,
		pass:      color.New(color.FgHiGreen, color.Bold).SprintFunc(),
		fail:      color.New(color.FgHiRed, color.Bold).SprintFunc(),
		warn:      color.New(color.FgHiYellow, color.Bold).SprintFunc(),
		dim:       color.New(color.Faint).SprintFunc(),
	}
}

func (t *TerminalGatherer) StartSuite(suiteId, source string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.StartedAt = time.Now()
	fmt.Fprintf(t.out, "== Running %d fixture(s) from %s %s ==\n", total, source, t.dim(suiteId))
}

func (t *TerminalGatherer) StartRun(suiteId, fixture string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "-> %s\n", fixture)
}

func (t *TerminalGatherer) FinishRun(suiteId string, rec *api.RunRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	exit := rec.State
	if rec.ExitCode != nil {
		exit = fmt.Sprintf("exit=%d", *rec.ExitCode)
	} else if rec.ExitSignal != nil {
		exit = fmt.Sprintf("%s signal=%s", rec.State, *rec.ExitSignal)
	}
	fmt.Fprintf(t.out, "<- %s %s %s wall=%dms\n", t.outcome(rec.Verdict.Outcome), rec.Fixture, exit, rec.WallMillis)

	if rec.Error != nil {
		fmt.Fprintf(t.out, "   error: %s\n", *rec.Error)
	}
	if t.Verbose && rec.Verdict.Diff != "" {
		for _, line := range strings.Split(strings.TrimRight(rec.Verdict.Diff, "\n"), "\n") {
			fmt.Fprintf(t.out, "   %s\n", line)
		}
	}
}

func (t *TerminalGatherer) FinishSuite(report *api.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	summary := fmt.Sprintf("%d passed, %d failed, %d inconclusive, %d errored",
		report.Passed, report.Failed, report.Inconclusive, report.Errored)
	if report.Ok() {
		summary = t.pass(summary)
	} else {
		summary = t.fail(summary)
	}
	fmt.Fprintf(t.out, "== %s in %s ==\n", summary, dur)
}

func (t *TerminalGatherer) outcome(o string) string {
	label := strings.ToUpper(o)
	switch o {
	case api.OutcomePass:
		return t.pass(label)
	case api.OutcomeInconclusive:
		return t.warn(label)
	}
	return t.fail(label)
}
