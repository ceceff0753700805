package termgath_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/gatherer/termgath"
	"github.com/stretchr/testify/require"
)

func TestTerminalOutput(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	g := termgath.NewWithWriter(&out, true)

	code := 1
	errMsg := "launch ./gone.sh: no such file or directory"
	g.StartSuite("suite-1", "suite.toml", 2)
	g.StartRun("suite-1", "simple")
	g.FinishRun("suite-1", &api.RunRecord{
		Fixture:    "simple",
		State:      "completed",
		ExitCode:   &code,
		WallMillis: 12,
		Verdict: api.VerdictRecord{
			Outcome: api.OutcomeFail,
			Diff:    "exit code: expected 0, got 1\n",
		},
	})
	g.FinishRun("suite-1", &api.RunRecord{
		Fixture: "gone",
		State:   "launch_failed",
		Error:   &errMsg,
		Verdict: api.VerdictRecord{Outcome: api.OutcomeError},
	})
	g.FinishSuite(&api.Report{Total: 2, Failed: 1, Errored: 1})

	text := out.String()
	require.Contains(t, text, "== Running 2 fixture(s) from suite.toml suite-1 ==\n")
	require.Contains(t, text, "-> simple\n")
	require.Contains(t, text, "<- FAIL simple exit=1 wall=12ms\n")
	require.Contains(t, text, "   exit code: expected 0, got 1\n")
	require.Contains(t, text, "<- ERROR gone launch_failed wall=0ms\n")
	require.Contains(t, text, "   error: "+errMsg+"\n")
	require.Contains(t, text, "== 0 passed, 1 failed, 0 inconclusive, 1 errored in ")
}

func TestQuietHidesDiff(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	g := termgath.NewWithWriter(&out, false)
	g.FinishRun("s", &api.RunRecord{
		Fixture: "f",
		State:   "timed_out",
		Verdict: api.VerdictRecord{Outcome: api.OutcomeInconclusive, Diff: "secret diff"},
	})
	require.Equal(t, "<- INCONCLUSIVE f timed_out wall=0ms\n", out.String())
}
