package gatherer_test

import (
	"strings"
	"testing"

	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/gatherer"
	"github.com/stretchr/testify/require"
)

func TestTrimStrToRect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		h, w int
		want string
	}{
		{"empty", "", 2, 2, ""},
		{"fits", "ab\ncd", 2, 2, "ab\ncd"},
		{"too wide", "abcdef\nx", 2, 3, "abc[...]\nx"},
		{"too tall", "1\n2\n3\n4", 2, 5, "1\n2\n[...]"},
		{"both", "abcdef\nabcdef\nabcdef", 1, 2, "ab[...]\n[...]"},
		{"marker kept whole", "a\nb\nc", 1, 1, "a\n[...]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, gatherer.TrimStrToRect(tt.in, tt.h, tt.w))
		})
	}
}

func TestTrimRecordCopies(t *testing.T) {
	long := strings.Repeat("x", 100)
	rec := &api.RunRecord{
		Fixture:    "f",
		Stdout:     long,
		Transcript: []api.Segment{{Stream: "stdout", Data: long}},
		Verdict:    api.VerdictRecord{Diff: long},
	}

	trimmed := gatherer.TrimRecord(rec, 5, 10)
	require.Equal(t, strings.Repeat("x", 10)+"[...]", trimmed.Stdout)
	require.Equal(t, strings.Repeat("x", 10)+"[...]", trimmed.Transcript[0].Data)
	require.Equal(t, strings.Repeat("x", 10)+"[...]", trimmed.Verdict.Diff)

	require.Equal(t, long, rec.Stdout)
	require.Equal(t, long, rec.Transcript[0].Data)
	require.Nil(t, gatherer.TrimRecord(nil, 1, 1))
}

type countingGatherer struct {
	calls []string
}

func (c *countingGatherer) StartSuite(string, string, int)   { c.calls = append(c.calls, "suite") }
func (c *countingGatherer) StartRun(string, string)          { c.calls = append(c.calls, "start") }
func (c *countingGatherer) FinishRun(string, *api.RunRecord) { c.calls = append(c.calls, "finish") }
func (c *countingGatherer) FinishSuite(*api.Report)          { c.calls = append(c.calls, "done") }

func TestMulti(t *testing.T) {
	a, b := &countingGatherer{}, &countingGatherer{}
	m := gatherer.Multi{a, gatherer.Nop{}, b}

	m.StartSuite("s", "src", 1)
	m.StartRun("s", "f")
	m.FinishRun("s", &api.RunRecord{})
	m.FinishSuite(&api.Report{})

	want := []string{"suite", "start", "finish", "done"}
	require.Equal(t, want, a.calls)
	require.Equal(t, want, b.calls)
}
