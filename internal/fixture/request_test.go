package fixture_test

import (
	"testing"
	"time"

	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/capture"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	stderr := "Error\n"
	code := 1
	f, err := fixture.FromRequest(api.RunReq{
		Path:      "./script.py",
		Args:      []string{"-v"},
		Dir:       "/work",
		TimeoutMs: 250,
		MaxBytes:  10,
		Expect: api.Expectation{
			Stderr:   &stderr,
			ExitCode: &code,
		},
	})
	require.NoError(t, err)

	require.Equal(t, "./script.py", f.Name)
	require.Equal(t, "/work", f.Target.Dir)
	require.Equal(t, 250*time.Millisecond, f.Limits.Timeout)
	require.EqualValues(t, 10, f.Limits.MaxStdoutBytes)
	require.False(t, f.Expect.CheckStdout)
	require.True(t, f.Expect.CheckStderr)
	require.Equal(t, "Error\n", string(f.Expect.Stderr))
	require.Equal(t, 1, f.Expect.ExitCode)
}

func TestFromRequestTranscript(t *testing.T) {
	f, err := fixture.FromRequest(api.RunReq{
		Name: "t",
		Path: "sh",
		Expect: api.Expectation{Transcript: []api.Segment{
			{Stream: "stdout", Data: "a"},
			{Stream: "stderr", Data: "b"},
		}},
	})
	require.NoError(t, err)
	require.True(t, f.Expect.CheckTranscript)
	require.Equal(t, capture.Stderr, f.Expect.Transcript[1].Stream)
}

func TestFromRequestErrors(t *testing.T) {
	out := "x"
	_, err := fixture.FromRequest(api.RunReq{})
	require.Error(t, err)

	_, err = fixture.FromRequest(api.RunReq{Path: "sh", Expect: api.Expectation{
		Stdout:     &out,
		Transcript: []api.Segment{{Stream: "stdout", Data: "x"}},
	}})
	require.ErrorContains(t, err, "not both")

	_, err = fixture.FromRequest(api.RunReq{Path: "sh", Expect: api.Expectation{
		Transcript: []api.Segment{{Stream: "both", Data: "x"}},
	}})
	require.ErrorContains(t, err, "unknown stream")
}
