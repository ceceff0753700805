package fixture_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/harness/internal/capture"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/stretchr/testify/require"
)

const suiteToml = `
[defaults]
timeout_ms = 2000
max_bytes = 4096
dir = "scripts"

[[fixtures]]
name = "simple"
tags = ["python"]
command = ["python3", "simple.py"]
exit_code = 1
stdout = ""
stderr = "boom\n"

[[fixtures]]
name = "ordered"
command = ["sh", "-c", "echo a; echo b >&2"]
timeout_ms = 500
dir = "/tmp"
trim_trailing_space = true

[[fixtures.transcript]]
stream = "stdout"
data = "a\n"

[[fixtures.transcript]]
stream = "stderr"
data = "b\n"
`

func TestParseToml(t *testing.T) {
	fixtures, err := fixture.Parse([]byte(suiteToml), ".toml", "/base")
	require.NoError(t, err)
	require.Len(t, fixtures, 2)

	simple := fixtures[0]
	require.Equal(t, "simple", simple.Name)
	require.Equal(t, []string{"python"}, simple.Tags)
	require.Equal(t, "python3", simple.Target.Path)
	require.Equal(t, []string{"simple.py"}, simple.Target.Args)
	require.Equal(t, "/base/scripts", simple.Target.Dir)
	require.Equal(t, 2*time.Second, simple.Limits.Timeout)
	require.EqualValues(t, 4096, simple.Limits.MaxStdoutBytes)
	require.EqualValues(t, 4096, simple.Limits.MaxStderrBytes)
	require.True(t, simple.Expect.CheckStdout)
	require.Empty(t, simple.Expect.Stdout)
	require.True(t, simple.Expect.CheckStderr)
	require.Equal(t, "boom\n", string(simple.Expect.Stderr))
	require.True(t, simple.Expect.CheckExitCode)
	require.Equal(t, 1, simple.Expect.ExitCode)
	require.False(t, simple.Expect.CheckTranscript)

	ordered := fixtures[1]
	require.Equal(t, "/tmp", ordered.Target.Dir)
	require.Equal(t, 500*time.Millisecond, ordered.Limits.Timeout)
	require.True(t, ordered.Options.TrimTrailingSpace)
	require.False(t, ordered.Expect.CheckExitCode)
	require.False(t, ordered.Expect.CheckStdout)
	require.True(t, ordered.Expect.CheckTranscript)
	require.Equal(t, []capture.Segment{
		{Stream: capture.Stdout, Data: []byte("a\n")},
		{Stream: capture.Stderr, Data: []byte("b\n")},
	}, ordered.Expect.Transcript)
}

func TestParseYaml(t *testing.T) {
	doc := `
defaults:
  timeout_ms: 1500
fixtures:
  - name: hello
    command: [sh, -c, "echo hi"]
    exit_code: 0
    stdout: "hi\n"
`
	fixtures, err := fixture.Parse([]byte(doc), ".yml", "/base")
	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	require.Equal(t, "hello", fixtures[0].Name)
	require.Equal(t, "/base", fixtures[0].Target.Dir)
	require.Equal(t, 1500*time.Millisecond, fixtures[0].Limits.Timeout)
	require.Equal(t, "hi\n", string(fixtures[0].Expect.Stdout))
	require.False(t, fixtures[0].Expect.CheckStderr)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"duplicate", `
[[fixtures]]
name = "a"
command = ["true"]
[[fixtures]]
name = "a"
command = ["true"]
`, `duplicate fixture name "a"`},
		{"no name", `
[[fixtures]]
command = ["true"]
`, "has no name"},
		{"empty command", `
[[fixtures]]
name = "a"
command = []
`, "command is empty"},
		{"streams and transcript", `
[[fixtures]]
name = "a"
command = ["true"]
stdout = "x"
[[fixtures.transcript]]
stream = "stdout"
data = "x"
`, "not both"},
		{"inline and file", `
[[fixtures]]
name = "a"
command = ["true"]
stdout = "x"
stdout_file = "x.out"
`, "both inline content and file"},
		{"unknown stream", `
[[fixtures]]
name = "a"
command = ["true"]
[[fixtures.transcript]]
stream = "stdin"
data = "x"
`, `unknown stream "stdin"`},
		{"negative timeout", `
[[fixtures]]
name = "a"
command = ["true"]
timeout_ms = -5
`, "timeout must be positive"},
		{"missing golden", `
[[fixtures]]
name = "a"
command = ["true"]
stderr_file = "nope.txt"
`, "failed to read golden file"},
		{"bad toml", `[[fixtures]`, "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.Parse([]byte(tt.doc), ".toml", t.TempDir())
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestUnsupportedExtension(t *testing.T) {
	_, err := fixture.Parse([]byte("{}"), ".json", "/")
	require.ErrorContains(t, err, "unsupported fixture file extension")
}

func TestLoadResolvesGoldenFiles(t *testing.T) {
	dir := t.TempDir()
	want := "Traceback (most recent call last):\nNameError: name 'x' is not defined\n"

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(want), nil)
	require.NoError(t, enc.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "err.txt.zst"), compressed, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.txt"), []byte("plain\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part.txt"), []byte("segment\n"), 0o644))

	doc := `
[[fixtures]]
name = "files"
command = ["true"]
stdout_file = "out.txt"
stderr_file = "err.txt.zst"

[[fixtures]]
name = "segments"
command = ["true"]
[[fixtures.transcript]]
stream = "stderr"
file = "part.txt"
`
	path := filepath.Join(dir, "suite.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	fixtures, err := fixture.Load(path)
	require.NoError(t, err)
	require.Equal(t, "plain\n", string(fixtures[0].Expect.Stdout))
	require.Equal(t, want, string(fixtures[0].Expect.Stderr))
	require.Equal(t, "segment\n", string(fixtures[1].Expect.Transcript[0].Data))
	require.Equal(t, capture.Stderr, fixtures[1].Expect.Transcript[0].Stream)
}

func TestReadGoldenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))
	_, err := fixture.ReadGolden(path)
	require.ErrorContains(t, err, "failed to decompress")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := fixture.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.ErrorContains(t, err, "failed to read fixture file")
}

func TestParseWithBaseFillsUnsetLimits(t *testing.T) {
	doc := `
[[fixtures]]
name = "inherits"
command = ["true"]

[[fixtures]]
name = "overrides"
command = ["true"]
timeout_ms = 500
max_bytes = 10
`
	base := launcher.DefaultLimits().WithMaxBytes(100)
	base.Timeout = 7 * time.Second

	fixtures, err := fixture.ParseWithBase([]byte(doc), ".toml", "/", base)
	require.NoError(t, err)
	require.Equal(t, 7*time.Second, fixtures[0].Limits.Timeout)
	require.EqualValues(t, 100, fixtures[0].Limits.MaxStdoutBytes)
	require.EqualValues(t, 100, fixtures[0].Limits.MaxStderrBytes)
	require.Equal(t, 500*time.Millisecond, fixtures[1].Limits.Timeout)
	require.EqualValues(t, 10, fixtures[1].Limits.MaxStdoutBytes)
}
