package fixture

import (
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/programme-lv/harness/internal/verifier"
)

// Fixture is one script run plus its golden expectations.
type Fixture struct {
	Name    string
	Tags    []string
	Target  launcher.Target
	Limits  launcher.Limits
	Expect  verifier.Expected
	Options verifier.Options
}

// fileDefaults apply to every fixture in the file unless overridden
type fileDefaults struct {
	TimeoutMs         int64  `toml:"timeout_ms" yaml:"timeout_ms"`
	MaxBytes          int64  `toml:"max_bytes" yaml:"max_bytes"`
	MemoryKiB         int64  `toml:"memory_kib" yaml:"memory_kib"`
	CpuMs             int64  `toml:"cpu_ms" yaml:"cpu_ms"`
	Dir               string `toml:"dir" yaml:"dir"`
	NormalizeNewlines bool   `toml:"normalize_newlines" yaml:"normalize_newlines"`
	TrimTrailingSpace bool   `toml:"trim_trailing_space" yaml:"trim_trailing_space"`
}

// fileSegment is one entry of an expected interleaved transcript
type fileSegment struct {
	Stream string `toml:"stream" yaml:"stream"`
	Data   string `toml:"data" yaml:"data"`
	File   string `toml:"file" yaml:"file"`
}

// fileFixture maps to a [[fixtures]] entry
type fileFixture struct {
	Name    string   `toml:"name" yaml:"name"`
	Tags    []string `toml:"tags" yaml:"tags"`
	Command []string `toml:"command" yaml:"command"`
	Dir     string   `toml:"dir" yaml:"dir"`

	TimeoutMs *int64 `toml:"timeout_ms" yaml:"timeout_ms"`
	MaxBytes  *int64 `toml:"max_bytes" yaml:"max_bytes"`
	MemoryKiB *int64 `toml:"memory_kib" yaml:"memory_kib"`
	CpuMs     *int64 `toml:"cpu_ms" yaml:"cpu_ms"`

	ExitCode   *int          `toml:"exit_code" yaml:"exit_code"`
	Stdout     *string       `toml:"stdout" yaml:"stdout"`
	StdoutFile string        `toml:"stdout_file" yaml:"stdout_file"`
	Stderr     *string       `toml:"stderr" yaml:"stderr"`
	StderrFile string        `toml:"stderr_file" yaml:"stderr_file"`
	Transcript []fileSegment `toml:"transcript" yaml:"transcript"`

	NormalizeNewlines *bool `toml:"normalize_newlines" yaml:"normalize_newlines"`
	TrimTrailingSpace *bool `toml:"trim_trailing_space" yaml:"trim_trailing_space"`
}

type fileRoot struct {
	Defaults fileDefaults  `toml:"defaults" yaml:"defaults"`
	Fixtures []fileFixture `toml:"fixtures" yaml:"fixtures"`
}
