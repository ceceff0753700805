package api

// RunReq is the invocation interface: what to run, under which bounds, and
// what it is expected to produce. Either Stdout/Stderr or Transcript is
// expected, never both.
type RunReq struct {
	Name string   `json:"name"`
	Path string   `json:"path"`
	Args []string `json:"args"`
	Dir  string   `json:"dir"`

	TimeoutMs int64 `json:"timeout_ms"`
	MaxBytes  int64 `json:"max_bytes"`
	MemoryKiB int64 `json:"memory_kib,omitempty"`
	CpuMs     int64 `json:"cpu_ms,omitempty"`

	Expect Expectation `json:"expect"`
}

type Expectation struct {
	Stdout     *string   `json:"stdout,omitempty"`
	Stderr     *string   `json:"stderr,omitempty"`
	Transcript []Segment `json:"transcript,omitempty"`
	ExitCode   *int      `json:"exit_code,omitempty"`
}
