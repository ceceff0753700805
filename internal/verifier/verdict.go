package verifier

import "fmt"

// Match is the outcome of one comparison.
type Match int

const (
	Skipped Match = iota
	Pass
	Fail
	Inconclusive
)

func (m Match) String() string {
	switch m {
	case Skipped:
		return "skipped"
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Inconclusive:
		return "inconclusive"
	}
	return fmt.Sprintf("Match(%d)", int(m))
}

// Verdict is built once from a Result and never modified afterwards.
type Verdict struct {
	Stdout     Match
	Stderr     Match
	Transcript Match
	ExitCode   Match

	// Diff explains every comparison that did not pass.
	Diff string
}

func (v Verdict) matches() []Match {
	return []Match{v.Stdout, v.Stderr, v.Transcript, v.ExitCode}
}

// Passed holds when nothing failed and nothing was inconclusive.
func (v Verdict) Passed() bool {
	for _, m := range v.matches() {
		if m == Fail || m == Inconclusive {
			return false
		}
	}
	return true
}

// Inconclusive holds when nothing failed but at least one stream was truncated.
func (v Verdict) Inconclusive() bool {
	seen := false
	for _, m := range v.matches() {
		switch m {
		case Fail:
			return false
		case Inconclusive:
			seen = true
		}
	}
	return seen
}

// Outcome is "pass", "fail" or "inconclusive".
func (v Verdict) Outcome() string {
	switch {
	case v.Passed():
		return Pass.String()
	case v.Inconclusive():
		return Inconclusive.String()
	}
	return Fail.String()
}
