package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Segment is a run of same-stream output inside a transcript.
type Segment struct {
	Stream string `json:"stream"`
	Data   string `json:"data"`
}

// RunRecord is one fixture run: what the child did and how it compared.
type RunRecord struct {
	RunId   string `json:"run_id"`
	Fixture string `json:"fixture"`
	Command string `json:"command"`

	// State is one of completed, timed_out, crashed, launch_failed, or error
	// when the harness failed before it could launch anything.
	State      string  `json:"state"`
	ExitCode   *int    `json:"exit_code"`
	ExitSignal *string `json:"exit_signal"`

	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	Transcript []Segment `json:"transcript"`

	WallMillis      int64 `json:"wall_ms"`
	StdoutTruncated bool  `json:"stdout_truncated"`
	StderrTruncated bool  `json:"stderr_truncated"`

	Verdict VerdictRecord `json:"verdict"`

	// Error is set when the harness itself failed, e.g. on launch.
	Error *string `json:"error,omitempty"`
}

// EncodingBase64 marks a serialized record whose stdout, stderr and
// transcript data are base64. Records are written that way only when some
// output is not valid UTF-8, which a JSON string cannot carry.
const EncodingBase64 = "base64"

type record RunRecord

type wireRecord struct {
	record
	Encoding string `json:"encoding,omitempty"`
}

func (r RunRecord) MarshalJSON() ([]byte, error) {
	w := wireRecord{record: record(r)}
	if !r.isText() {
		enc := base64.StdEncoding.EncodeToString
		w.Encoding = EncodingBase64
		w.Stdout = enc([]byte(r.Stdout))
		w.Stderr = enc([]byte(r.Stderr))
		w.Transcript = make([]Segment, len(r.Transcript))
		for i, seg := range r.Transcript {
			w.Transcript[i] = Segment{Stream: seg.Stream, Data: enc([]byte(seg.Data))}
		}
	}
	return json.Marshal(w)
}

func (r *RunRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Encoding {
	case "":
	case EncodingBase64:
		dec := func(s string) (string, error) {
			b, err := base64.StdEncoding.DecodeString(s)
			return string(b), err
		}
		var err error
		if w.Stdout, err = dec(w.Stdout); err != nil {
			return fmt.Errorf("stdout: %w", err)
		}
		if w.Stderr, err = dec(w.Stderr); err != nil {
			return fmt.Errorf("stderr: %w", err)
		}
		for i := range w.Transcript {
			if w.Transcript[i].Data, err = dec(w.Transcript[i].Data); err != nil {
				return fmt.Errorf("transcript segment #%d: %w", i+1, err)
			}
		}
	default:
		return fmt.Errorf("unknown record encoding %q", w.Encoding)
	}
	*r = RunRecord(w.record)
	return nil
}

func (r RunRecord) isText() bool {
	if !utf8.ValidString(r.Stdout) || !utf8.ValidString(r.Stderr) {
		return false
	}
	for _, seg := range r.Transcript {
		if !utf8.ValidString(seg.Data) {
			return false
		}
	}
	return true
}

type VerdictRecord struct {
	Outcome    string `json:"outcome"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	Transcript string `json:"transcript"`
	ExitCode   string `json:"exit_code"`
	Diff       string `json:"diff,omitempty"`
}

const (
	OutcomePass         = "pass"
	OutcomeFail         = "fail"
	OutcomeInconclusive = "inconclusive"
	OutcomeError        = "error"
)
