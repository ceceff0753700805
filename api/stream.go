package api

import "time"

// MsgType is a message type for streaming suite progress
type MsgType string

const (
	StartSuiteMsg  MsgType = "suite_start"
	StartRunMsg    MsgType = "run_start"
	FinishRunMsg   MsgType = "run_finish"
	FinishSuiteMsg MsgType = "suite_finish"
)

// Output size constraints for streamed records
const (
	MaxOutputHeight = 40
	MaxOutputWidth  = 80
)

// Header is the common header for all streamed messages
type Header struct {
	SuiteId string  `json:"suite_id"`
	MsgType MsgType `json:"msg_type"`
}

type StartSuite struct {
	Header
	Source      string `json:"source"`
	Total       int    `json:"total"`
	StartedTime string `json:"started_time"`
}

type StartRun struct {
	Header
	Fixture string `json:"fixture"`
}

type FinishRun struct {
	Header
	Record *RunRecord `json:"record"`
}

// FinishSuite carries the totals only; records were streamed one by one.
type FinishSuite struct {
	Header
	Total        int   `json:"total"`
	Passed       int   `json:"passed"`
	Failed       int   `json:"failed"`
	Inconclusive int   `json:"inconclusive"`
	Errored      int   `json:"errored"`
	TotalTimeMs  int64 `json:"total_time_ms"`
}

func NewHeader(suiteId string, msgType MsgType) Header {
	return Header{
		SuiteId: suiteId,
		MsgType: msgType,
	}
}

func NewStartSuite(suiteId, source string, total int) StartSuite {
	return StartSuite{
		Header:      NewHeader(suiteId, StartSuiteMsg),
		Source:      source,
		Total:       total,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewStartRun(suiteId, fixture string) StartRun {
	return StartRun{
		Header:  NewHeader(suiteId, StartRunMsg),
		Fixture: fixture,
	}
}

func NewFinishRun(suiteId string, rec *RunRecord) FinishRun {
	return FinishRun{
		Header: NewHeader(suiteId, FinishRunMsg),
		Record: rec,
	}
}

func NewFinishSuite(r *Report) FinishSuite {
	return FinishSuite{
		Header:       NewHeader(r.SuiteId, FinishSuiteMsg),
		Total:        r.Total,
		Passed:       r.Passed,
		Failed:       r.Failed,
		Inconclusive: r.Inconclusive,
		Errored:      r.Errored,
		TotalTimeMs:  r.TotalTimeMs,
	}
}
