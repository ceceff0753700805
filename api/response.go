package api

import "time"

// Report aggregates the records of one suite run, in fixture order.
type Report struct {
	SuiteId string `json:"suite_id"`
	Source  string `json:"source"`

	Total        int `json:"total"`
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
	Inconclusive int `json:"inconclusive"`
	Errored      int `json:"errored"`

	StartTime   string `json:"start_time"`
	FinishTime  string `json:"finish_time"`
	TotalTimeMs int64  `json:"total_time_ms"`

	Records []RunRecord `json:"records"`
}

func NewReport(suiteId, source string, started time.Time) *Report {
	return &Report{
		SuiteId:   suiteId,
		Source:    source,
		StartTime: started.Format(time.RFC3339),
		Records:   []RunRecord{},
	}
}

// Add appends rec and counts its outcome.
func (r *Report) Add(rec RunRecord) {
	r.Records = append(r.Records, rec)
	r.Total++
	switch rec.Verdict.Outcome {
	case OutcomePass:
		r.Passed++
	case OutcomeInconclusive:
		r.Inconclusive++
	case OutcomeError:
		r.Errored++
	default:
		r.Failed++
	}
}

func (r *Report) Finish(started, finished time.Time) {
	r.FinishTime = finished.Format(time.RFC3339)
	r.TotalTimeMs = finished.Sub(started).Milliseconds()
}

// Ok holds when every record passed.
func (r *Report) Ok() bool {
	return r.Passed == r.Total
}
